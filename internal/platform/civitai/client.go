// Copyright 2026 The modelscout Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package civitai implements the platform client for the CivitAI community
// model hub (https://civitai.com/api/v1). The whole native payload shape is
// absorbed here; other components only see canonical records.
package civitai

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/traylinx/modelscout/internal/catalog"
	"github.com/traylinx/modelscout/internal/constant"
	"github.com/traylinx/modelscout/internal/platform"
	"github.com/traylinx/modelscout/internal/platform/transport"
)

// DefaultBaseURL is the production CivitAI API host.
const DefaultBaseURL = "https://civitai.com"

// Config carries the client's read-only settings.
type Config struct {
	BaseURL           string
	APIKey            string
	MinRequestSpacing time.Duration
	Timeout           time.Duration
	MaxRetries        int
	// BackoffBase shrinks the retry delay in tests; zero keeps the default.
	BackoffBase time.Duration
}

// Client talks to the CivitAI REST API with rate limiting and retries.
type Client struct {
	baseURL string
	fetcher *transport.Fetcher
	rules   platform.CompatRules
}

// New creates a CivitAI client. Zero config fields fall back to defaults:
// one request per second, three attempts, 30s timeout.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MinRequestSpacing <= 0 {
		cfg.MinRequestSpacing = time.Second
	}
	headers := map[string]string{}
	if cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + cfg.APIKey
	}
	return &Client{
		baseURL: cfg.BaseURL,
		fetcher: transport.NewFetcher(transport.Options{
			Platform:          constant.CivitAI,
			MinRequestSpacing: cfg.MinRequestSpacing,
			Timeout:           cfg.Timeout,
			MaxRetries:        cfg.MaxRetries,
			BackoffBase:       cfg.BackoffBase,
			Headers:           headers,
		}),
		rules: compatRules,
	}
}

// ID returns the platform identifier.
func (c *Client) ID() string { return constant.CivitAI }

// Search queries the hub. CivitAI paginates by page number, so the client
// requests enough items to cover offset+limit and slices locally.
func (c *Client) Search(ctx context.Context, query string, limit, offset int, filters catalog.SearchFilters) ([]*catalog.ExternalModel, error) {
	params := url.Values{}
	if query != "" {
		params.Set("query", query)
	}
	models, err := c.listModels(ctx, params, limit, offset, filters)
	if err != nil {
		return nil, err
	}
	return models, nil
}

// GetPopular lists the most downloaded models, optionally restricted by type.
func (c *Client) GetPopular(ctx context.Context, limit int, modelType catalog.ModelType) ([]*catalog.ExternalModel, error) {
	params := url.Values{}
	params.Set("sort", "Most Downloaded")
	return c.listModels(ctx, params, limit, 0, typeFilter(modelType))
}

// GetRecent lists the newest models, optionally restricted by type.
func (c *Client) GetRecent(ctx context.Context, limit int, modelType catalog.ModelType) ([]*catalog.ExternalModel, error) {
	params := url.Values{}
	params.Set("sort", "Newest")
	return c.listModels(ctx, params, limit, 0, typeFilter(modelType))
}

// GetDetails fetches one model by its numeric CivitAI id. A missing model
// returns (nil, nil).
func (c *Client) GetDetails(ctx context.Context, id string) (*catalog.ExternalModel, error) {
	body, err := c.fetcher.Get(ctx, fmt.Sprintf("%s/api/v1/models/%s", c.baseURL, url.PathEscape(id)))
	if err != nil {
		if errors.Is(err, transport.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	model, err := parseModel(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse civitai model %s: %w", id, err)
	}
	return model, nil
}

// GetByHash resolves a model by the content hash of one of its files using
// the model-versions/by-hash endpoint. A hash with no match returns (nil, nil).
func (c *Client) GetByHash(ctx context.Context, hash string) (*catalog.ExternalModel, error) {
	body, err := c.fetcher.Get(ctx, fmt.Sprintf("%s/api/v1/model-versions/by-hash/%s", c.baseURL, url.PathEscape(hash)))
	if err != nil {
		if errors.Is(err, transport.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	model, err := parseVersionPayload(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse civitai version for hash %s: %w", hash, err)
	}
	return model, nil
}

// CheckAvailability reports whether the model still exists upstream.
func (c *Client) CheckAvailability(ctx context.Context, id string) (bool, error) {
	model, err := c.GetDetails(ctx, id)
	if err != nil {
		return false, err
	}
	return model != nil, nil
}

// Capabilities returns the read-only configuration snapshot.
func (c *Client) Capabilities() catalog.Capabilities {
	opts := c.fetcher.Options()
	return catalog.Capabilities{
		RateLimits: catalog.RateLimits{
			MinRequestSpacing: opts.MinRequestSpacing,
			MaxRetries:        opts.MaxRetries,
			Timeout:           opts.Timeout,
		},
		SupportedTypes: []catalog.ModelType{
			catalog.TypeCheckpoint, catalog.TypeLoRA, catalog.TypeVAE,
			catalog.TypeEmbedding, catalog.TypeControlNet, catalog.TypeUpscaler,
		},
		SupportedFormats: []string{"safetensors", "ckpt", "pt"},
		IsAvailable:      true,
	}
}

// listModels performs the shared list call and applies offset slicing plus
// the caller's filters.
func (c *Client) listModels(ctx context.Context, params url.Values, limit, offset int, filters catalog.SearchFilters) ([]*catalog.ExternalModel, error) {
	fetch := limit + offset
	if fetch > constant.MaxSearchLimit {
		fetch = constant.MaxSearchLimit
	}
	params.Set("limit", strconv.Itoa(fetch))
	if native, ok := singleNativeType(filters); ok {
		params.Set("types", native)
	}

	body, err := c.fetcher.Get(ctx, fmt.Sprintf("%s/api/v1/models?%s", c.baseURL, params.Encode()))
	if err != nil {
		if errors.Is(err, transport.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	models, err := parseModelList(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse civitai model list: %w", err)
	}

	filtered := models[:0]
	for _, m := range models {
		if filters.Matches(m) {
			filtered = append(filtered, m)
		}
	}
	if offset >= len(filtered) {
		return nil, nil
	}
	filtered = filtered[offset:]
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

// typeFilter builds a filter restricting to one model type, or an empty
// filter for the zero value.
func typeFilter(modelType catalog.ModelType) catalog.SearchFilters {
	if modelType == "" {
		return catalog.SearchFilters{}
	}
	return catalog.SearchFilters{Types: []catalog.ModelType{modelType}}
}

// singleNativeType maps a single-type filter back onto CivitAI's native type
// string so the upstream narrows the result set itself.
func singleNativeType(filters catalog.SearchFilters) (string, bool) {
	if len(filters.Types) != 1 {
		return "", false
	}
	native, ok := nativeByType[filters.Types[0]]
	return native, ok
}
