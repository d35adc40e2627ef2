// Copyright 2026 The modelscout Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package huggingface implements the platform client for the Hugging Face
// model registry (https://huggingface.co/api). The registry hosts far more
// than diffusion models, so type inference leans on tags and the pipeline
// tag, and the compatibility default is conservative.
package huggingface

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/traylinx/modelscout/internal/catalog"
	"github.com/traylinx/modelscout/internal/constant"
	"github.com/traylinx/modelscout/internal/platform/transport"
)

// DefaultBaseURL is the production Hugging Face API host.
const DefaultBaseURL = "https://huggingface.co"

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

// Client talks to the Hugging Face hub API with rate limiting and retries.
type Client struct {
	baseURL string
	fetcher *transport.Fetcher
}

// New creates a Hugging Face client. Zero config fields fall back to
// defaults: two requests per second, three attempts, 30s timeout.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MinRequestSpacing <= 0 {
		cfg.MinRequestSpacing = 500 * time.Millisecond
	}
	headers := map[string]string{}
	if cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + cfg.APIKey
	}
	return &Client{
		baseURL: cfg.BaseURL,
		fetcher: transport.NewFetcher(transport.Options{
			Platform:          constant.HuggingFace,
			MinRequestSpacing: cfg.MinRequestSpacing,
			Timeout:           cfg.Timeout,
			MaxRetries:        cfg.MaxRetries,
			BackoffBase:       cfg.BackoffBase,
			Headers:           headers,
		}),
	}
}

// ID returns the platform identifier.
func (c *Client) ID() string { return constant.HuggingFace }

// Search queries the registry. The hub API has no offset parameter, so the
// client requests enough items to cover offset+limit and slices locally.
func (c *Client) Search(ctx context.Context, query string, limit, offset int, filters catalog.SearchFilters) ([]*catalog.ExternalModel, error) {
	params := url.Values{}
	if query != "" {
		params.Set("search", query)
	}
	params.Set("sort", "downloads")
	params.Set("direction", "-1")
	return c.listModels(ctx, params, limit, offset, filters)
}

// GetPopular lists the most downloaded models, optionally restricted by type.
func (c *Client) GetPopular(ctx context.Context, limit int, modelType catalog.ModelType) ([]*catalog.ExternalModel, error) {
	params := url.Values{}
	params.Set("sort", "downloads")
	params.Set("direction", "-1")
	return c.listModels(ctx, params, limit, 0, typeFilter(modelType))
}

// GetRecent lists the most recently updated models, optionally restricted by
// type.
func (c *Client) GetRecent(ctx context.Context, limit int, modelType catalog.ModelType) ([]*catalog.ExternalModel, error) {
	params := url.Values{}
	params.Set("sort", "lastModified")
	params.Set("direction", "-1")
	return c.listModels(ctx, params, limit, 0, typeFilter(modelType))
}

// GetDetails fetches one model by its repo id (e.g., "author/name"). A
// missing model returns (nil, nil).
func (c *Client) GetDetails(ctx context.Context, id string) (*catalog.ExternalModel, error) {
	body, err := c.fetcher.Get(ctx, fmt.Sprintf("%s/api/models/%s", c.baseURL, escapeRepoID(id)))
	if err != nil {
		if errors.Is(err, transport.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	model, err := parseModel(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse huggingface model %s: %w", id, err)
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
			catalog.TypeEmbedding, catalog.TypeControlNet,
		},
		SupportedFormats: []string{"safetensors", "ckpt", "pt", "bin"},
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
	params.Set("full", "true")

	body, err := c.fetcher.Get(ctx, fmt.Sprintf("%s/api/models?%s", c.baseURL, params.Encode()))
	if err != nil {
		if errors.Is(err, transport.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	models := parseModelList(body)
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

// escapeRepoID escapes a repo id while keeping the author/name separator.
func escapeRepoID(id string) string {
	parts := strings.Split(id, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
