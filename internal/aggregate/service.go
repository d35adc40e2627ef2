// Copyright 2026 The modelscout Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package aggregate orchestrates search, popularity, recency, detail-lookup,
// and availability operations across every registered platform client. It
// merges and ranks results, paginates the merged set, and isolates
// per-platform failures so one catalog outage never aborts an aggregate call.
package aggregate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/traylinx/modelscout/internal/apierr"
	"github.com/traylinx/modelscout/internal/catalog"
	"github.com/traylinx/modelscout/internal/constant"
	"github.com/traylinx/modelscout/internal/platform"
)

// MetadataStore is the opaque key/value/TTL cache that may sit in front of
// per-item detail lookups. It is consumed, not redesigned, here.
type MetadataStore interface {
	Get(key string) (*catalog.ExternalModel, bool)
	Set(key string, model *catalog.ExternalModel, ttl time.Duration)
}

// DefaultDetailTTL is how long cached detail lookups stay fresh.
const DefaultDetailTTL = 15 * time.Minute

// Service is the aggregation orchestrator. Every call is stateless aside
// from the per-client rate-limiter timestamps owned by the clients.
type Service struct {
	registry  *platform.Registry
	store     MetadataStore
	detailTTL time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithMetadataStore installs a cache in front of GetDetails.
func WithMetadataStore(store MetadataStore) Option {
	return func(s *Service) { s.store = store }
}

// WithDetailTTL overrides the cache TTL for detail lookups.
func WithDetailTTL(ttl time.Duration) Option {
	return func(s *Service) { s.detailTTL = ttl }
}

// NewService creates the aggregation service over the given registry.
func NewService(registry *platform.Registry, opts ...Option) *Service {
	s := &Service{registry: registry, detailTTL: DefaultDetailTTL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search runs a relevance-ranked, paginated search. With a platform it
// delegates to that single client and propagates its errors unchanged; with
// an empty platform it fans out to every registered client, dropping failed
// platforms from the merge.
func (s *Service) Search(ctx context.Context, platformID, query string, limit, offset int, filters catalog.SearchFilters) (*catalog.PageResult, error) {
	if err := validatePage(limit, offset); err != nil {
		return nil, err
	}
	logger := requestLogger()
	logger.WithField("platform", platformID).
		WithField("query", query).
		Debug("Aggregate search")

	if platformID != "" {
		return s.searchSingle(ctx, platformID, query, limit, offset, filters)
	}

	// Each platform contributes up to offset+limit candidates so the merged
	// page can be filled even when one platform dominates the ranking.
	fetch := offset + limit
	if fetch > constant.MaxSearchLimit {
		fetch = constant.MaxSearchLimit
	}
	merged, searched := s.fanOut(ctx, logger, func(ctx context.Context, client platform.Client) ([]*catalog.ExternalModel, error) {
		return client.Search(ctx, query, fetch, 0, filters)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	merged = dedupeByID(merged)
	rankModels(merged, query)
	return paginate(merged, limit, offset, searched), nil
}

// searchSingle delegates to one client. The upstream reports no totals, so
// the client is asked for one extra record to decide has_more exactly.
func (s *Service) searchSingle(ctx context.Context, platformID, query string, limit, offset int, filters catalog.SearchFilters) (*catalog.PageResult, error) {
	client, ok := s.registry.Resolve(platformID)
	if !ok {
		return nil, apierr.NewNotFound("Platform", platformID)
	}

	fetch := limit + 1
	if fetch > constant.MaxSearchLimit {
		fetch = constant.MaxSearchLimit
	}
	models, err := client.Search(ctx, query, fetch, offset, filters)
	if err != nil {
		return nil, err
	}

	models = dedupeByID(models)
	rankModels(models, query)
	candidates := offset + len(models)
	if len(models) > limit {
		models = models[:limit]
	}

	result := &catalog.PageResult{
		Models:            models,
		Total:             candidates,
		HasMore:           offset+len(models) < candidates,
		PlatformsSearched: []string{platformID},
	}
	if result.HasMore {
		next := offset + len(models)
		result.NextOffset = &next
	}
	return result, nil
}

// GetPopular lists the most downloaded models across one or all platforms.
// Truncation to limit happens after merging, not per platform.
func (s *Service) GetPopular(ctx context.Context, platformID string, limit int, modelType catalog.ModelType) (*catalog.PageResult, error) {
	if err := validatePage(limit, 0); err != nil {
		return nil, err
	}
	logger := requestLogger()

	if platformID != "" {
		client, ok := s.registry.Resolve(platformID)
		if !ok {
			return nil, apierr.NewNotFound("Platform", platformID)
		}
		models, err := client.GetPopular(ctx, limit, modelType)
		if err != nil {
			return nil, err
		}
		return listResult(dedupeByID(models), limit, []string{platformID}), nil
	}

	merged, searched := s.fanOut(ctx, logger, func(ctx context.Context, client platform.Client) ([]*catalog.ExternalModel, error) {
		return client.GetPopular(ctx, limit, modelType)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	merged = dedupeByID(merged)
	rankModels(merged, "")
	return listResult(merged, limit, searched), nil
}

// GetRecent lists the most recently updated models across one or all
// platforms, sorted purely by updated_at descending.
func (s *Service) GetRecent(ctx context.Context, platformID string, limit int, modelType catalog.ModelType) (*catalog.PageResult, error) {
	if err := validatePage(limit, 0); err != nil {
		return nil, err
	}
	logger := requestLogger()

	if platformID != "" {
		client, ok := s.registry.Resolve(platformID)
		if !ok {
			return nil, apierr.NewNotFound("Platform", platformID)
		}
		models, err := client.GetRecent(ctx, limit, modelType)
		if err != nil {
			return nil, err
		}
		models = dedupeByID(models)
		sortByRecency(models)
		return listResult(models, limit, []string{platformID}), nil
	}

	merged, searched := s.fanOut(ctx, logger, func(ctx context.Context, client platform.Client) ([]*catalog.ExternalModel, error) {
		return client.GetRecent(ctx, limit, modelType)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	merged = dedupeByID(merged)
	sortByRecency(merged)
	return listResult(merged, limit, searched), nil
}

// GetDetails fetches one model from one platform. An absent model yields a
// NotFoundError carrying "<platform>:<id>"; any other client failure is
// surfaced as an ExternalAPIError.
func (s *Service) GetDetails(ctx context.Context, platformID, id string) (*catalog.ExternalModel, error) {
	client, ok := s.registry.Resolve(platformID)
	if !ok {
		return nil, apierr.NewNotFound("Platform", platformID)
	}

	cacheKey := fmt.Sprintf("%s:%s", platformID, id)
	if s.store != nil {
		if model, hit := s.store.Get(cacheKey); hit {
			return model, nil
		}
	}

	model, err := client.GetDetails(ctx, id)
	if err != nil {
		if apierr.IsExternal(err) {
			return nil, err
		}
		return nil, apierr.NewExternal(platformID, 0, "detail lookup failed", err)
	}
	if model == nil {
		return nil, apierr.NewNotFound("ExternalModel", cacheKey)
	}

	if s.store != nil {
		s.store.Set(cacheKey, model, s.detailTTL)
	}
	return model, nil
}

// CheckAvailability reports whether a model still exists upstream. It is a
// total function: every failure, including an unknown platform, converts to
// false.
func (s *Service) CheckAvailability(ctx context.Context, platformID, id string) bool {
	client, ok := s.registry.Resolve(platformID)
	if !ok {
		return false
	}
	available, err := client.CheckAvailability(ctx, id)
	if err != nil {
		log.WithError(err).
			WithField("platform", platformID).
			WithField("model", id).
			Debug("Availability check failed, reporting unavailable")
		return false
	}
	return available
}

// GetCompatibleModels is Search with an injected compatibility filter.
func (s *Service) GetCompatibleModels(ctx context.Context, platformID, query string, limit, offset int, filters catalog.SearchFilters) (*catalog.PageResult, error) {
	filters.CompatibleOnly = true
	return s.Search(ctx, platformID, query, limit, offset, filters)
}

// GetSuggestions degrades to popularity ranking. This subsystem is not a
// recommendation engine; basedOn only narrows the type when it names one.
func (s *Service) GetSuggestions(ctx context.Context, modelType catalog.ModelType, limit int) (*catalog.PageResult, error) {
	if limit < 1 || limit > constant.MaxSuggestionLimit {
		return nil, apierr.NewValidation("limit", fmt.Sprintf("must be between 1 and %d", constant.MaxSuggestionLimit))
	}
	return s.GetPopular(ctx, "", limit, modelType)
}

// Capabilities returns every registered platform's capability snapshot.
func (s *Service) Capabilities() map[string]catalog.Capabilities {
	return s.registry.AllCapabilities()
}

// fanOut issues call against every registered client concurrently. A failed
// platform is logged and dropped; it is excluded from the searched list and
// never aborts the call. Results merge in registry order, each platform's
// own order preserved.
func (s *Service) fanOut(ctx context.Context, logger *log.Entry, call func(context.Context, platform.Client) ([]*catalog.ExternalModel, error)) ([]*catalog.ExternalModel, []string) {
	clients := s.registry.Clients()
	results := make([][]*catalog.ExternalModel, len(clients))
	errs := make([]error, len(clients))

	var wg sync.WaitGroup
	for i, client := range clients {
		wg.Add(1)
		go func(i int, client platform.Client) {
			defer wg.Done()
			results[i], errs[i] = call(ctx, client)
		}(i, client)
	}
	wg.Wait()

	// Accumulation happens only here, after every platform call completed.
	var merged []*catalog.ExternalModel
	searched := make([]string, 0, len(clients))
	for i, client := range clients {
		if errs[i] != nil {
			logger.WithError(errs[i]).
				WithField("platform", client.ID()).
				Warn("Platform dropped from aggregate call")
			continue
		}
		merged = append(merged, results[i]...)
		searched = append(searched, client.ID())
	}
	return merged, searched
}

// listResult truncates a merged list to limit and wraps it as a single page.
func listResult(models []*catalog.ExternalModel, limit int, platforms []string) *catalog.PageResult {
	if len(models) > limit {
		models = models[:limit]
	}
	return &catalog.PageResult{
		Models:            models,
		Total:             len(models),
		HasMore:           false,
		PlatformsSearched: platforms,
	}
}

// validatePage checks the shared limit/offset contract.
func validatePage(limit, offset int) error {
	if limit < 1 || limit > constant.MaxSearchLimit {
		return apierr.NewValidation("limit", fmt.Sprintf("must be between 1 and %d", constant.MaxSearchLimit))
	}
	if offset < 0 {
		return apierr.NewValidation("offset", "must not be negative")
	}
	return nil
}

// requestLogger stamps a short request id into the log fields so one
// aggregate call's lines correlate.
func requestLogger() *log.Entry {
	return log.WithField("request_id", uuid.NewString()[:8])
}
