// Copyright 2026 The modelscout Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aggregate

import (
	"sort"
	"strings"
	"time"

	"github.com/traylinx/modelscout/internal/catalog"
)

// Scoring weights are heuristic tuning values. The relative ordering they
// produce is the contract, not the exact constants.
const (
	nameMatchWeight   = 10.0
	namePrefixWeight  = 5.0
	authorMatchWeight = 3.0
	tagMatchWeight    = 2.0
	descMatchWeight   = 1.0
	compatBonus       = 1.0
	popularityCap     = 5.0
	popularityDivisor = 10000.0

	emptyQueryDownloadDivisor = 1000.0
	emptyQueryDownloadCap     = 100.0
	emptyQueryRatingWeight    = 10.0
	emptyQueryCompatBonus     = 5.0
	emptyQueryFreshnessBonus  = 2.0
	freshnessWindow           = 30 * 24 * time.Hour
)

// rankModels orders the merged candidate set in place: relevance scoring for
// a non-empty query, popularity scoring otherwise. The sort is stable, so
// ties keep the deterministic merge order.
func rankModels(models []*catalog.ExternalModel, query string) {
	score := func(m *catalog.ExternalModel) float64 { return popularityScore(m) }
	if query != "" {
		score = func(m *catalog.ExternalModel) float64 { return relevanceScore(m, query) }
	}
	sort.SliceStable(models, func(i, j int) bool {
		return score(models[i]) > score(models[j])
	})
}

// relevanceScore computes the query-driven ranking value.
func relevanceScore(m *catalog.ExternalModel, query string) float64 {
	q := strings.ToLower(query)
	name := strings.ToLower(m.Name)

	var score float64
	if strings.Contains(name, q) {
		score += nameMatchWeight
		if strings.HasPrefix(name, q) {
			score += namePrefixWeight
		}
	}
	if strings.Contains(strings.ToLower(m.Author), q) {
		score += authorMatchWeight
	}
	for _, tag := range m.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			score += tagMatchWeight
		}
	}
	if strings.Contains(strings.ToLower(m.Description), q) {
		score += descMatchWeight
	}
	if m.Compatibility.IsCompatible {
		score += compatBonus
	}

	popularity := float64(m.DownloadCount) / popularityDivisor
	if popularity > popularityCap {
		popularity = popularityCap
	}
	score += popularity

	if m.Rating != nil {
		score += *m.Rating
	}
	return score
}

// popularityScore computes the empty-query ranking value.
func popularityScore(m *catalog.ExternalModel) float64 {
	score := float64(m.DownloadCount) / emptyQueryDownloadDivisor
	if score > emptyQueryDownloadCap {
		score = emptyQueryDownloadCap
	}
	if m.Rating != nil {
		score += *m.Rating * emptyQueryRatingWeight
	}
	if m.Compatibility.IsCompatible {
		score += emptyQueryCompatBonus
	}
	if !m.UpdatedAt.IsZero() && !m.CreatedAt.IsZero() && m.UpdatedAt.Sub(m.CreatedAt) <= freshnessWindow {
		score += emptyQueryFreshnessBonus
	}
	return score
}

// sortByRecency orders models by updated_at descending, stable on ties.
func sortByRecency(models []*catalog.ExternalModel) {
	sort.SliceStable(models, func(i, j int) bool {
		return models[i].UpdatedAt.After(models[j].UpdatedAt)
	})
}

// paginate applies offset/limit to the ranked candidate set and fills the
// page bookkeeping: total is the candidate-set size, has_more reports
// whether a further page exists, and next_offset is set only then.
func paginate(ranked []*catalog.ExternalModel, limit, offset int, platforms []string) *catalog.PageResult {
	total := len(ranked)

	var page []*catalog.ExternalModel
	if offset < total {
		end := offset + limit
		if end > total {
			end = total
		}
		page = ranked[offset:end]
	}

	result := &catalog.PageResult{
		Models:            page,
		Total:             total,
		HasMore:           offset+len(page) < total,
		PlatformsSearched: platforms,
	}
	if result.HasMore {
		next := offset + len(page)
		result.NextOffset = &next
	}
	return result
}

// dedupeByID drops records whose platform-prefixed id was already seen,
// keeping the first occurrence. IDs are unique within one aggregation
// response by contract.
func dedupeByID(models []*catalog.ExternalModel) []*catalog.ExternalModel {
	seen := make(map[string]struct{}, len(models))
	out := models[:0]
	for _, m := range models {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}
