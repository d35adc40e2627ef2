// Copyright 2026 The modelscout Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package platform defines the client interface every external model catalog
// implements, and the registry that resolves platform identifiers to clients.
package platform

import (
	"context"

	"github.com/traylinx/modelscout/internal/catalog"
)

// Client is the capability interface implemented once per external catalog.
// Each implementation owns its HTTP calls, rate limiting, retry/backoff,
// response parsing, and type/compatibility inference.
type Client interface {
	// ID returns the platform identifier (constant package values).
	ID() string

	// Search queries the platform. limit must be in [1,100], offset >= 0;
	// the aggregation service validates before delegating.
	Search(ctx context.Context, query string, limit, offset int, filters catalog.SearchFilters) ([]*catalog.ExternalModel, error)

	// GetDetails fetches one model by its platform-native identifier.
	// A missing model returns (nil, nil), not an error.
	GetDetails(ctx context.Context, id string) (*catalog.ExternalModel, error)

	// GetPopular lists the platform's most downloaded models.
	GetPopular(ctx context.Context, limit int, modelType catalog.ModelType) ([]*catalog.ExternalModel, error)

	// GetRecent lists the platform's most recently updated models.
	GetRecent(ctx context.Context, limit int, modelType catalog.ModelType) ([]*catalog.ExternalModel, error)

	// CheckAvailability reports whether the model still exists upstream.
	CheckAvailability(ctx context.Context, id string) (bool, error)

	// Capabilities returns the client's read-only configuration snapshot.
	Capabilities() catalog.Capabilities
}
