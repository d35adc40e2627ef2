// Copyright 2026 The modelscout Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package platform

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traylinx/modelscout/internal/catalog"
)

type stubClient struct {
	id   string
	caps catalog.Capabilities
}

func (s *stubClient) ID() string { return s.id }
func (s *stubClient) Search(ctx context.Context, query string, limit, offset int, filters catalog.SearchFilters) ([]*catalog.ExternalModel, error) {
	return nil, nil
}
func (s *stubClient) GetDetails(ctx context.Context, id string) (*catalog.ExternalModel, error) {
	return nil, nil
}
func (s *stubClient) GetPopular(ctx context.Context, limit int, modelType catalog.ModelType) ([]*catalog.ExternalModel, error) {
	return nil, nil
}
func (s *stubClient) GetRecent(ctx context.Context, limit int, modelType catalog.ModelType) ([]*catalog.ExternalModel, error) {
	return nil, nil
}
func (s *stubClient) CheckAvailability(ctx context.Context, id string) (bool, error) {
	return false, nil
}
func (s *stubClient) Capabilities() catalog.Capabilities { return s.caps }

func TestRegistry_ResolveAndOrder(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&stubClient{id: "civitai"})
	registry.Register(&stubClient{id: "huggingface"})

	client, ok := registry.Resolve("civitai")
	require.True(t, ok)
	assert.Equal(t, "civitai", client.ID())

	_, ok = registry.Resolve("unknown")
	assert.False(t, ok)

	assert.Equal(t, []string{"civitai", "huggingface"}, registry.Platforms())
}

func TestRegistry_ReplacementKeepsPosition(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&stubClient{id: "civitai"})
	registry.Register(&stubClient{id: "huggingface"})

	replacement := &stubClient{id: "civitai", caps: catalog.Capabilities{IsAvailable: true}}
	registry.Register(replacement)

	assert.Equal(t, []string{"civitai", "huggingface"}, registry.Platforms())
	client, ok := registry.Resolve("civitai")
	require.True(t, ok)
	assert.True(t, client.Capabilities().IsAvailable)
}

func TestRegistry_CapabilitiesForUnknownIsZero(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&stubClient{id: "civitai", caps: catalog.Capabilities{
		RateLimits:  catalog.RateLimits{MinRequestSpacing: time.Second},
		IsAvailable: true,
	}})

	known := registry.CapabilitiesFor("civitai")
	assert.Equal(t, time.Second, known.RateLimits.MinRequestSpacing)

	// Never an error for an unknown platform, just an empty snapshot.
	unknown := registry.CapabilitiesFor("modelhub")
	assert.Equal(t, catalog.Capabilities{}, unknown)

	all := registry.AllCapabilities()
	assert.Len(t, all, 1)
	assert.True(t, all["civitai"].IsAvailable)
}
