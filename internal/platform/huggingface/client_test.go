// Copyright 2026 The modelscout Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package huggingface

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traylinx/modelscout/internal/catalog"
)

const listFixture = `[
  {
    "id": "stabilityai/sdxl-turbo",
    "author": "stabilityai",
    "pipeline_tag": "text-to-image",
    "library_name": "diffusers",
    "tags": ["text-to-image", "stable-diffusion-xl", "diffusers"],
    "downloads": 250000,
    "likes": 3100,
    "createdAt": "2024-11-28T12:00:00.000Z",
    "lastModified": "2025-02-14T09:30:00.000Z",
    "siblings": [
      {"rfilename": "model_index.json", "size": 600},
      {"rfilename": "unet/diffusion_pytorch_model.safetensors", "size": 5135149760},
      {"rfilename": "vae/diffusion_pytorch_model.bin", "size": 334643268}
    ]
  },
  {
    "id": "someone/style-lora",
    "pipeline_tag": "text-to-image",
    "tags": ["lora", "stable-diffusion"],
    "downloads": 1200,
    "lastModified": "2025-05-01T00:00:00Z",
    "siblings": [{"rfilename": "style.safetensors", "size": 151000000}]
  },
  {"downloads": 42},
  {
    "id": "bigco/bert-base",
    "pipeline_tag": "fill-mask",
    "tags": ["bert"],
    "downloads": 9000000,
    "siblings": [{"rfilename": "pytorch_model.bin", "size": 440000000}]
  }
]`

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Config{
		BaseURL:           server.URL,
		MinRequestSpacing: time.Millisecond,
		MaxRetries:        1,
		BackoffBase:       time.Millisecond,
	})
}

func TestClient_Search_ParsesAndSkipsMalformed(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/models", r.URL.Path)
		query := r.URL.Query()
		assert.Equal(t, "sdxl", query.Get("search"))
		assert.Equal(t, "downloads", query.Get("sort"))
		assert.Equal(t, "-1", query.Get("direction"))
		assert.Equal(t, "true", query.Get("full"))
		_, _ = w.Write([]byte(listFixture))
	}))

	models, err := client.Search(context.Background(), "sdxl", 10, 0, catalog.SearchFilters{})
	require.NoError(t, err)
	// The item without a repo id is skipped, never fatal.
	require.Len(t, models, 3)

	m := models[0]
	assert.Equal(t, "huggingface:stabilityai/sdxl-turbo", m.ID)
	assert.Equal(t, "sdxl-turbo", m.Name)
	assert.Equal(t, "stabilityai", m.Author)
	assert.Equal(t, "huggingface", m.Platform)
	assert.Equal(t, catalog.TypeCheckpoint, m.InferredType)
	assert.Equal(t, "SDXL", m.BaseModel)
	assert.Equal(t, int64(250000), m.DownloadCount)
	assert.Nil(t, m.Rating)
	assert.Equal(t, int64(3100), m.RawMetadata["likes"])
	assert.Equal(t, "https://huggingface.co/stabilityai/sdxl-turbo", m.PageURL)

	// Multi-file repo: size is the sum of all siblings, format prefers
	// safetensors over bin.
	require.NotNil(t, m.FileSize)
	assert.Equal(t, int64(600+5135149760+334643268), *m.FileSize)
	assert.Equal(t, "safetensors", m.FileFormat)
	assert.Equal(t, "https://huggingface.co/stabilityai/sdxl-turbo/resolve/main/unet/diffusion_pytorch_model.safetensors", m.DownloadURL)

	assert.Equal(t, time.Date(2025, 2, 14, 9, 30, 0, 0, time.UTC), m.UpdatedAt.UTC())
	assert.True(t, m.Compatibility.IsCompatible)
	assert.Equal(t, "checkpoints", m.Compatibility.TargetFolder)
}

func TestClient_Search_LoraTagRefinesPipeline(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listFixture))
	}))

	models, err := client.Search(context.Background(), "", 10, 0, catalog.SearchFilters{})
	require.NoError(t, err)
	require.Len(t, models, 3)

	lora := models[1]
	assert.Equal(t, catalog.TypeLoRA, lora.InferredType)
	assert.Equal(t, "someone", lora.Author)
	assert.Equal(t, "Stable Diffusion", lora.BaseModel)
	assert.Equal(t, "loras", lora.Compatibility.TargetFolder)
}

func TestClient_Search_UnknownTypeIncompatible(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listFixture))
	}))

	models, err := client.Search(context.Background(), "", 10, 0, catalog.SearchFilters{})
	require.NoError(t, err)
	require.Len(t, models, 3)

	bert := models[2]
	assert.Equal(t, catalog.TypeUnknown, bert.InferredType)
	assert.False(t, bert.Compatibility.IsCompatible)
	assert.Empty(t, bert.Compatibility.TargetFolder)
}

func TestClient_Search_TypeFilterAppliedLocally(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listFixture))
	}))

	models, err := client.Search(context.Background(), "", 10, 0, catalog.SearchFilters{
		Types: []catalog.ModelType{catalog.TypeLoRA},
	})
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "huggingface:someone/style-lora", models[0].ID)
}

func TestClient_Search_OffsetSlicing(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(listFixture))
	}))

	models, err := client.Search(context.Background(), "", 2, 3, catalog.SearchFilters{})
	require.NoError(t, err)
	// Three parseable models, offset 3 walks past all of them.
	assert.Empty(t, models)
}

func TestClient_GetRecent_SortParam(t *testing.T) {
	var gotSort string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSort = r.URL.Query().Get("sort")
		_, _ = w.Write([]byte(`[]`))
	}))

	_, err := client.GetRecent(context.Background(), 5, "")
	require.NoError(t, err)
	assert.Equal(t, "lastModified", gotSort)
}

func TestClient_GetDetails_EscapesRepoID(t *testing.T) {
	const detailFixture = `{
	  "id": "stabilityai/sdxl-turbo",
	  "pipeline_tag": "text-to-image",
	  "tags": ["stable-diffusion-xl"],
	  "downloads": 250000,
	  "siblings": [{"rfilename": "sd_xl_turbo_1.0.safetensors", "size": 6938078334}]
	}`
	var gotPath string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(detailFixture))
	}))

	model, err := client.GetDetails(context.Background(), "stabilityai/sdxl-turbo")
	require.NoError(t, err)
	require.NotNil(t, model)
	assert.Equal(t, "/api/models/stabilityai/sdxl-turbo", gotPath)
	assert.Equal(t, "huggingface:stabilityai/sdxl-turbo", model.ID)
	assert.Equal(t, "stabilityai", model.Author)
}

func TestClient_GetDetails_AbsentOn404(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	model, err := client.GetDetails(context.Background(), "gone/model")
	require.NoError(t, err)
	assert.Nil(t, model)

	available, err := client.CheckAvailability(context.Background(), "gone/model")
	require.NoError(t, err)
	assert.False(t, available)
}

func TestClient_FallbackDescription(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id": "a/b", "pipeline_tag": "text-to-image", "library_name": "diffusers"}]`))
	}))

	models, err := client.Search(context.Background(), "", 10, 0, catalog.SearchFilters{})
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "b model for text-to-image (diffusers)", models[0].Description)
	// No file listing means no size and no download URL.
	assert.Nil(t, models[0].FileSize)
	assert.Empty(t, models[0].DownloadURL)
}

func TestClient_Capabilities(t *testing.T) {
	client := New(Config{MaxRetries: 2, Timeout: 10 * time.Second})
	caps := client.Capabilities()

	assert.True(t, caps.IsAvailable)
	assert.Equal(t, 500*time.Millisecond, caps.RateLimits.MinRequestSpacing)
	assert.Equal(t, 2, caps.RateLimits.MaxRetries)
	assert.Contains(t, caps.SupportedTypes, catalog.TypeLoRA)
}
