// Copyright 2026 The modelscout Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package catalog defines the canonical, platform-agnostic representation of
// an external model listing. Every platform client normalizes its native
// payload into these types; no other component ever observes a platform's raw
// JSON shape.
package catalog

import "time"

// ModelType classifies a model into the folder taxonomy the downstream
// execution tool understands.
type ModelType string

const (
	TypeCheckpoint ModelType = "checkpoint"
	TypeLoRA       ModelType = "lora"
	TypeVAE        ModelType = "vae"
	TypeEmbedding  ModelType = "embedding"
	TypeControlNet ModelType = "controlnet"
	TypeUpscaler   ModelType = "upscaler"
	TypeUnknown    ModelType = "unknown"
)

// Folder returns the install folder for the model type, or empty for unknown.
func (t ModelType) Folder() string {
	switch t {
	case TypeCheckpoint:
		return "checkpoints"
	case TypeLoRA:
		return "loras"
	case TypeVAE:
		return "vae"
	case TypeEmbedding:
		return "embeddings"
	case TypeControlNet:
		return "controlnet"
	case TypeUpscaler:
		return "upscale_models"
	default:
		return ""
	}
}

// Compatibility is a platform-independent judgement of whether a model is
// usable by the downstream execution tool.
type Compatibility struct {
	// IsCompatible reports the overall judgement.
	IsCompatible bool `json:"is_compatible"`
	// TargetFolder is the install folder when the model is compatible.
	TargetFolder string `json:"target_folder,omitempty"`
	// Notes concatenates applicable human-readable hints joined by "; ".
	Notes string `json:"notes,omitempty"`
	// RequiredIntegrationSteps lists manual steps needed after download.
	RequiredIntegrationSteps []string `json:"required_integration_steps,omitempty"`
}

// ExternalModel is the canonical record for one external model listing.
// It is built fresh per response and never persisted.
type ExternalModel struct {
	// ID is the platform-prefixed unique identifier (e.g., "civitai:12345").
	ID string `json:"id"`
	// Name is the human-readable model name.
	Name string `json:"name"`
	// Description summarizes the model.
	Description string `json:"description"`
	// Author is the publishing account on the platform.
	Author string `json:"author"`
	// Platform identifies the owning catalog (constant package values).
	Platform string `json:"platform"`
	// ThumbnailURL points at a preview image, when available.
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	// Tags preserves the platform's original tag order for display.
	Tags []string `json:"tags"`
	// DownloadCount is the platform-reported download total, never negative.
	DownloadCount int64 `json:"download_count"`
	// Rating is the platform rating in [0,5], nil when the platform has none.
	Rating *float64 `json:"rating,omitempty"`
	// CreatedAt is when the listing was first published.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the listing was last touched upstream.
	UpdatedAt time.Time `json:"updated_at"`
	// RawMetadata carries platform-specific detail; it is only interpreted by
	// the owning platform client.
	RawMetadata map[string]any `json:"raw_metadata,omitempty"`
	// Compatibility is the deterministic usability judgement.
	Compatibility Compatibility `json:"compatibility"`
	// InferredType is the normalized model type.
	InferredType ModelType `json:"inferred_type"`
	// BaseModel names the diffusion family (e.g., "SD 1.5"), when known.
	BaseModel string `json:"base_model,omitempty"`
	// FileFormat is the container format of the selected file (e.g., "safetensors").
	FileFormat string `json:"file_format,omitempty"`
	// FileSize is the total size in bytes, nil when unknown.
	FileSize *int64 `json:"file_size,omitempty"`
	// DownloadURL is a direct download link for the selected file.
	DownloadURL string `json:"download_url,omitempty"`
	// PageURL links to the model's page on the platform.
	PageURL string `json:"page_url,omitempty"`
}

// PageResult is one page of merged, ranked aggregation results. It is
// constructed once per aggregate call and discarded after serialization.
type PageResult struct {
	// Models is the ordered page slice of the ranked candidate set.
	Models []*ExternalModel `json:"models"`
	// Total is the size of the merged candidate set before pagination.
	Total int `json:"total"`
	// HasMore reports whether offset+len(Models) < Total.
	HasMore bool `json:"has_more"`
	// NextOffset is offset+len(Models) when HasMore, nil otherwise.
	NextOffset *int `json:"next_offset,omitempty"`
	// PlatformsSearched lists the platforms that contributed to the merge.
	// Platforms that failed during fan-out are absent.
	PlatformsSearched []string `json:"platforms_searched"`
}

// SearchFilters narrows a search or listing call.
type SearchFilters struct {
	// Types restricts results to the given model types, empty for all.
	Types []ModelType `json:"types,omitempty"`
	// BaseModel restricts results to a diffusion family substring match.
	BaseModel string `json:"base_model,omitempty"`
	// CompatibleOnly drops models judged incompatible.
	CompatibleOnly bool `json:"compatible_only,omitempty"`
}

// Matches reports whether the model passes every configured filter.
func (f SearchFilters) Matches(m *ExternalModel) bool {
	if f.CompatibleOnly && !m.Compatibility.IsCompatible {
		return false
	}
	if f.BaseModel != "" && !containsFold(m.BaseModel, f.BaseModel) {
		return false
	}
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if m.InferredType == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// RateLimits describes a client's request pacing configuration.
type RateLimits struct {
	// MinRequestSpacing is the enforced delay between consecutive calls.
	MinRequestSpacing time.Duration `json:"min_request_spacing"`
	// MaxRetries is the attempt count for transient failures.
	MaxRetries int `json:"max_retries"`
	// Timeout is the per-call deadline.
	Timeout time.Duration `json:"timeout"`
}

// Capabilities describes what one platform client supports. Values are
// read-only snapshots of configuration; callers cannot mutate them at runtime.
type Capabilities struct {
	RateLimits       RateLimits  `json:"rate_limits"`
	SupportedTypes   []ModelType `json:"supported_types"`
	SupportedFormats []string    `json:"supported_formats"`
	IsAvailable      bool        `json:"is_available"`
}
