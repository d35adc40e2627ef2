// Copyright 2026 The modelscout Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package catalog

import "strings"

// ModelResponse is the flat record handed to the HTTP layer. It carries every
// canonical field plus derived convenience fields so downstream consumers do
// not need to understand the Compatibility structure.
type ModelResponse struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Author        string         `json:"author"`
	Platform      string         `json:"platform"`
	PlatformName  string         `json:"platform_name"`
	ThumbnailURL  string         `json:"thumbnail_url,omitempty"`
	Tags          []string       `json:"tags"`
	DownloadCount int64          `json:"download_count"`
	Rating        *float64       `json:"rating,omitempty"`
	CreatedAt     string         `json:"created_at"`
	UpdatedAt     string         `json:"updated_at"`
	RawMetadata   map[string]any `json:"raw_metadata,omitempty"`

	InferredType string `json:"inferred_type"`
	BaseModel    string `json:"base_model,omitempty"`
	FileFormat   string `json:"file_format,omitempty"`
	FileSize     *int64 `json:"file_size,omitempty"`

	IsComfyUICompatible      bool     `json:"is_comfyui_compatible"`
	ModelFolder              string   `json:"model_folder,omitempty"`
	CompatibilityNotes       string   `json:"compatibility_notes,omitempty"`
	RequiredIntegrationSteps []string `json:"required_integration_steps,omitempty"`

	DownloadURL string `json:"download_url,omitempty"`
	PageURL     string `json:"page_url,omitempty"`
}

// displayNames maps platform identifiers to human-readable names.
var displayNames = map[string]string{
	"civitai":     "CivitAI",
	"huggingface": "Hugging Face",
}

// PlatformDisplayName returns the human-readable name for a platform
// identifier, falling back to the identifier itself.
func PlatformDisplayName(platform string) string {
	if name, ok := displayNames[platform]; ok {
		return name
	}
	return platform
}

// Response flattens the canonical record into the downstream wire shape.
func (m *ExternalModel) Response() ModelResponse {
	tags := append([]string(nil), m.Tags...)
	return ModelResponse{
		ID:            m.ID,
		Name:          m.Name,
		Description:   m.Description,
		Author:        m.Author,
		Platform:      m.Platform,
		PlatformName:  PlatformDisplayName(m.Platform),
		ThumbnailURL:  m.ThumbnailURL,
		Tags:          tags,
		DownloadCount: m.DownloadCount,
		Rating:        m.Rating,
		CreatedAt:     m.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:     m.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		RawMetadata:   m.RawMetadata,

		InferredType: string(m.InferredType),
		BaseModel:    m.BaseModel,
		FileFormat:   m.FileFormat,
		FileSize:     m.FileSize,

		IsComfyUICompatible:      m.Compatibility.IsCompatible,
		ModelFolder:              m.Compatibility.TargetFolder,
		CompatibilityNotes:       m.Compatibility.Notes,
		RequiredIntegrationSteps: m.Compatibility.RequiredIntegrationSteps,

		DownloadURL: m.DownloadURL,
		PageURL:     m.PageURL,
	}
}

// containsFold reports whether s contains substr, case-insensitively.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
