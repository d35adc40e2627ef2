// Copyright 2026 The modelscout Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlatformDisplayName(t *testing.T) {
	assert.Equal(t, "CivitAI", PlatformDisplayName("civitai"))
	assert.Equal(t, "Hugging Face", PlatformDisplayName("huggingface"))
	// Unknown identifiers pass through unchanged.
	assert.Equal(t, "modelhub", PlatformDisplayName("modelhub"))
}

func TestExternalModel_Response(t *testing.T) {
	model := &ExternalModel{
		ID:            "huggingface:stabilityai/sdxl-turbo",
		Name:          "sdxl-turbo",
		Author:        "stabilityai",
		Platform:      "huggingface",
		Tags:          []string{"text-to-image"},
		DownloadCount: 250000,
		CreatedAt:     time.Date(2024, 11, 28, 12, 0, 0, 0, time.UTC),
		UpdatedAt:     time.Date(2025, 2, 14, 9, 30, 0, 0, time.UTC),
		InferredType:  TypeCheckpoint,
		Compatibility: Compatibility{
			IsCompatible: true,
			TargetFolder: "checkpoints",
			Notes:        "SDXL family; needs a matching workflow",
		},
	}

	resp := model.Response()
	assert.Equal(t, "huggingface:stabilityai/sdxl-turbo", resp.ID)
	assert.Equal(t, "Hugging Face", resp.PlatformName)
	assert.Equal(t, "checkpoint", resp.InferredType)
	assert.Equal(t, "2024-11-28T12:00:00Z", resp.CreatedAt)
	assert.Equal(t, "2025-02-14T09:30:00Z", resp.UpdatedAt)
	assert.True(t, resp.IsComfyUICompatible)
	assert.Equal(t, "checkpoints", resp.ModelFolder)
	assert.Equal(t, "SDXL family; needs a matching workflow", resp.CompatibilityNotes)
}

func TestExternalModel_ResponseCopiesTags(t *testing.T) {
	model := &ExternalModel{ID: "civitai:1", Platform: "civitai", Tags: []string{"a", "b"}}

	resp := model.Response()
	resp.Tags[0] = "mutated"
	assert.Equal(t, "a", model.Tags[0])
}
