// Copyright 2026 The modelscout Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/traylinx/modelscout/internal/catalog"
)

var testRules = CompatRules{
	SafeFormats:   map[string]bool{"safetensors": true},
	PickleFormats: map[string]bool{"ckpt": true, "pt": true},
	PickleAllowedTypes: map[catalog.ModelType]bool{
		catalog.TypeCheckpoint: true,
		catalog.TypeVAE:        true,
	},
	IntegrationSteps: map[catalog.ModelType][]string{
		catalog.TypeLoRA: {"add a LoRA loader node and select the file"},
	},
	DefaultCompatible: false,
}

func TestCompatRules_UnknownTypeNeverCompatible(t *testing.T) {
	rules := testRules
	rules.DefaultCompatible = true

	compat := rules.Evaluate(catalog.TypeUnknown, "safetensors", "SD 1.5", nil)
	assert.False(t, compat.IsCompatible)
	assert.Contains(t, compat.Notes, "not supported")
	assert.Empty(t, compat.TargetFolder)
}

func TestCompatRules_SafeFormatCompatible(t *testing.T) {
	compat := testRules.Evaluate(catalog.TypeLoRA, "safetensors", "", nil)
	assert.True(t, compat.IsCompatible)
	assert.Equal(t, "loras", compat.TargetFolder)
	assert.Equal(t, []string{"add a LoRA loader node and select the file"}, compat.RequiredIntegrationSteps)
	assert.Empty(t, compat.Notes)
}

func TestCompatRules_PickleRestrictedSubset(t *testing.T) {
	allowed := testRules.Evaluate(catalog.TypeCheckpoint, "ckpt", "", nil)
	assert.True(t, allowed.IsCompatible)
	assert.Contains(t, allowed.Notes, "pickle")

	denied := testRules.Evaluate(catalog.TypeLoRA, "ckpt", "", nil)
	assert.False(t, denied.IsCompatible)
	assert.Contains(t, denied.Notes, "pickle")
}

func TestCompatRules_KnownFamilyRescues(t *testing.T) {
	byBase := testRules.Evaluate(catalog.TypeCheckpoint, "", "SD 1.5", nil)
	assert.True(t, byBase.IsCompatible)

	byTag := testRules.Evaluate(catalog.TypeCheckpoint, "", "", []string{"stable-diffusion"})
	assert.True(t, byTag.IsCompatible)

	neither := testRules.Evaluate(catalog.TypeCheckpoint, "", "", []string{"bert"})
	assert.False(t, neither.IsCompatible)
}

func TestCompatRules_FamilyWorkflowNote(t *testing.T) {
	compat := testRules.Evaluate(catalog.TypeCheckpoint, "safetensors", "SDXL 1.0", nil)
	assert.True(t, compat.IsCompatible)
	assert.Contains(t, compat.Notes, "workflow")
}

func TestCompatRules_NotesJoinedWithSemicolon(t *testing.T) {
	compat := testRules.Evaluate(catalog.TypeCheckpoint, "ckpt", "SDXL 1.0", nil)
	assert.True(t, compat.IsCompatible)
	assert.Contains(t, compat.Notes, "; ")
}

func TestCompatRules_PlatformDefault(t *testing.T) {
	permissive := testRules
	permissive.DefaultCompatible = true

	compat := permissive.Evaluate(catalog.TypeCheckpoint, "", "", nil)
	assert.True(t, compat.IsCompatible)

	compat = testRules.Evaluate(catalog.TypeCheckpoint, "", "", nil)
	assert.False(t, compat.IsCompatible)
}
