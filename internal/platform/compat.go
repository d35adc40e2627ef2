// Copyright 2026 The modelscout Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package platform

import (
	"strings"

	"github.com/traylinx/modelscout/internal/catalog"
)

// Compatibility hint fragments. Applicable hints are joined by "; " into the
// canonical record's notes field.
const (
	noteUnsupportedType = "model type is not supported by the execution tool"
	noteLegacyFormat    = "legacy pickle-based format, load only from trusted sources"
	noteFamilyWorkflow  = "requires a workflow matching the model's base family"
)

// knownFamilies lists diffusion family markers recognized across platforms.
// Matching is case-insensitive substring over base-model strings and tags.
var knownFamilies = []string{
	"sd 1.5",
	"sd 2",
	"sd 3",
	"sdxl",
	"stable-diffusion",
	"stable diffusion",
	"flux",
	"pony",
}

// CompatRules is the deterministic rule set one platform applies to judge
// compatibility. Tables are static and immutable after construction.
type CompatRules struct {
	// SafeFormats are preferred container formats, always compatible.
	SafeFormats map[string]bool
	// PickleFormats are legacy serialized formats, compatible only for
	// PickleAllowedTypes.
	PickleFormats map[string]bool
	// PickleAllowedTypes restricts which model types may use pickle formats.
	PickleAllowedTypes map[catalog.ModelType]bool
	// IntegrationSteps lists manual post-download steps per model type.
	IntegrationSteps map[catalog.ModelType][]string
	// DefaultCompatible is the platform-specific fallback judgement.
	DefaultCompatible bool
}

// Evaluate computes the compatibility judgement for one parsed model.
// The rules, in order: unknown type is never compatible; a safe format is
// compatible; a pickle format is compatible only for the restricted type
// subset; a known diffusion family in the base-model string or tags is
// compatible; otherwise the platform default applies.
func (r CompatRules) Evaluate(modelType catalog.ModelType, format, baseModel string, tags []string) catalog.Compatibility {
	var notes []string
	compatible := r.DefaultCompatible

	format = strings.ToLower(strings.TrimPrefix(format, "."))

	switch {
	case modelType == catalog.TypeUnknown:
		compatible = false
		notes = append(notes, noteUnsupportedType)

	case r.SafeFormats[format]:
		compatible = true

	case r.PickleFormats[format]:
		compatible = r.PickleAllowedTypes[modelType]
		notes = append(notes, noteLegacyFormat)

	case matchesKnownFamily(baseModel, tags):
		compatible = true
	}

	if compatible && requiresFamilyWorkflow(baseModel) {
		notes = append(notes, noteFamilyWorkflow)
	}

	compat := catalog.Compatibility{
		IsCompatible: compatible,
		Notes:        strings.Join(notes, "; "),
	}
	if compatible {
		compat.TargetFolder = modelType.Folder()
		compat.RequiredIntegrationSteps = append([]string(nil), r.IntegrationSteps[modelType]...)
	}
	return compat
}

// matchesKnownFamily reports whether the base-model string or any tag names a
// recognized diffusion family.
func matchesKnownFamily(baseModel string, tags []string) bool {
	candidates := make([]string, 0, len(tags)+1)
	if baseModel != "" {
		candidates = append(candidates, baseModel)
	}
	candidates = append(candidates, tags...)

	for _, candidate := range candidates {
		lower := strings.ToLower(candidate)
		for _, family := range knownFamilies {
			if strings.Contains(lower, family) {
				return true
			}
		}
	}
	return false
}

// requiresFamilyWorkflow reports whether the base family needs a dedicated
// workflow on the execution side (SDXL and Flux pipelines differ from SD 1.x).
func requiresFamilyWorkflow(baseModel string) bool {
	lower := strings.ToLower(baseModel)
	return strings.Contains(lower, "sdxl") || strings.Contains(lower, "flux")
}
