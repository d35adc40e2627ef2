// Copyright 2026 The modelscout Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package constant defines platform identifier constants used throughout
// modelscout. These constants identify the supported external model catalogs,
// ensuring consistent naming across the application.
package constant

const (
	// CivitAI represents the CivitAI community model hub identifier.
	CivitAI = "civitai"

	// HuggingFace represents the Hugging Face model registry identifier.
	HuggingFace = "huggingface"

	// MaxSearchLimit is the largest page size an aggregate call accepts.
	MaxSearchLimit = 100

	// MaxSuggestionLimit caps suggestion requests, which degrade to popularity.
	MaxSuggestionLimit = 50
)
