// Copyright 2026 The modelscout Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package huggingface

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/traylinx/modelscout/internal/catalog"
	"github.com/traylinx/modelscout/internal/constant"
	"github.com/traylinx/modelscout/internal/platform"
)

// typeTable translates Hugging Face tag and pipeline strings into the
// canonical enum. Anything unmapped resolves to unknown. Tags are checked in
// payload order after the pipeline tag.
var typeTable = map[string]catalog.ModelType{
	"text-to-image":     catalog.TypeCheckpoint,
	"image-to-image":    catalog.TypeCheckpoint,
	"stable-diffusion":  catalog.TypeCheckpoint,
	"lora":              catalog.TypeLoRA,
	"vae":               catalog.TypeVAE,
	"textual-inversion": catalog.TypeEmbedding,
	"textual_inversion": catalog.TypeEmbedding,
	"embedding":         catalog.TypeEmbedding,
	"controlnet":        catalog.TypeControlNet,
	"image-upscaling":   catalog.TypeUpscaler,
	"super-resolution":  catalog.TypeUpscaler,
}

// compatRules is the Hugging Face rule set. The registry is general-purpose,
// so the platform default is incompatible; diffusion-family markers rescue.
var compatRules = platform.CompatRules{
	SafeFormats:   map[string]bool{"safetensors": true},
	PickleFormats: map[string]bool{"ckpt": true, "pt": true, "bin": true},
	PickleAllowedTypes: map[catalog.ModelType]bool{
		catalog.TypeCheckpoint: true,
		catalog.TypeVAE:        true,
		catalog.TypeEmbedding:  true,
	},
	IntegrationSteps: map[catalog.ModelType][]string{
		catalog.TypeCheckpoint: {"convert diffusers-format repositories to a single checkpoint before use"},
		catalog.TypeLoRA:       {"add a LoRA loader node and select the file"},
	},
	DefaultCompatible: false,
}

// parseModelList decodes an /api/models response array. A malformed item is
// logged and skipped; it never aborts the rest of the page.
func parseModelList(body []byte) []*catalog.ExternalModel {
	items := gjson.ParseBytes(body)
	if !items.IsArray() {
		log.WithField("platform", constant.HuggingFace).Warn("Model list payload is not an array")
		return nil
	}

	var models []*catalog.ExternalModel
	items.ForEach(func(_, item gjson.Result) bool {
		model, err := canonical(item)
		if err != nil {
			log.WithError(err).WithField("platform", constant.HuggingFace).Warn("Skipping malformed model item")
			return true
		}
		models = append(models, model)
		return true
	})
	return models
}

// parseModel decodes a single /api/models/{id} response.
func parseModel(body []byte) (*catalog.ExternalModel, error) {
	return canonical(gjson.ParseBytes(body))
}

// canonical normalizes one native item into the canonical record. The hub
// payload is loosely shaped, so optional fields are read defensively.
func canonical(item gjson.Result) (*catalog.ExternalModel, error) {
	repoID := item.Get("id").String()
	if repoID == "" {
		repoID = item.Get("modelId").String()
	}
	if repoID == "" {
		return nil, fmt.Errorf("model item missing repo id")
	}

	author := item.Get("author").String()
	name := repoID
	if idx := strings.Index(repoID, "/"); idx >= 0 {
		if author == "" {
			author = repoID[:idx]
		}
		name = repoID[idx+1:]
	}
	if author == "" {
		author = "unknown"
	}

	pipeline := item.Get("pipeline_tag").String()
	var tags []string
	item.Get("tags").ForEach(func(_, tag gjson.Result) bool {
		if s := tag.String(); s != "" {
			tags = append(tags, s)
		}
		return true
	})

	modelType := inferType(pipeline, tags)
	baseModel := baseModelOf(tags)

	files := siblingFiles(item)
	format := preferredFormat(files)
	var fileSize *int64
	if total := totalSize(files); total > 0 {
		fileSize = &total
	}

	downloads := item.Get("downloads").Int()
	if downloads < 0 {
		downloads = 0
	}

	created := parseTime(item.Get("createdAt").String())
	updated := parseTime(item.Get("lastModified").String())
	if updated.IsZero() {
		updated = created
	}

	description := item.Get("cardData.description").String()
	if description == "" {
		description = describeModel(name, pipeline, item.Get("library_name").String())
	}

	model := &catalog.ExternalModel{
		ID:            fmt.Sprintf("%s:%s", constant.HuggingFace, repoID),
		Name:          name,
		Description:   description,
		Author:        author,
		Platform:      constant.HuggingFace,
		Tags:          tags,
		DownloadCount: downloads,
		// The hub has no star-style rating; the likes count stays in raw
		// metadata instead.
		Rating:       nil,
		CreatedAt:    created,
		UpdatedAt:    updated,
		InferredType: modelType,
		BaseModel:    baseModel,
		FileFormat:   format,
		FileSize:     fileSize,
		PageURL:      fmt.Sprintf("https://huggingface.co/%s", repoID),
		RawMetadata: map[string]any{
			"repo_id":      repoID,
			"likes":        item.Get("likes").Int(),
			"library_name": item.Get("library_name").String(),
			"pipeline_tag": pipeline,
			"private":      item.Get("private").Bool(),
			"gated":        item.Get("gated").Bool(),
		},
	}
	if weight := primaryWeightFile(files); weight != "" {
		model.DownloadURL = fmt.Sprintf("https://huggingface.co/%s/resolve/main/%s", repoID, weight)
	}
	model.Compatibility = compatRules.Evaluate(modelType, format, baseModel, tags)
	return model, nil
}

// inferType resolves the canonical type from the pipeline tag first, then the
// tags in payload order.
func inferType(pipeline string, tags []string) catalog.ModelType {
	if t, ok := typeTable[strings.ToLower(pipeline)]; ok {
		// A lora/controlnet tag refines a generic image pipeline.
		for _, tag := range tags {
			switch typeTable[strings.ToLower(tag)] {
			case catalog.TypeLoRA:
				return catalog.TypeLoRA
			case catalog.TypeControlNet:
				return catalog.TypeControlNet
			}
		}
		return t
	}
	for _, tag := range tags {
		if t, ok := typeTable[strings.ToLower(tag)]; ok {
			return t
		}
	}
	return catalog.TypeUnknown
}

// baseModelOf extracts a diffusion-family marker from the tags, if any.
func baseModelOf(tags []string) string {
	for _, tag := range tags {
		lower := strings.ToLower(tag)
		switch {
		case strings.Contains(lower, "sdxl"):
			return "SDXL"
		case strings.Contains(lower, "stable-diffusion-xl"):
			return "SDXL"
		case strings.Contains(lower, "stable-diffusion"):
			return "Stable Diffusion"
		case strings.Contains(lower, "flux"):
			return "Flux"
		}
	}
	return ""
}

type siblingFile struct {
	name string
	size int64
}

// siblingFiles reads the repo file listing. Sizes are optional upstream.
func siblingFiles(item gjson.Result) []siblingFile {
	var files []siblingFile
	item.Get("siblings").ForEach(func(_, sibling gjson.Result) bool {
		name := sibling.Get("rfilename").String()
		if name == "" {
			return true
		}
		files = append(files, siblingFile{name: name, size: sibling.Get("size").Int()})
		return true
	})
	return files
}

// weightExtensions are the container formats counted as model weights.
var weightExtensions = map[string]bool{
	"safetensors": true,
	"ckpt":        true,
	"pt":          true,
	"bin":         true,
}

// preferredFormat picks safetensors when any weight file uses it, otherwise
// the first weight file's extension.
func preferredFormat(files []siblingFile) string {
	first := ""
	for _, f := range files {
		ext := strings.TrimPrefix(filepath.Ext(f.name), ".")
		if !weightExtensions[ext] {
			continue
		}
		if ext == "safetensors" {
			return ext
		}
		if first == "" {
			first = ext
		}
	}
	return first
}

// primaryWeightFile returns the filename backing the download URL, preferring
// safetensors.
func primaryWeightFile(files []siblingFile) string {
	first := ""
	for _, f := range files {
		ext := strings.TrimPrefix(filepath.Ext(f.name), ".")
		if !weightExtensions[ext] {
			continue
		}
		if ext == "safetensors" {
			return f.name
		}
		if first == "" {
			first = f.name
		}
	}
	return first
}

// totalSize sums sizes across all listed files; the hub is a multi-file
// platform so the canonical size covers the whole repository.
func totalSize(files []siblingFile) int64 {
	var total int64
	for _, f := range files {
		if f.size > 0 {
			total += f.size
		}
	}
	return total
}

// parseTime reads the hub's RFC3339 timestamps, tolerating fractional
// seconds. Unparseable values yield the Unix epoch so timestamps stay valid.
func parseTime(value string) time.Time {
	if value == "" {
		return time.Unix(0, 0).UTC()
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.000Z"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts
		}
	}
	return time.Unix(0, 0).UTC()
}

// describeModel builds a fallback description from the pipeline and library.
func describeModel(name, pipeline, library string) string {
	switch {
	case pipeline != "" && library != "":
		return fmt.Sprintf("%s model for %s (%s)", name, pipeline, library)
	case pipeline != "":
		return fmt.Sprintf("%s model for %s", name, pipeline)
	default:
		return name
	}
}
