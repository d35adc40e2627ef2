// Copyright 2026 The modelscout Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package civitai

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"

	"github.com/traylinx/modelscout/internal/catalog"
	"github.com/traylinx/modelscout/internal/constant"
	"github.com/traylinx/modelscout/internal/platform"
)

// typeTable translates CivitAI's native type taxonomy into the canonical
// enum. Anything unmapped resolves to unknown.
var typeTable = map[string]catalog.ModelType{
	"Checkpoint":       catalog.TypeCheckpoint,
	"LORA":             catalog.TypeLoRA,
	"LoCon":            catalog.TypeLoRA,
	"DoRA":             catalog.TypeLoRA,
	"TextualInversion": catalog.TypeEmbedding,
	"VAE":              catalog.TypeVAE,
	"Controlnet":       catalog.TypeControlNet,
	"Upscaler":         catalog.TypeUpscaler,
}

// nativeByType is the preferred native string per canonical type, used to
// push type filters into the upstream query.
var nativeByType = map[catalog.ModelType]string{
	catalog.TypeCheckpoint: "Checkpoint",
	catalog.TypeLoRA:       "LORA",
	catalog.TypeEmbedding:  "TextualInversion",
	catalog.TypeVAE:        "VAE",
	catalog.TypeControlNet: "Controlnet",
	catalog.TypeUpscaler:   "Upscaler",
}

// compatRules is the CivitAI rule set. The hub is stable-diffusion centric,
// so the platform default is compatible.
var compatRules = platform.CompatRules{
	SafeFormats:   map[string]bool{"safetensors": true},
	PickleFormats: map[string]bool{"ckpt": true, "pt": true, "bin": true},
	PickleAllowedTypes: map[catalog.ModelType]bool{
		catalog.TypeCheckpoint: true,
		catalog.TypeVAE:        true,
		catalog.TypeEmbedding:  true,
	},
	IntegrationSteps: map[catalog.ModelType][]string{
		catalog.TypeEmbedding: {"reference the embedding by filename in the prompt"},
		catalog.TypeLoRA:      {"add a LoRA loader node and select the file"},
	},
	DefaultCompatible: true,
}

type apiListResponse struct {
	Items []json.RawMessage `json:"items"`
}

type apiModel struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	NSFW        bool   `json:"nsfw"`
	Creator     struct {
		Username string `json:"username"`
	} `json:"creator"`
	Tags  []string `json:"tags"`
	Stats struct {
		DownloadCount int64   `json:"downloadCount"`
		Rating        float64 `json:"rating"`
		RatingCount   int64   `json:"ratingCount"`
	} `json:"stats"`
	ModelVersions []apiVersion `json:"modelVersions"`
}

type apiVersion struct {
	ID          int64      `json:"id"`
	ModelID     int64      `json:"modelId"`
	Name        string     `json:"name"`
	BaseModel   string     `json:"baseModel"`
	CreatedAt   *time.Time `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt"`
	PublishedAt *time.Time `json:"publishedAt"`
	DownloadURL string     `json:"downloadUrl"`
	Files       []apiFile  `json:"files"`
	Images      []struct {
		URL string `json:"url"`
	} `json:"images"`
	Model *struct {
		Name string `json:"name"`
		Type string `json:"type"`
		NSFW bool   `json:"nsfw"`
	} `json:"model"`
}

type apiFile struct {
	Name        string  `json:"name"`
	SizeKB      float64 `json:"sizeKB"`
	Primary     bool    `json:"primary"`
	DownloadURL string  `json:"downloadUrl"`
	Metadata    struct {
		Format string `json:"format"`
	} `json:"metadata"`
}

// parseModelList decodes a /models response. A malformed item is logged and
// skipped; it never aborts the rest of the page.
func parseModelList(body []byte) ([]*catalog.ExternalModel, error) {
	var resp apiListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model list: %w", err)
	}

	models := make([]*catalog.ExternalModel, 0, len(resp.Items))
	for _, raw := range resp.Items {
		var item apiModel
		if err := json.Unmarshal(raw, &item); err != nil {
			log.WithError(err).WithField("platform", constant.CivitAI).Warn("Skipping malformed model item")
			continue
		}
		model, err := item.canonical()
		if err != nil {
			log.WithError(err).WithField("platform", constant.CivitAI).Warn("Skipping unusable model item")
			continue
		}
		models = append(models, model)
	}
	return models, nil
}

// parseModel decodes a single /models/{id} response.
func parseModel(body []byte) (*catalog.ExternalModel, error) {
	var item apiModel
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model: %w", err)
	}
	return item.canonical()
}

// parseVersionPayload decodes a model-versions/by-hash response into a
// canonical record keyed by the parent model id.
func parseVersionPayload(body []byte) (*catalog.ExternalModel, error) {
	var version apiVersion
	if err := json.Unmarshal(body, &version); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model version: %w", err)
	}
	if version.ModelID == 0 || version.Model == nil {
		return nil, fmt.Errorf("version payload missing parent model")
	}

	item := apiModel{
		ID:   version.ModelID,
		Name: version.Model.Name,
		Type: version.Model.Type,
		NSFW: version.Model.NSFW,
	}
	item.ModelVersions = []apiVersion{version}
	return item.canonical()
}

// canonical normalizes one native model into the canonical record.
func (item apiModel) canonical() (*catalog.ExternalModel, error) {
	if item.ID == 0 || item.Name == "" {
		return nil, fmt.Errorf("model item missing id or name")
	}

	modelType, ok := typeTable[item.Type]
	if !ok {
		modelType = catalog.TypeUnknown
	}

	var version apiVersion
	if len(item.ModelVersions) > 0 {
		version = item.ModelVersions[0]
	}
	file := selectFile(version.Files)
	format := fileFormat(file)

	author := item.Creator.Username
	if author == "" {
		author = "unknown"
	}
	description := strings.TrimSpace(stripHTML(item.Description))
	if description == "" {
		description = item.Name
	}

	tags := make([]string, 0, len(item.Tags))
	for _, tag := range item.Tags {
		if tag != "" {
			tags = append(tags, tag)
		}
	}

	downloads := item.Stats.DownloadCount
	if downloads < 0 {
		downloads = 0
	}
	var rating *float64
	if item.Stats.RatingCount > 0 {
		value := item.Stats.Rating
		if value < 0 {
			value = 0
		}
		if value > 5 {
			value = 5
		}
		rating = &value
	}

	created := timestampOf(version.CreatedAt, version.PublishedAt)
	updated := timestampOf(version.UpdatedAt, version.CreatedAt, version.PublishedAt)

	var fileSize *int64
	if file != nil && file.SizeKB > 0 {
		size := int64(file.SizeKB * 1024)
		fileSize = &size
	}
	downloadURL := version.DownloadURL
	if file != nil && file.DownloadURL != "" {
		downloadURL = file.DownloadURL
	}
	var thumbnail string
	if len(version.Images) > 0 {
		thumbnail = version.Images[0].URL
	}

	model := &catalog.ExternalModel{
		ID:            fmt.Sprintf("%s:%d", constant.CivitAI, item.ID),
		Name:          item.Name,
		Description:   description,
		Author:        author,
		Platform:      constant.CivitAI,
		ThumbnailURL:  thumbnail,
		Tags:          tags,
		DownloadCount: downloads,
		Rating:        rating,
		CreatedAt:     created,
		UpdatedAt:     updated,
		InferredType:  modelType,
		BaseModel:     version.BaseModel,
		FileFormat:    format,
		FileSize:      fileSize,
		DownloadURL:   downloadURL,
		PageURL:       fmt.Sprintf("https://civitai.com/models/%d", item.ID),
		RawMetadata: map[string]any{
			"civitai_id":   item.ID,
			"version_id":   version.ID,
			"version_name": version.Name,
			"native_type":  item.Type,
			"rating_count": item.Stats.RatingCount,
			"nsfw":         item.NSFW,
		},
	}
	model.Compatibility = compatRules.Evaluate(modelType, format, version.BaseModel, tags)
	return model, nil
}

// selectFile prefers the file flagged primary, otherwise the first file.
func selectFile(files []apiFile) *apiFile {
	for i := range files {
		if files[i].Primary {
			return &files[i]
		}
	}
	if len(files) > 0 {
		return &files[0]
	}
	return nil
}

// fileFormat normalizes CivitAI's format label, falling back to the file
// extension.
func fileFormat(file *apiFile) string {
	if file == nil {
		return ""
	}
	switch file.Metadata.Format {
	case "SafeTensor":
		return "safetensors"
	case "PickleTensor":
		return "ckpt"
	}
	ext := strings.TrimPrefix(filepath.Ext(file.Name), ".")
	return strings.ToLower(ext)
}

// timestampOf returns the first non-nil timestamp, or the zero-adjacent Unix
// epoch so both canonical timestamps stay valid instants.
func timestampOf(candidates ...*time.Time) time.Time {
	for _, ts := range candidates {
		if ts != nil && !ts.IsZero() {
			return *ts
		}
	}
	return time.Unix(0, 0).UTC()
}

// stripHTML removes the markup CivitAI embeds in description fields. It keeps
// the text content only.
func stripHTML(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
