// Copyright 2026 The modelscout Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package main provides the modelscout command line entry point. It wires
// the configured platform clients into the aggregation service and runs one
// discovery operation per invocation, printing the flat response JSON that
// the HTTP layer would otherwise serve.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/traylinx/modelscout/internal/aggregate"
	"github.com/traylinx/modelscout/internal/cache"
	"github.com/traylinx/modelscout/internal/catalog"
	"github.com/traylinx/modelscout/internal/config"
	"github.com/traylinx/modelscout/internal/constant"
	"github.com/traylinx/modelscout/internal/logging"
	"github.com/traylinx/modelscout/internal/platform"
	"github.com/traylinx/modelscout/internal/platform/civitai"
	"github.com/traylinx/modelscout/internal/platform/huggingface"
)

var (
	Version   = "dev"
	BuildDate = "unknown"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to the YAML configuration file")
		platformID = flag.String("platform", "", "restrict the call to one platform (civitai, huggingface)")
		query      = flag.String("query", "", "search query")
		modelType  = flag.String("type", "", "model type filter (checkpoint, lora, vae, embedding, controlnet, upscaler)")
		limit      = flag.Int("limit", 20, "page size, 1-100")
		offset     = flag.Int("offset", 0, "page offset")
		popular    = flag.Bool("popular", false, "list most downloaded models")
		recent     = flag.Bool("recent", false, "list most recently updated models")
		compatible = flag.Bool("compatible", false, "only return compatible models")
		details    = flag.String("details", "", "fetch one model by platform-native id (requires -platform)")
		check      = flag.String("check", "", "check availability of one model id (requires -platform)")
		timeout    = flag.Duration("timeout", 2*time.Minute, "overall call deadline")
		version    = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *version {
		fmt.Printf("modelscout %s (built %s)\n", Version, BuildDate)
		return
	}

	// Environment variables referenced by the config (API keys) may live in
	// a local .env file.
	_ = godotenv.Load()

	cfg := config.Default()
	if loaded, err := config.Load(*configPath); err == nil {
		cfg = loaded
	} else if !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).Warn("Falling back to default configuration")
	}

	logging.SetupBaseLogger()
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	if err := logging.ConfigureLogOutput(cfg.LoggingToFile, cfg.LogsMaxTotalSizeMB); err != nil {
		log.WithError(err).Fatal("Failed to configure log output")
	}

	service := buildService(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	filters := catalog.SearchFilters{CompatibleOnly: *compatible}
	if *modelType != "" {
		filters.Types = []catalog.ModelType{catalog.ModelType(*modelType)}
	}

	switch {
	case *details != "":
		requirePlatform(*platformID, "-details")
		model, err := service.GetDetails(ctx, *platformID, *details)
		exitOnError(err)
		printJSON(model.Response())

	case *check != "":
		requirePlatform(*platformID, "-check")
		printJSON(map[string]bool{"available": service.CheckAvailability(ctx, *platformID, *check)})

	case *popular:
		result, err := service.GetPopular(ctx, *platformID, *limit, singleType(filters))
		exitOnError(err)
		printPage(result)

	case *recent:
		result, err := service.GetRecent(ctx, *platformID, *limit, singleType(filters))
		exitOnError(err)
		printPage(result)

	default:
		result, err := service.Search(ctx, *platformID, *query, *limit, *offset, filters)
		exitOnError(err)
		printPage(result)
	}
}

// buildService registers one client per enabled platform and wires the
// detail-lookup cache in front of the aggregation service.
func buildService(cfg *config.Config) *aggregate.Service {
	registry := platform.NewRegistry()

	if p := cfg.Platform(constant.CivitAI); p.Enabled {
		registry.Register(civitai.New(civitai.Config{
			BaseURL:           p.BaseURL,
			APIKey:            p.APIKey,
			MinRequestSpacing: p.MinRequestSpacing(),
			Timeout:           p.Timeout(),
			MaxRetries:        p.MaxRetries,
		}))
	}
	if p := cfg.Platform(constant.HuggingFace); p.Enabled {
		registry.Register(huggingface.New(huggingface.Config{
			BaseURL:           p.BaseURL,
			APIKey:            p.APIKey,
			MinRequestSpacing: p.MinRequestSpacing(),
			Timeout:           p.Timeout(),
			MaxRetries:        p.MaxRetries,
		}))
	}

	opts := []aggregate.Option{}
	if store, err := cache.New(cfg.CacheDir); err == nil {
		opts = append(opts, aggregate.WithMetadataStore(store))
	} else {
		log.WithError(err).Warn("Detail cache disabled")
	}
	return aggregate.NewService(registry, opts...)
}

func singleType(filters catalog.SearchFilters) catalog.ModelType {
	if len(filters.Types) == 1 {
		return filters.Types[0]
	}
	return ""
}

func requirePlatform(platformID, operation string) {
	if platformID == "" {
		fmt.Fprintf(os.Stderr, "%s requires -platform\n", operation)
		os.Exit(2)
	}
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// printPage serializes a page of results into the downstream wire shape.
func printPage(result *catalog.PageResult) {
	type page struct {
		Models            []catalog.ModelResponse `json:"models"`
		Total             int                     `json:"total"`
		HasMore           bool                    `json:"has_more"`
		NextOffset        *int                    `json:"next_offset,omitempty"`
		PlatformsSearched []string                `json:"platforms_searched"`
	}
	out := page{
		Models:            make([]catalog.ModelResponse, 0, len(result.Models)),
		Total:             result.Total,
		HasMore:           result.HasMore,
		NextOffset:        result.NextOffset,
		PlatformsSearched: result.PlatformsSearched,
	}
	for _, m := range result.Models {
		out.Models = append(out.Models, m.Response())
	}
	printJSON(out)
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
