// Copyright 2026 The modelscout Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config provides configuration management for modelscout. It
// handles loading and parsing the YAML configuration file and provides
// structured access to per-platform request pacing, retry, and timeout
// settings. All values are read-only once loaded.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/traylinx/modelscout/internal/constant"
)

// PlatformConfig carries one platform client's settings.
type PlatformConfig struct {
	// Enabled controls whether the platform is registered at startup.
	Enabled bool `yaml:"enabled"`
	// BaseURL overrides the platform's production API host, mainly for tests.
	BaseURL string `yaml:"base-url"`
	// APIKey is the bearer token, if the platform needs one. Values of the
	// form ${NAME} are expanded from the environment.
	APIKey string `yaml:"api-key"`
	// MinRequestSpacingMS is the enforced delay between consecutive calls.
	MinRequestSpacingMS int `yaml:"min-request-spacing-ms"`
	// MaxRetries is the attempt count for transient upstream failures.
	MaxRetries int `yaml:"max-retries"`
	// TimeoutSeconds is the per-call deadline.
	TimeoutSeconds int `yaml:"timeout-seconds"`
}

// MinRequestSpacing returns the spacing as a duration.
func (p PlatformConfig) MinRequestSpacing() time.Duration {
	return time.Duration(p.MinRequestSpacingMS) * time.Millisecond
}

// Timeout returns the per-call deadline as a duration.
func (p PlatformConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// Config represents the application's configuration, loaded from a YAML file.
type Config struct {
	// Debug enables debug-level logging.
	Debug bool `yaml:"debug"`
	// LoggingToFile controls whether logs go to rotating files or stdout.
	LoggingToFile bool `yaml:"logging-to-file"`
	// LogsMaxTotalSizeMB limits the rotating log file size. 0 disables.
	LogsMaxTotalSizeMB int `yaml:"logs-max-total-size-mb"`
	// CacheDir is where detail-lookup cache entries persist. Empty keeps the
	// cache memory-only.
	CacheDir string `yaml:"cache-dir"`
	// Platforms holds per-platform client settings keyed by identifier.
	Platforms map[string]PlatformConfig `yaml:"platforms"`
}

// Default returns the configuration used when no file is present: both
// platforms enabled, CivitAI paced at one request per second, Hugging Face
// at two per second.
func Default() *Config {
	return &Config{
		Platforms: map[string]PlatformConfig{
			constant.CivitAI: {
				Enabled:             true,
				MinRequestSpacingMS: 1000,
				MaxRetries:          3,
				TimeoutSeconds:      30,
			},
			constant.HuggingFace: {
				Enabled:             true,
				MinRequestSpacingMS: 500,
				MaxRetries:          3,
				TimeoutSeconds:      30,
			},
		},
	}
}

// Load reads and parses the YAML configuration at path, filling unset
// platform entries with defaults and expanding ${NAME} references in API
// keys from the environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults backfills zero values so a sparse file still yields a usable
// client configuration.
func (c *Config) applyDefaults() {
	defaults := Default().Platforms
	if c.Platforms == nil {
		c.Platforms = defaults
		return
	}
	for id, p := range c.Platforms {
		def, known := defaults[id]
		if p.MinRequestSpacingMS <= 0 {
			if known {
				p.MinRequestSpacingMS = def.MinRequestSpacingMS
			} else {
				p.MinRequestSpacingMS = 1000
			}
		}
		if p.MaxRetries <= 0 {
			p.MaxRetries = 3
		}
		if p.TimeoutSeconds <= 0 {
			p.TimeoutSeconds = 30
		}
		p.APIKey = os.ExpandEnv(p.APIKey)
		c.Platforms[id] = p
	}
}

// Platform returns the settings for one platform identifier, falling back to
// defaults for an unknown one.
func (c *Config) Platform(id string) PlatformConfig {
	if p, ok := c.Platforms[id]; ok {
		return p
	}
	if p, ok := Default().Platforms[id]; ok {
		return p
	}
	return PlatformConfig{MinRequestSpacingMS: 1000, MaxRetries: 3, TimeoutSeconds: 30}
}
