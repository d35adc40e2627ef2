// Copyright 2026 The modelscout Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package cache provides the default key/value/TTL store that sits in front
// of per-item metadata lookups. Entries live in memory and, when a directory
// is configured, survive restarts on disk.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"

	"github.com/traylinx/modelscout/internal/catalog"
)

// Entry is one cached detail lookup.
type Entry struct {
	Key      string                 `json:"key"`
	StoredAt time.Time              `json:"stored_at"`
	TTL      time.Duration          `json:"ttl"`
	Model    *catalog.ExternalModel `json:"model"`
}

// Store is a TTL-bounded model cache.
type Store struct {
	dir string
	mu  sync.RWMutex
	mem map[string]*Entry
}

// New creates a store. With an empty dir the store is memory-only; otherwise
// entries are also persisted under dir, which is created if needed.
func New(dir string) (*Store, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}
	return &Store{dir: dir, mem: make(map[string]*Entry)}, nil
}

// Get returns the cached model for key, or false when absent or expired.
func (s *Store) Get(key string) (*catalog.ExternalModel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if entry, ok := s.mem[key]; ok {
		if !expired(entry) {
			return entry.Model, true
		}
	}

	entry := s.loadFromDisk(key)
	if entry == nil || expired(entry) {
		return nil, false
	}
	return entry.Model, true
}

// Set stores a model under key for ttl.
func (s *Store) Set(key string, model *catalog.ExternalModel, ttl time.Duration) {
	entry := &Entry{Key: key, StoredAt: time.Now(), TTL: ttl, Model: model}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mem[key] = entry

	if s.dir == "" {
		return
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		log.WithError(err).WithField("key", key).Warn("Failed to marshal cache entry")
		return
	}
	if err := os.WriteFile(s.filePath(key), data, 0644); err != nil {
		log.WithError(err).WithField("key", key).Warn("Failed to persist cache entry")
	}
}

// Clear removes the entry for key.
func (s *Store) Clear(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.mem, key)
	if s.dir == "" {
		return nil
	}
	if err := os.Remove(s.filePath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cache file: %w", err)
	}
	return nil
}

func expired(entry *Entry) bool {
	if entry.TTL <= 0 {
		return false
	}
	return time.Now().After(entry.StoredAt.Add(entry.TTL))
}

// filePath sanitizes the key into a filename; keys carry platform prefixes
// and repo ids with ':' and '/'.
func (s *Store) filePath(key string) string {
	safe := strings.NewReplacer(":", "_", "/", "_", "\\", "_").Replace(key)
	return filepath.Join(s.dir, safe+".json")
}

func (s *Store) loadFromDisk(key string) *Entry {
	if s.dir == "" {
		return nil
	}
	data, err := os.ReadFile(s.filePath(key))
	if err != nil {
		return nil
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		log.WithError(err).WithField("key", key).Warn("Failed to parse cache file")
		return nil
	}
	return &entry
}
