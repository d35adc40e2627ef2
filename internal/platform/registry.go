// Copyright 2026 The modelscout Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package platform

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/traylinx/modelscout/internal/catalog"
)

// Registry holds exactly one Client per supported platform. Iteration order
// is registration order, which keeps merge order deterministic across calls.
// The registry never reports an error for an unknown platform; that is the
// caller's responsibility.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]Client
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]Client)}
}

// Register adds a client, replacing any previous client for the same
// platform. Replacement keeps the platform's original position.
func (r *Registry) Register(client Client) {
	if client == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	id := client.ID()
	if _, exists := r.clients[id]; !exists {
		r.order = append(r.order, id)
	}
	r.clients[id] = client
	log.Debugf("Registered platform client %s", id)
}

// Resolve returns the client for the given platform, or false if unknown.
func (r *Registry) Resolve(platform string) (Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[platform]
	return client, ok
}

// Platforms returns the registered platform identifiers in registration order.
func (r *Registry) Platforms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Clients returns the registered clients in registration order.
func (r *Registry) Clients() []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clients := make([]Client, 0, len(r.order))
	for _, id := range r.order {
		clients = append(clients, r.clients[id])
	}
	return clients
}

// CapabilitiesFor returns the capability snapshot for the given platform.
// Unknown platforms yield a zero-value snapshot, not an error.
func (r *Registry) CapabilitiesFor(platform string) catalog.Capabilities {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if client, ok := r.clients[platform]; ok {
		return client.Capabilities()
	}
	return catalog.Capabilities{}
}

// AllCapabilities returns every platform's capability snapshot keyed by
// platform identifier.
func (r *Registry) AllCapabilities() map[string]catalog.Capabilities {
	r.mu.RLock()
	defer r.mu.RUnlock()
	caps := make(map[string]catalog.Capabilities, len(r.clients))
	for id, client := range r.clients {
		caps[id] = client.Capabilities()
	}
	return caps
}
