// Copyright 2026 The modelscout Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package transport provides the shared HTTP primitives for platform
// clients: a minimum-spacing rate limiter and a retrying fetcher that
// translates upstream failures into the typed error taxonomy.
package transport

import (
	"context"
	"sync"
	"time"
)

// Throttle enforces a minimum delay between consecutive outbound calls to one
// platform. The last-request timestamp is owned by the throttle instance; its
// lifetime equals the owning client's, one per platform per process.
type Throttle struct {
	mu      sync.Mutex
	spacing time.Duration
	last    time.Time
}

// NewThrottle creates a throttle with the given minimum request spacing.
// A non-positive spacing disables throttling.
func NewThrottle(spacing time.Duration) *Throttle {
	return &Throttle{spacing: spacing}
}

// Wait blocks until the minimum spacing since the previous call has elapsed,
// then stamps now as the new last-call time. It returns early if the context
// is cancelled.
func (t *Throttle) Wait(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.spacing > 0 && !t.last.IsZero() {
		remaining := t.spacing - time.Since(t.last)
		if remaining > 0 {
			timer := time.NewTimer(remaining)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	t.last = time.Now()
	return nil
}

// Spacing returns the configured minimum request spacing.
func (t *Throttle) Spacing() time.Duration {
	return t.spacing
}
