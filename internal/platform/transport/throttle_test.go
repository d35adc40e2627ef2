// Copyright 2026 The modelscout Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottle_EnforcesSpacing(t *testing.T) {
	throttle := NewThrottle(50 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, throttle.Wait(ctx))
	require.NoError(t, throttle.Wait(ctx))
	require.NoError(t, throttle.Wait(ctx))
	elapsed := time.Since(start)

	// Two enforced gaps between three consecutive calls.
	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
}

func TestThrottle_FirstCallDoesNotBlock(t *testing.T) {
	throttle := NewThrottle(time.Second)

	start := time.Now()
	require.NoError(t, throttle.Wait(context.Background()))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestThrottle_ZeroSpacingDisabled(t *testing.T) {
	throttle := NewThrottle(0)

	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, throttle.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestThrottle_ContextCancellation(t *testing.T) {
	throttle := NewThrottle(5 * time.Second)
	require.NoError(t, throttle.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := throttle.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
