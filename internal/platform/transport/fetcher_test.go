// Copyright 2026 The modelscout Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traylinx/modelscout/internal/apierr"
)

func newTestFetcher(t *testing.T) *Fetcher {
	t.Helper()
	return NewFetcher(Options{
		Platform:    "civitai",
		MaxRetries:  3,
		BackoffBase: time.Millisecond,
	})
}

func TestFetcher_RetriesServerErrorsThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	body, err := newTestFetcher(t).Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetcher_UnavailableAfterRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestFetcher(t).Get(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, apierr.IsUnavailable(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetcher_RateLimitNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestFetcher(t).Get(context.Background(), server.URL)
	require.Error(t, err)
	require.True(t, apierr.IsRateLimit(err))

	var rateLimit *apierr.RateLimitError
	require.ErrorAs(t, err, &rateLimit)
	assert.Equal(t, 7*time.Second, rateLimit.RetryAfter)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetcher_RateLimitDefaultHint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestFetcher(t).Get(context.Background(), server.URL)
	var rateLimit *apierr.RateLimitError
	require.ErrorAs(t, err, &rateLimit)
	assert.Equal(t, DefaultRetryAfter, rateLimit.RetryAfter)
}

func TestFetcher_NotFoundIsSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestFetcher(t).Get(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, apierr.IsExternal(err))
}

func TestFetcher_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newTestFetcher(t).Get(context.Background(), server.URL)
	require.Error(t, err)

	var external *apierr.ExternalAPIError
	require.ErrorAs(t, err, &external)
	assert.Equal(t, http.StatusForbidden, external.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetcher_SetsUserAgentAndHeaders(t *testing.T) {
	var gotUA, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	fetcher := NewFetcher(Options{
		Platform:    "huggingface",
		BackoffBase: time.Millisecond,
		Headers:     map[string]string{"Authorization": "Bearer token-123"},
	})
	_, err := fetcher.Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, gotUA, "modelscout")
	assert.Equal(t, "Bearer token-123", gotAuth)
}
