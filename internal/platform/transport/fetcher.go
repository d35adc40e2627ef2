// Copyright 2026 The modelscout Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/traylinx/modelscout/internal/apierr"
)

// ErrNotFound is returned for upstream 404 responses. A missing resource is
// not a failure; clients translate it to an absent result.
var ErrNotFound = errors.New("resource not found upstream")

// DefaultRetryAfter is the hint used when a 429 response carries no
// Retry-After header.
const DefaultRetryAfter = 60 * time.Second

// Options configures a Fetcher. Zero values fall back to defaults.
type Options struct {
	// Platform identifies the owning catalog in errors and logs.
	Platform string
	// MinRequestSpacing is the enforced delay between consecutive calls.
	MinRequestSpacing time.Duration
	// Timeout is the per-call deadline.
	Timeout time.Duration
	// MaxRetries is the total attempt count for transient failures.
	MaxRetries int
	// BackoffBase is the unit for exponential backoff (base << attempt).
	// Tests shrink it; production keeps the one-second default.
	BackoffBase time.Duration
	// UserAgent overrides the default request User-Agent.
	UserAgent string
	// Headers are applied to every request (e.g., Authorization).
	Headers map[string]string
}

// Fetcher performs rate-limited, retried GET requests against one platform
// and maps response statuses onto the typed error taxonomy:
//
//	5xx / network failure -> retried, then PlatformUnavailableError
//	429                   -> RateLimitError with the upstream retry-after hint
//	404                   -> ErrNotFound
//	other 4xx             -> ExternalAPIError with the status code
type Fetcher struct {
	client   *http.Client
	throttle *Throttle
	opts     Options
}

// NewFetcher creates a fetcher for one platform.
func NewFetcher(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "modelscout/1.0 (external-model-discovery)"
	}
	return &Fetcher{
		client:   &http.Client{Timeout: opts.Timeout},
		throttle: NewThrottle(opts.MinRequestSpacing),
		opts:     opts,
	}
}

// Throttle exposes the fetcher's rate limiter.
func (f *Fetcher) Throttle() *Throttle {
	return f.throttle
}

// Options returns the fetcher's configuration snapshot.
func (f *Fetcher) Options() Options {
	return f.opts
}

// Get performs a rate-limited GET with retry/backoff and returns the response
// body. Retries apply only to 5xx and network-level failures; 4xx responses
// fail immediately.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < f.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := f.opts.BackoffBase << attempt
			log.WithField("platform", f.opts.Platform).
				WithField("attempt", attempt+1).
				WithField("delay", delay).
				Debug("Retrying upstream request after backoff")
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		if err := f.throttle.Wait(ctx); err != nil {
			return nil, err
		}

		body, retryable, err := f.do(ctx, url)
		if err == nil {
			return body, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
		log.WithError(err).
			WithField("platform", f.opts.Platform).
			WithField("attempt", attempt+1).
			Warn("Upstream request failed")
	}

	return nil, apierr.NewUnavailable(f.opts.Platform, f.opts.MaxRetries, "upstream judged down after retries", lastErr)
}

// do issues a single request. The bool result reports whether the failure is
// transient and worth retrying.
func (f *Fetcher) do(ctx context.Context, url string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	for k, v := range f.opts.Headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		// Network-level failures follow the same backoff as 5xx, unless the
		// caller's context already ended.
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, true, fmt.Errorf("failed to read response body: %w", readErr)
		}
		return body, false, nil

	case resp.StatusCode == http.StatusNotFound:
		return nil, false, ErrNotFound

	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, false, apierr.NewRateLimit(f.opts.Platform, parseRetryAfter(resp.Header.Get("Retry-After")))

	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("server returned status %d", resp.StatusCode)

	default:
		return nil, false, apierr.NewExternal(f.opts.Platform, resp.StatusCode,
			fmt.Sprintf("unexpected status %s", resp.Status), nil)
	}
}

// parseRetryAfter reads a Retry-After header given in seconds, falling back
// to DefaultRetryAfter.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return DefaultRetryAfter
	}
	if secs, err := strconv.Atoi(header); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return DefaultRetryAfter
}
