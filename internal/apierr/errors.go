// Copyright 2026 The modelscout Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package apierr defines the typed error taxonomy exposed by the aggregation
// subsystem. Exactly three kinds cross the module boundary: ValidationError,
// NotFoundError, and ExternalAPIError with its two subtypes RateLimitError
// and PlatformUnavailableError. The HTTP layer maps these to status codes.
package apierr

import (
	"errors"
	"fmt"
	"time"
)

// ValidationError reports caller-supplied input that violates an operation's
// contract. It is never retried and propagates immediately.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// NewValidation creates a ValidationError for the given field.
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports an absent entity or platform.
type NotFoundError struct {
	EntityType string
	Identifier string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.EntityType, e.Identifier)
}

// NewNotFound creates a NotFoundError for the given entity and identifier.
func NewNotFound(entityType, identifier string) *NotFoundError {
	return &NotFoundError{EntityType: entityType, Identifier: identifier}
}

// ExternalAPIError reports a generic upstream failure. It carries the
// platform that failed and, when known, the upstream HTTP status code.
type ExternalAPIError struct {
	Platform   string
	StatusCode int
	Message    string
	Err        error
}

func (e *ExternalAPIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s API error (status %d): %s", e.Platform, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s API error: %s", e.Platform, e.Message)
}

// Unwrap returns the underlying error, if any.
func (e *ExternalAPIError) Unwrap() error { return e.Err }

// NewExternal creates an ExternalAPIError for the given platform.
func NewExternal(platform string, statusCode int, message string, err error) *ExternalAPIError {
	return &ExternalAPIError{Platform: platform, StatusCode: statusCode, Message: message, Err: err}
}

// RateLimitError is the ExternalAPIError subtype raised when an upstream
// responds 429. RetryAfter carries the upstream hint; callers decide whether
// to honor it, the client never sleeps for the full hint itself.
type RateLimitError struct {
	ExternalAPIError
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s rate limited, retry after %s", e.Platform, e.RetryAfter)
	}
	return fmt.Sprintf("%s rate limited", e.Platform)
}

// Unwrap exposes the embedded ExternalAPIError so errors.As matches both the
// subtype and the generic kind.
func (e *RateLimitError) Unwrap() error { return &e.ExternalAPIError }

// NewRateLimit creates a RateLimitError with the upstream retry-after hint.
func NewRateLimit(platform string, retryAfter time.Duration) *RateLimitError {
	return &RateLimitError{
		ExternalAPIError: ExternalAPIError{Platform: platform, StatusCode: 429, Message: "rate limit exceeded"},
		RetryAfter:       retryAfter,
	}
}

// PlatformUnavailableError is the ExternalAPIError subtype raised once an
// upstream is judged down: every retry attempt ended in a 5xx or a
// network-level failure.
type PlatformUnavailableError struct {
	ExternalAPIError
	Attempts int
}

func (e *PlatformUnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable after %d attempts: %s", e.Platform, e.Attempts, e.Message)
}

// Unwrap exposes the embedded ExternalAPIError so errors.As matches both the
// subtype and the generic kind.
func (e *PlatformUnavailableError) Unwrap() error { return &e.ExternalAPIError }

// NewUnavailable creates a PlatformUnavailableError after attempts retries.
func NewUnavailable(platform string, attempts int, message string, err error) *PlatformUnavailableError {
	return &PlatformUnavailableError{
		ExternalAPIError: ExternalAPIError{Platform: platform, Message: message, Err: err},
		Attempts:         attempts,
	}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsExternal reports whether err is an ExternalAPIError or one of its
// subtypes.
func IsExternal(err error) bool {
	var target *ExternalAPIError
	return errors.As(err, &target)
}

// IsRateLimit reports whether err is a RateLimitError.
func IsRateLimit(err error) bool {
	var target *RateLimitError
	return errors.As(err, &target)
}

// IsUnavailable reports whether err is a PlatformUnavailableError.
func IsUnavailable(err error) bool {
	var target *PlatformUnavailableError
	return errors.As(err, &target)
}

// IsPlatformFailure reports whether err is any upstream failure that a
// multi-platform fan-out should swallow: rate limiting, unavailability, or a
// generic API error. Validation and not-found errors are never swallowed.
func IsPlatformFailure(err error) bool {
	return IsExternal(err)
}
