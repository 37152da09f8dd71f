package parser

import (
	"fmt"
	"strconv"
	"time"

	"marksheet/internal/domain"
)

// ModelUnavailableError reports a transport, auth, quota or API failure from a
// model provider. It is distinct from a successful call whose output is not JSON.
type ModelUnavailableError struct {
	Err        error
	Provider   string
	StatusCode int
}

func (e *ModelUnavailableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s unavailable (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s unavailable: %v", e.Provider, e.Err)
}

func (e *ModelUnavailableError) Unwrap() error {
	return e.Err
}

// Is reports whether target is domain.ErrModelUnavailable.
func (e *ModelUnavailableError) Is(target error) bool {
	return target == domain.ErrModelUnavailable
}

// NewModelUnavailableError creates a ModelUnavailableError. statusCode is 0 for transport errors.
func NewModelUnavailableError(provider string, statusCode int, err error) *ModelUnavailableError {
	return &ModelUnavailableError{Err: err, Provider: provider, StatusCode: statusCode}
}

// RateLimitError indicates a model provider returned HTTP 429.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
	Provider   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// Is reports whether target is domain.ErrModelUnavailable; a quota rejection is
// one kind of unavailability.
func (e *RateLimitError) Is(target error) bool {
	return target == domain.ErrModelUnavailable
}

// NewRateLimitError creates a RateLimitError. If retryAfterSecs is 0, defaults to 60s.
func NewRateLimitError(provider string, err error, retryAfterSecs int) *RateLimitError {
	if retryAfterSecs <= 0 {
		retryAfterSecs = 60
	}
	return &RateLimitError{
		Err:        err,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
		Provider:   provider,
	}
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return secs
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
