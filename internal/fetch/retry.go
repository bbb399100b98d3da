// SurviveBase - Survival Crafting Game Catalog
// Copyright 2026 Jiwoo Kim (jwkim-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwkim-dev/survivebase

// Package fetch provides the shared acquisition primitives for upstream API
// clients: retry with exponential backoff, a global FIFO rate gate, and a
// bounded worker pool with order-preserving results and per-task fault
// isolation.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jwkim-dev/survivebase/internal/logging"
	"github.com/jwkim-dev/survivebase/internal/metrics"
)

// ErrRateLimited signals an upstream HTTP 429. It is always retryable and
// must be raised before any generic status check so it is not collapsed into
// a plain status error.
var ErrRateLimited = errors.New("rate limited")

// StatusError is a non-2xx upstream response. 5xx responses are retryable,
// 4xx responses are not.
type StatusError struct {
	Source     string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error: status %d", e.Source, e.StatusCode)
}

// IsRetryable reports whether an error is transient: an explicit rate-limit
// signal, a 5xx upstream status, or a network-level failure. Everything else
// (4xx, malformed payloads, cancellation) fails immediately.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// RetryOptions configures WithRetry.
type RetryOptions struct {
	// MaxRetries is the number of additional attempts after the first failure.
	MaxRetries int

	// InitialDelay is the backoff before the first retry; each subsequent
	// retry doubles it.
	InitialDelay time.Duration

	// Source labels retry log lines and metrics ("steamspy", "steamstore").
	Source string
}

// DefaultRetryOptions returns the production retry configuration.
func DefaultRetryOptions(source string) RetryOptions {
	return RetryOptions{
		MaxRetries:   3,
		InitialDelay: time.Second,
		Source:       source,
	}
}

// WithRetry executes fn, retrying transient failures with pure exponential
// backoff (InitialDelay * 2^attempt, no jitter). Non-retryable errors
// propagate on first occurrence. After exhausting retries the last observed
// error is returned. The context cancels backoff waits.
func WithRetry[T any](ctx context.Context, opts RetryOptions, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == opts.MaxRetries {
			break
		}
		if !IsRetryable(err) {
			return zero, err
		}

		delay := opts.InitialDelay * (1 << attempt)
		metrics.FetchRetries.WithLabelValues(opts.Source).Inc()
		logging.Warn().Err(err).Str("source", opts.Source).Int("attempt", attempt+1).Int("max_retries", opts.MaxRetries).Dur("delay", delay).Msg("Retrying upstream request")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	return zero, lastErr
}
