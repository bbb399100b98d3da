// SurviveBase - Survival Crafting Game Catalog
// Copyright 2026 Jiwoo Kim (jwkim-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwkim-dev/survivebase

package fetch

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited", ErrRateLimited, true},
		{"wrapped rate limited", errors.New("x: " + ErrRateLimited.Error()), false},
		{"status 500", &StatusError{Source: "steamspy", StatusCode: 500}, true},
		{"status 503", &StatusError{Source: "steamspy", StatusCode: 503}, true},
		{"status 404", &StatusError{Source: "steamstore", StatusCode: 404}, false},
		{"status 400", &StatusError{Source: "steamstore", StatusCode: 400}, false},
		{"plain error", errors.New("decode failed"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWithRetryEventualSuccess(t *testing.T) {
	opts := RetryOptions{MaxRetries: 3, InitialDelay: time.Millisecond, Source: "test"}

	calls := 0
	result, err := WithRetry(context.Background(), opts, func() (string, error) {
		calls++
		if calls < 3 {
			return "", ErrRateLimited
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result != "ok" {
		t.Errorf("Expected ok, got %q", result)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestWithRetryNonRetryableFailsFast(t *testing.T) {
	opts := RetryOptions{MaxRetries: 3, InitialDelay: time.Millisecond, Source: "test"}

	calls := 0
	wantErr := &StatusError{Source: "test", StatusCode: 404}
	_, err := WithRetry(context.Background(), opts, func() (int, error) {
		calls++
		return 0, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Expected status error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call for non-retryable error, got %d", calls)
	}
}

func TestWithRetryExhaustionReturnsLastError(t *testing.T) {
	opts := RetryOptions{MaxRetries: 2, InitialDelay: time.Millisecond, Source: "test"}

	calls := 0
	_, err := WithRetry(context.Background(), opts, func() (int, error) {
		calls++
		return 0, ErrRateLimited
	})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("Expected rate limited error after exhaustion, got %v", err)
	}
	// Initial attempt plus MaxRetries retries.
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestWithRetryContextCancelsBackoff(t *testing.T) {
	opts := RetryOptions{MaxRetries: 3, InitialDelay: time.Hour, Source: "test"}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := WithRetry(ctx, opts, func() (int, error) {
		return 0, ErrRateLimited
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Backoff wait was not interrupted by cancellation")
	}
}

func TestWithRetryBackoffDoubles(t *testing.T) {
	opts := RetryOptions{MaxRetries: 2, InitialDelay: 20 * time.Millisecond, Source: "test"}

	start := time.Now()
	_, _ = WithRetry(context.Background(), opts, func() (int, error) {
		return 0, ErrRateLimited
	})
	elapsed := time.Since(start)

	// Delays are 20ms then 40ms.
	if elapsed < 60*time.Millisecond {
		t.Errorf("Expected at least 60ms of backoff, got %v", elapsed)
	}
}
