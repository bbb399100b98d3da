// SurviveBase - Survival Crafting Game Catalog
// Copyright 2026 Jiwoo Kim (jwkim-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwkim-dev/survivebase

package source

import (
	"context"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/jwkim-dev/survivebase/internal/fetch"
	"github.com/jwkim-dev/survivebase/internal/logging"
	"github.com/jwkim-dev/survivebase/internal/metrics"
)

// BreakerClient wraps a StoreClient with a circuit breaker so a collection
// run backs off quickly when the storefront is down or persistently
// rate-limiting, instead of burning the whole run budget on retries.
//
// The breaker uses real time for its interval and timeout calculations.
// Unit tests should exercise the wrapped client directly.
type BreakerClient struct {
	client *StoreClient
	cb     *gobreaker.CircuitBreaker[*DetailRecord]
	name   string
}

// NewBreakerClient creates a storefront client protected by a circuit
// breaker. The circuit opens after a 60% failure rate over at least 10
// requests, allows 3 trial requests in half-open state, and waits 2 minutes
// before attempting recovery.
func NewBreakerClient(client *StoreClient) *BreakerClient {
	cbName := "steamstore-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[*DetailRecord](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &BreakerClient{client: client, cb: cb, name: cbName}
}

// FetchGame fetches detail for one appid through the circuit breaker.
func (b *BreakerClient) FetchGame(ctx context.Context, appID int64) (*DetailRecord, error) {
	return b.cb.Execute(func() (*DetailRecord, error) {
		return b.client.FetchGame(ctx, appID)
	})
}

// Gate exposes the wrapped client's rate gate.
func (b *BreakerClient) Gate() *fetch.Gate {
	return b.client.Gate()
}

func stateToString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
