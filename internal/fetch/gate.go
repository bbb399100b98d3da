// SurviveBase - Survival Crafting Game Catalog
// Copyright 2026 Jiwoo Kim (jwkim-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwkim-dev/survivebase

package fetch

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Gate is the global admission gate shared by all workers of a pool. It
// guarantees that no two request starts occur closer together than the
// configured spacing, regardless of how many requests are in flight once
// started. Acquisitions are serialized in arrival order.
//
// Construct one Gate per upstream source and pass it by reference; a fresh
// Gate per test keeps tests isolated.
type Gate struct {
	limiter *rate.Limiter
}

// NewGate creates a gate enforcing the given minimum spacing between request
// starts. A zero or negative spacing disables pacing.
func NewGate(spacing time.Duration) *Gate {
	if spacing <= 0 {
		return &Gate{}
	}
	return &Gate{limiter: rate.NewLimiter(rate.Every(spacing), 1)}
}

// Acquire blocks the caller until its turn. It returns early with the
// context error if the context is canceled while waiting. A nil gate
// admits immediately.
func (g *Gate) Acquire(ctx context.Context) error {
	if g == nil || g.limiter == nil {
		return ctx.Err()
	}
	return g.limiter.Wait(ctx)
}
