// SurviveBase - Survival Crafting Game Catalog
// Copyright 2026 Jiwoo Kim (jwkim-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwkim-dev/survivebase

package fetch

import (
	"context"
	"testing"
	"time"
)

func TestGateEnforcesSpacing(t *testing.T) {
	gate := NewGate(30 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for range 3 {
		if err := gate.Acquire(ctx); err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
	}
	elapsed := time.Since(start)

	// First acquisition is immediate, the next two wait 30ms each.
	if elapsed < 55*time.Millisecond {
		t.Errorf("Expected at least ~60ms across 3 acquisitions, got %v", elapsed)
	}
}

func TestGateZeroSpacingIsNoop(t *testing.T) {
	gate := NewGate(0)
	ctx := context.Background()

	start := time.Now()
	for range 100 {
		if err := gate.Acquire(ctx); err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Error("Zero-spacing gate should not block")
	}
}

func TestGateNilIsNoop(t *testing.T) {
	var gate *Gate
	if err := gate.Acquire(context.Background()); err != nil {
		t.Fatalf("Nil gate should admit immediately, got %v", err)
	}
}

func TestGateCancellation(t *testing.T) {
	gate := NewGate(time.Hour)
	ctx := context.Background()

	// Consume the initial token.
	if err := gate.Acquire(ctx); err != nil {
		t.Fatalf("First acquire failed: %v", err)
	}

	cancelCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()

	if err := gate.Acquire(cancelCtx); err == nil {
		t.Fatal("Expected error from canceled wait")
	}
}
