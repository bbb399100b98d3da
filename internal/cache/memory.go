// SurviveBase - Survival Crafting Game Catalog
// Copyright 2026 Jiwoo Kim (jwkim-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwkim-dev/survivebase

// Package cache resolves the current catalog through an ordered chain of
// providers: in-process memory, the DuckDB store, the local snapshot file,
// and the bundled seed dataset. Tiers can independently go stale or
// disappear; reads degrade silently to the next tier.
package cache

import (
	"sync"
	"time"

	"github.com/jwkim-dev/survivebase/internal/models"
)

// Memory is the in-process catalog cache with a fixed TTL. Reads that race
// a write see either the old or the freshly-invalidated state; both are
// valid, so a plain RWMutex suffices.
type Memory struct {
	mu        sync.RWMutex
	games     []models.Game
	fetchedAt time.Time
	ttl       time.Duration
}

// NewMemory creates a memory tier with the given TTL.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl}
}

// Get returns the cached catalog if it is still fresh.
func (m *Memory) Get() ([]models.Game, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.games == nil || time.Since(m.fetchedAt) >= m.ttl {
		return nil, false
	}
	return m.games, true
}

// Set replaces the cached catalog and resets its age.
func (m *Memory) Set(games []models.Game) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games = games
	m.fetchedAt = time.Now()
}

// Invalidate drops the cached catalog so the next read re-resolves through
// the provider chain.
func (m *Memory) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games = nil
	m.fetchedAt = time.Time{}
}
