// SurviveBase - Survival Crafting Game Catalog
// Copyright 2026 Jiwoo Kim (jwkim-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwkim-dev/survivebase

package cache

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/jwkim-dev/survivebase/internal/logging"
	"github.com/jwkim-dev/survivebase/internal/metrics"
	"github.com/jwkim-dev/survivebase/internal/models"
)

// Store is the narrow read contract the cache needs from the primary store.
type Store interface {
	GetAllGames(ctx context.Context) ([]models.Game, error)
	GetGame(ctx context.Context, appID int64) (*models.Game, error)
	GetGamesByIDs(ctx context.Context, appIDs []int64) ([]models.Game, error)
}

// provider is one tier of the fallback chain. A provider may return an
// empty slice ("nothing here, try the next") or an error ("degrade
// silently to the next"). The final provider's result is returned even
// when empty.
type provider struct {
	name  string
	fetch func(ctx context.Context) ([]models.Game, error)
}

// Tiered resolves the current catalog through the provider chain and is the
// serving layer's only read surface. Total exhaustion yields an empty
// catalog, never an error.
type Tiered struct {
	memory     *Memory
	store      Store
	snapshot   *SnapshotStore
	providers  []provider
	staleAfter time.Duration
}

// New creates the tiered cache. seedPath points to the bundled fallback
// dataset; it may be empty or missing, in which case the final tier serves
// an empty catalog.
func New(store Store, snapshotPath, seedPath string, memoryTTL, staleAfter time.Duration) *Tiered {
	t := &Tiered{
		memory:     NewMemory(memoryTTL),
		store:      store,
		snapshot:   NewSnapshotStore(snapshotPath),
		staleAfter: staleAfter,
	}

	t.providers = []provider{
		{name: "database", fetch: func(ctx context.Context) ([]models.Game, error) {
			return store.GetAllGames(ctx)
		}},
		{name: "snapshot", fetch: func(_ context.Context) ([]models.Game, error) {
			return t.snapshot.Read()
		}},
		{name: "seed", fetch: func(_ context.Context) ([]models.Game, error) {
			return readSeed(seedPath)
		}},
	}
	return t
}

// readSeed loads the bundled fallback dataset. Unlike the snapshot tier it
// does not enforce the schema version; the seed ships with the binary.
func readSeed(path string) ([]models.Game, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snapshot models.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}
	return snapshot.Games, nil
}

// GetAll returns the current catalog. The memory tier is consulted first;
// on miss, providers are tried in order and the first non-empty result
// populates the memory tier. The final provider's result is cached and
// returned even when empty, so serving never errors.
func (t *Tiered) GetAll(ctx context.Context) []models.Game {
	if games, ok := t.memory.Get(); ok {
		metrics.CacheHits.WithLabelValues("memory").Inc()
		return games
	}
	metrics.CacheMisses.Inc()

	for i, p := range t.providers {
		games, err := p.fetch(ctx)
		if err != nil {
			logging.Warn().Err(err).Str("tier", p.name).Msg("Cache tier failed, falling through")
			games = nil
		}

		last := i == len(t.providers)-1
		if len(games) > 0 || last {
			if games == nil {
				games = []models.Game{}
			}
			metrics.CacheHits.WithLabelValues(p.name).Inc()
			logging.Info().Str("tier", p.name).Int("games", len(games)).Msg("Catalog loaded")
			t.memory.Set(games)
			return games
		}
	}

	// Unreachable: the seed provider always returns.
	return []models.Game{}
}

// GetByID returns a single game. The primary store is tried first for a
// point lookup; on miss or store unavailability it falls back to a linear
// scan of GetAll.
func (t *Tiered) GetByID(ctx context.Context, appID int64) (*models.Game, bool) {
	game, err := t.store.GetGame(ctx, appID)
	if err == nil && game != nil {
		return game, true
	}
	if err != nil {
		logging.Warn().Err(err).Int64("appid", appID).Msg("Store point lookup failed, scanning catalog")
	}

	for _, g := range t.GetAll(ctx) {
		if g.AppID == appID {
			return &g, true
		}
	}
	return nil, false
}

// GetByIDs returns the games matching the given appids, preserving input
// order and omitting misses. The primary store answers with one batched
// query when it can; otherwise the cached catalog is scanned.
func (t *Tiered) GetByIDs(ctx context.Context, appIDs []int64) []models.Game {
	if games, err := t.store.GetGamesByIDs(ctx, appIDs); err == nil && len(games) > 0 {
		return games
	}

	byID := make(map[int64]models.Game)
	for _, g := range t.GetAll(ctx) {
		byID[g.AppID] = g
	}

	games := make([]models.Game, 0, len(appIDs))
	for _, id := range appIDs {
		if g, ok := byID[id]; ok {
			games = append(games, g)
		}
	}
	return games
}

// Search returns games whose name contains the query, case-insensitively.
func (t *Tiered) Search(ctx context.Context, query string) []models.Game {
	query = strings.ToLower(query)
	var matches []models.Game
	for _, g := range t.GetAll(ctx) {
		if strings.Contains(strings.ToLower(g.Name), query) {
			matches = append(matches, g)
		}
	}
	return matches
}

// IsStale reports whether the local snapshot is older than the configured
// staleness horizon. A missing or unreadable snapshot is stale.
func (t *Tiered) IsStale() bool {
	updatedAt, err := t.snapshot.UpdatedAt()
	if err != nil {
		return true
	}
	return time.Since(updatedAt) > t.staleAfter
}

// Write persists a new snapshot and invalidates the memory tier so the
// next read re-resolves through the provider chain.
func (t *Tiered) Write(games []models.Game) error {
	if err := t.snapshot.Write(games, time.Now()); err != nil {
		return err
	}
	t.memory.Invalidate()
	return nil
}
