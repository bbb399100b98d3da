// SurviveBase - Survival Crafting Game Catalog
// Copyright 2026 Jiwoo Kim (jwkim-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwkim-dev/survivebase

package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwkim-dev/survivebase/internal/logging"
	"github.com/jwkim-dev/survivebase/internal/metrics"
	"github.com/jwkim-dev/survivebase/internal/models"
	"github.com/jwkim-dev/survivebase/internal/source"
)

// RunIncremental refreshes the oldest catalog entries from the Steam Store.
// Detail fields (name, pricing, imagery, release date, categories, genre
// tags) are overwritten; SteamSpy-owned fields (reviews, owners, playtime)
// are preserved from the stored row. Selection is always oldest-first, and
// every selected entry gets its updated_at bumped even when the store
// returns no record for it, so repeated runs rotate through the whole
// catalog.
func (c *Collector) RunIncremental(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{RunID: uuid.NewString()}
	runLog := logging.With().Str("job", "incremental").Str("run_id", summary.RunID).Logger()

	if c.cfg.Jobs.IncrementalBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Jobs.IncrementalBudget)
		defer cancel()
	}

	defer func() {
		summary.ElapsedSeconds = time.Since(start).Seconds()
		metrics.CollectionDuration.WithLabelValues("incremental").Observe(summary.ElapsedSeconds)
	}()

	existing, err := c.store.GetOldestUpdated(ctx, c.cfg.Jobs.IncrementalBatch)
	if err != nil {
		metrics.CollectionRuns.WithLabelValues("incremental", "error").Inc()
		return summary, fmt.Errorf("select stale games: %w", err)
	}
	if len(existing) == 0 {
		runLog.Info().Msg("Catalog empty, nothing to refresh")
		metrics.CollectionRuns.WithLabelValues("incremental", "ok").Inc()
		return summary, nil
	}
	summary.TaggedGames = len(existing)
	runLog.Info().Int("games", len(existing)).Msg("Incremental refresh started")

	appIDs := make([]int64, len(existing))
	for i, game := range existing {
		appIDs[i] = game.AppID
	}

	details := source.FetchGames(ctx, c.details, c.cfg.SteamStore.Concurrency, appIDs, nil)
	summary.DetailedGames = len(details)

	now := time.Now().UTC()
	updated := make([]models.Game, 0, len(existing))
	for _, game := range existing {
		updated = append(updated, refreshGame(game, details[game.AppID], now))
	}
	summary.MergedGames = len(updated)

	upserted, err := c.store.UpsertGames(ctx, updated)
	summary.UpsertedGames = upserted
	if err != nil {
		metrics.CollectionRuns.WithLabelValues("incremental", "error").Inc()
		return summary, fmt.Errorf("persist refresh: %w", err)
	}

	metrics.CollectionRuns.WithLabelValues("incremental", "ok").Inc()
	runLog.Info().Int("refreshed", summary.DetailedGames).Int("touched", upserted).Msg("Incremental refresh complete")
	return summary, nil
}

// refreshGame overlays detail-source fields onto a stored row. With no
// detail record only updated_at moves, which keeps the oldest-first
// rotation live for entries the store no longer serves.
func refreshGame(game models.Game, detail *source.DetailRecord, now time.Time) models.Game {
	game.UpdatedAt = now
	if detail == nil {
		return game
	}
	game.Name = detail.Name
	game.Description = detail.Description
	game.HeaderImage = detail.HeaderImage
	game.Screenshots = detail.Screenshots
	game.Price = detail.Price
	game.ReleaseDate = detail.ReleaseDate
	game.Categories = detail.Categories
	if len(detail.Genres) > 0 {
		game.Tags = detail.Genres
	}
	return game
}
