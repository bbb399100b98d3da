// SurviveBase - Survival Crafting Game Catalog
// Copyright 2026 Jiwoo Kim (jwkim-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwkim-dev/survivebase

// Package collector orchestrates catalog acquisition: the full
// SteamSpy -> Steam Store -> merge -> persist pipeline, and the narrower
// incremental refresh that rotates through stale entries under a tight
// time budget.
package collector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwkim-dev/survivebase/internal/catalog"
	"github.com/jwkim-dev/survivebase/internal/config"
	"github.com/jwkim-dev/survivebase/internal/logging"
	"github.com/jwkim-dev/survivebase/internal/metrics"
	"github.com/jwkim-dev/survivebase/internal/models"
	"github.com/jwkim-dev/survivebase/internal/source"
)

// TagSource collects SteamSpy records across the configured tags.
// Implemented by source.SpyClient.
type TagSource interface {
	CollectTags(ctx context.Context) (map[int64]source.TagRecord, int, error)
}

// GameStore is the write-side store contract the collector needs.
type GameStore interface {
	UpsertGames(ctx context.Context, games []models.Game) (int, error)
	GetOldestUpdated(ctx context.Context, limit int) ([]models.Game, error)
}

// SnapshotWriter mirrors the merged catalog to the local snapshot tier.
type SnapshotWriter interface {
	Write(games []models.Game) error
}

// Summary reports per-stage counts for one collection run.
type Summary struct {
	RunID          string  `json:"run_id"`
	TaggedGames    int     `json:"tagged_games"`
	DetailedGames  int     `json:"detailed_games"`
	MergedGames    int     `json:"merged_games"`
	FilteredGames  int     `json:"filtered_games"`
	UpsertedGames  int     `json:"upserted_games"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

// Collector runs collection jobs against the configured sources and store.
type Collector struct {
	cfg      *config.Config
	tags     TagSource
	details  source.DetailSource
	store    GameStore
	snapshot SnapshotWriter
	filter   *catalog.Filter
}

// New creates a collector.
func New(cfg *config.Config, tags TagSource, details source.DetailSource, store GameStore, snapshot SnapshotWriter) *Collector {
	return &Collector{
		cfg:      cfg,
		tags:     tags,
		details:  details,
		store:    store,
		snapshot: snapshot,
		filter:   catalog.NewFilter(&cfg.Catalog),
	}
}

// RunFull executes the full collection pipeline under the configured
// execution budget: SteamSpy tag collection, Steam Store detail fetch,
// merge and filter, store upsert, snapshot mirror. A stage that yields
// zero SteamSpy records aborts the run; per-item failures never do.
func (c *Collector) RunFull(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{RunID: uuid.NewString()}
	runLog := logging.With().Str("job", "full").Str("run_id", summary.RunID).Logger()

	if c.cfg.Jobs.FullBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Jobs.FullBudget)
		defer cancel()
	}

	defer func() {
		summary.ElapsedSeconds = time.Since(start).Seconds()
		metrics.CollectionDuration.WithLabelValues("full").Observe(summary.ElapsedSeconds)
	}()

	runLog.Info().Strs("tags", c.cfg.SteamSpy.Tags).Msg("Collection started")

	// Stage 1: SteamSpy tag collection.
	tagGames, unique, err := c.tags.CollectTags(ctx)
	if err != nil && len(tagGames) == 0 {
		metrics.CollectionRuns.WithLabelValues("full", "error").Inc()
		return summary, fmt.Errorf("steamspy collection: %w", err)
	}
	summary.TaggedGames = unique
	if unique == 0 {
		metrics.CollectionRuns.WithLabelValues("full", "error").Inc()
		return summary, fmt.Errorf("no games fetched from SteamSpy")
	}
	runLog.Info().Int("games", unique).Msg("SteamSpy collection complete")

	// Stage 2: Steam Store details, capped to bound execution time.
	appIDs := sortedAppIDs(tagGames)
	if len(appIDs) > c.cfg.SteamStore.MaxGamesPerRun {
		runLog.Info().Int("cap", c.cfg.SteamStore.MaxGamesPerRun).Int("total", len(appIDs)).Msg("Capping detail fetch for this run")
		appIDs = appIDs[:c.cfg.SteamStore.MaxGamesPerRun]
	}

	detailGames := source.FetchGames(ctx, c.details, c.cfg.SteamStore.Concurrency, appIDs, func(done, total int) {
		if done%50 == 0 || done == total {
			runLog.Info().Int("done", done).Int("total", total).Msg("Steam Store progress")
		}
	})
	summary.DetailedGames = len(detailGames)
	runLog.Info().Int("games", len(detailGames)).Msg("Steam Store fetch complete")

	// Stage 3: merge and filter.
	games, filtered := catalog.MergeAll(tagGames, detailGames, c.filter, time.Now())
	summary.MergedGames = len(games)
	summary.FilteredGames = filtered

	// Stage 4: persist.
	upserted, err := c.store.UpsertGames(ctx, games)
	summary.UpsertedGames = upserted
	if err != nil {
		metrics.CollectionRuns.WithLabelValues("full", "error").Inc()
		return summary, fmt.Errorf("persist catalog: %w", err)
	}

	// Stage 5: mirror to snapshot. A snapshot failure degrades the cache
	// fallback chain but does not fail the run.
	if err := c.snapshot.Write(games); err != nil {
		runLog.Warn().Err(err).Msg("Snapshot write failed")
	}

	metrics.CollectionRuns.WithLabelValues("full", "ok").Inc()
	runLog.Info().Int("merged", summary.MergedGames).Int("upserted", upserted).Msg("Collection complete")
	return summary, nil
}

func sortedAppIDs(games map[int64]source.TagRecord) []int64 {
	appIDs := make([]int64, 0, len(games))
	for appID := range games {
		appIDs = append(appIDs, appID)
	}
	sort.Slice(appIDs, func(i, j int) bool { return appIDs[i] < appIDs[j] })
	return appIDs
}
