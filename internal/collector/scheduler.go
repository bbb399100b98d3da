// SurviveBase - Survival Crafting Game Catalog
// Copyright 2026 Jiwoo Kim (jwkim-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwkim-dev/survivebase

package collector

import (
	"context"
	"time"

	"github.com/jwkim-dev/survivebase/internal/config"
	"github.com/jwkim-dev/survivebase/internal/logging"
)

// Scheduler runs collection jobs on fixed intervals. It replaces an
// external cron trigger when the deployment has no one to call the admin
// endpoints. Serve blocks until the context is canceled, so it slots
// directly into a supervision tree.
type Scheduler struct {
	collector *Collector
	cfg       *config.JobsConfig
}

// NewScheduler creates an interval scheduler over the collector.
func NewScheduler(collector *Collector, cfg *config.JobsConfig) *Scheduler {
	return &Scheduler{collector: collector, cfg: cfg}
}

// Serve runs the job loop until ctx is canceled. Jobs run sequentially on
// their own tickers; a full and an incremental run never overlap because
// both are dispatched from this single goroutine.
func (s *Scheduler) Serve(ctx context.Context) error {
	fullTicker := time.NewTicker(s.cfg.FullInterval)
	defer fullTicker.Stop()
	incTicker := time.NewTicker(s.cfg.IncrementalInterval)
	defer incTicker.Stop()

	logging.Info().
		Dur("full_interval", s.cfg.FullInterval).
		Dur("incremental_interval", s.cfg.IncrementalInterval).
		Msg("Job scheduler started")

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Job scheduler stopping")
			return ctx.Err()
		case <-fullTicker.C:
			if summary, err := s.collector.RunFull(ctx); err != nil {
				logging.Error().Err(err).Str("run_id", summary.RunID).Msg("Scheduled full collection failed")
			}
		case <-incTicker.C:
			if summary, err := s.collector.RunIncremental(ctx); err != nil {
				logging.Error().Err(err).Str("run_id", summary.RunID).Msg("Scheduled incremental refresh failed")
			}
		}
	}
}

// String identifies the service in supervisor logs.
func (s *Scheduler) String() string {
	return "job-scheduler"
}
