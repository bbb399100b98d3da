// SurviveBase - Survival Crafting Game Catalog
// Copyright 2026 Jiwoo Kim (jwkim-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwkim-dev/survivebase

package api

import (
	"context"
	"net/http"

	"github.com/jwkim-dev/survivebase/internal/collector"
	"github.com/jwkim-dev/survivebase/internal/logging"
)

// CollectionRunner triggers collection jobs. Implemented by
// collector.Collector.
type CollectionRunner interface {
	RunFull(ctx context.Context) (*collector.Summary, error)
	RunIncremental(ctx context.Context) (*collector.Summary, error)
}

// AdminHandler serves the bearer-token-gated trigger endpoints. Runs are
// synchronous: the response carries the finished run's summary, matching
// what an external cron caller expects.
type AdminHandler struct {
	runner CollectionRunner
}

// NewAdminHandler creates the admin trigger handler.
func NewAdminHandler(runner CollectionRunner) *AdminHandler {
	return &AdminHandler{runner: runner}
}

// Collect serves POST /api/v1/admin/collect: the full collection pipeline.
func (h *AdminHandler) Collect(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	// The run outlives the request deadline budget only via its own
	// configured timeout; the request context still propagates cancellation.
	summary, err := h.runner.RunFull(r.Context())
	if err != nil {
		if summary == nil {
			summary = &collector.Summary{}
		}
		logging.Ctx(r.Context()).Error().Err(err).Str("run_id", summary.RunID).Msg("Triggered collection failed")
		rw.Error(http.StatusInternalServerError, ErrCodeCollectionFail, err.Error())
		return
	}
	rw.Success(summary)
}

// Update serves POST /api/v1/admin/update: the incremental refresh.
func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	summary, err := h.runner.RunIncremental(r.Context())
	if err != nil {
		if summary == nil {
			summary = &collector.Summary{}
		}
		logging.Ctx(r.Context()).Error().Err(err).Str("run_id", summary.RunID).Msg("Triggered refresh failed")
		rw.Error(http.StatusInternalServerError, ErrCodeCollectionFail, err.Error())
		return
	}
	rw.Success(summary)
}
