// SurviveBase - Survival Crafting Game Catalog
// Copyright 2026 Jiwoo Kim (jwkim-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwkim-dev/survivebase

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jwkim-dev/survivebase/internal/config"
)

// publicRateLimit is the per-IP request cap per minute on catalog reads.
const publicRateLimit = 300

// NewRouter wires the catalog and admin handlers into a chi router with
// the shared middleware stack.
func NewRouter(handler *Handler, admin *AdminHandler, cfg *config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID())
	r.Use(RequestLogger())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(CORS(cfg.CORSOrigins))

	// Catalog reads. Served from the tiered cache, so generous limits.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RateLimit(publicRateLimit))

		r.Get("/health", handler.Health)
		r.Get("/stats", handler.Stats)
		r.Get("/games", handler.Games)
		r.Get("/games/search", handler.Search)
		r.Get("/games/sale", handler.Sale)
		r.Get("/games/{appid}", handler.Game)
	})

	// Trigger endpoints for external cron. Tight rate limit: each call
	// starts a real collection run.
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(RateLimit(adminRateLimit(cfg)))
		r.Use(BearerAuth(cfg.AdminToken))

		r.Post("/collect", admin.Collect)
		r.Post("/update", admin.Update)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

func adminRateLimit(cfg *config.ServerConfig) int {
	if cfg.AdminRateLimit > 0 {
		return cfg.AdminRateLimit
	}
	return 10
}
