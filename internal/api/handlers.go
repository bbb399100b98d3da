// SurviveBase - Survival Crafting Game Catalog
// Copyright 2026 Jiwoo Kim (jwkim-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwkim-dev/survivebase

package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jwkim-dev/survivebase/internal/cache"
	"github.com/jwkim-dev/survivebase/internal/catalog"
	"github.com/jwkim-dev/survivebase/internal/config"
	"github.com/jwkim-dev/survivebase/internal/database"
	"github.com/jwkim-dev/survivebase/internal/models"
)

// defaultPageLimit bounds list responses when no limit is given.
const (
	defaultPageLimit = 50
	maxPageLimit     = 500
)

// StatsStore is the read-side store surface the handlers query directly,
// bypassing the cache for aggregates and sale listings.
type StatsStore interface {
	GetStats(ctx context.Context) (*database.Stats, error)
	GetGamesOnSale(ctx context.Context) ([]models.Game, error)
}

// Handler contains dependencies for the catalog API handlers.
type Handler struct {
	cache     *cache.Tiered
	store     StatsStore
	config    *config.Config
	startTime time.Time
}

// NewHandler creates the catalog API handler.
func NewHandler(tiered *cache.Tiered, store StatsStore, cfg *config.Config) *Handler {
	return &Handler{
		cache:     tiered,
		store:     store,
		config:    cfg,
		startTime: time.Now(),
	}
}

// Games serves GET /api/v1/games: the full catalog ranked by the requested
// strategy with offset/limit pagination. Serving reads never fail; an
// exhausted cache chain yields an empty list.
func (h *Handler) Games(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	// An ids filter short-circuits ranking: the response preserves the
	// requested order and omits misses.
	if rawIDs := r.URL.Query().Get("ids"); rawIDs != "" {
		appIDs, err := parseAppIDs(rawIDs)
		if err != nil {
			rw.BadRequest(err.Error())
			return
		}
		games := h.cache.GetByIDs(r.Context(), appIDs)
		rw.SuccessWithPagination(games, &PaginationMeta{Total: len(games), Count: len(games)})
		return
	}

	strategy, ok := catalog.ParseStrategy(r.URL.Query().Get("sort"))
	if !ok {
		rw.BadRequest("Unknown sort strategy: " + r.URL.Query().Get("sort"))
		return
	}
	offset, limit, err := parsePagination(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	games := catalog.Sort(h.cache.GetAll(r.Context()), strategy)
	total := len(games)
	page := paginate(games, offset, limit)

	rw.SuccessWithPagination(page, &PaginationMeta{
		Total:   total,
		Count:   len(page),
		Offset:  offset,
		Limit:   limit,
		HasMore: offset+len(page) < total,
	})
}

// Game serves GET /api/v1/games/{appid}.
func (h *Handler) Game(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	appID, err := strconv.ParseInt(chi.URLParam(r, "appid"), 10, 64)
	if err != nil {
		rw.BadRequest("Invalid appid")
		return
	}

	game, ok := h.cache.GetByID(r.Context(), appID)
	if !ok {
		rw.NotFound("Game not found")
		return
	}

	// The detail view carries the derived review label; list views stay lean.
	rw.Success(struct {
		models.Game
		ReviewLabel string `json:"review_label"`
	}{Game: *game, ReviewLabel: models.ReviewLabel(game.Reviews.Score)})
}

// Search serves GET /api/v1/games/search?q=: case-insensitive name
// substring match over the catalog.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	query := r.URL.Query().Get("q")
	if query == "" {
		rw.BadRequest("Missing query parameter: q")
		return
	}

	games := h.cache.Search(r.Context(), query)
	rw.SuccessWithPagination(games, &PaginationMeta{
		Total: len(games),
		Count: len(games),
	})
}

// Sale serves GET /api/v1/games/sale: discounted games, steepest discount
// first. The store is preferred; when it is unreachable the cached catalog
// is filtered instead so the endpoint still answers.
func (h *Handler) Sale(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	games, err := h.store.GetGamesOnSale(r.Context())
	if err != nil {
		games = onSale(h.cache.GetAll(r.Context()))
	}
	rw.SuccessWithPagination(games, &PaginationMeta{
		Total: len(games),
		Count: len(games),
	})
}

// Stats serves GET /api/v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		games := h.cache.GetAll(r.Context())
		stats = &database.Stats{TotalGames: len(games), OnSale: len(onSale(games))}
	}
	rw.Success(stats)
}

// healthStatus is the GET /api/v1/health payload.
type healthStatus struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	CatalogSize   int    `json:"catalog_size"`
	CatalogStale  bool   `json:"catalog_stale"`
}

// Health serves GET /api/v1/health. Status degrades to "stale" when the
// snapshot has not been refreshed within the configured staleness window.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	status := healthStatus{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		CatalogSize:   len(h.cache.GetAll(r.Context())),
	}
	if h.cache.IsStale() {
		status.Status = "stale"
		status.CatalogStale = true
	}
	rw.Success(status)
}

func parsePagination(r *http.Request) (offset, limit int, err error) {
	limit = defaultPageLimit
	query := r.URL.Query()

	if raw := query.Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, errInvalidParam("offset", raw)
		}
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return 0, 0, errInvalidParam("limit", raw)
		}
		if limit > maxPageLimit {
			limit = maxPageLimit
		}
	}
	return offset, limit, nil
}

func paginate(games []models.Game, offset, limit int) []models.Game {
	if offset >= len(games) {
		return []models.Game{}
	}
	end := offset + limit
	if end > len(games) {
		end = len(games)
	}
	return games[offset:end]
}

// maxIDsPerRequest bounds how many appids an ids filter may name.
const maxIDsPerRequest = 100

func parseAppIDs(raw string) ([]int64, error) {
	parts := strings.Split(raw, ",")
	if len(parts) > maxIDsPerRequest {
		return nil, errInvalidParam("ids", "too many ids")
	}
	appIDs := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			return nil, errInvalidParam("ids", part)
		}
		appIDs = append(appIDs, id)
	}
	return appIDs, nil
}

func onSale(games []models.Game) []models.Game {
	sale := make([]models.Game, 0)
	for _, game := range games {
		if game.Price.DiscountPercent > 0 {
			sale = append(sale, game)
		}
	}
	return sale
}

type paramError struct {
	name, value string
}

func (e paramError) Error() string {
	return "Invalid " + e.name + " parameter: " + e.value
}

func errInvalidParam(name, value string) error {
	return paramError{name: name, value: value}
}
