// SurviveBase - Survival Crafting Game Catalog
// Copyright 2026 Jiwoo Kim (jwkim-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwkim-dev/survivebase

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/jwkim-dev/survivebase/internal/cache"
	"github.com/jwkim-dev/survivebase/internal/collector"
	"github.com/jwkim-dev/survivebase/internal/config"
	"github.com/jwkim-dev/survivebase/internal/database"
	"github.com/jwkim-dev/survivebase/internal/models"
)

// fakeStore backs both the cache tier and the stats queries in tests.
type fakeStore struct {
	games []models.Game
}

func (f *fakeStore) GetAllGames(context.Context) ([]models.Game, error) {
	return f.games, nil
}

func (f *fakeStore) GetGame(_ context.Context, appID int64) (*models.Game, error) {
	for _, g := range f.games {
		if g.AppID == appID {
			return &g, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetGamesByIDs(_ context.Context, appIDs []int64) ([]models.Game, error) {
	var out []models.Game
	for _, id := range appIDs {
		for _, g := range f.games {
			if g.AppID == id {
				out = append(out, g)
			}
		}
	}
	return out, nil
}

func (f *fakeStore) GetGamesOnSale(context.Context) ([]models.Game, error) {
	var out []models.Game
	for _, g := range f.games {
		if g.Price.DiscountPercent > 0 {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeStore) GetStats(context.Context) (*database.Stats, error) {
	return &database.Stats{TotalGames: len(f.games)}, nil
}

type fakeRunner struct {
	full, incremental int
	err               error
}

func (f *fakeRunner) RunFull(context.Context) (*collector.Summary, error) {
	f.full++
	return &collector.Summary{RunID: "run-1", MergedGames: 3}, f.err
}

func (f *fakeRunner) RunIncremental(context.Context) (*collector.Summary, error) {
	f.incremental++
	return &collector.Summary{RunID: "run-2"}, f.err
}

func testRouter(t *testing.T, games []models.Game, runner CollectionRunner) http.Handler {
	t.Helper()
	store := &fakeStore{games: games}
	tiered := cache.New(store, filepath.Join(t.TempDir(), "snap.json"), "", time.Minute, time.Hour)

	cfg := &config.Config{
		Server: config.ServerConfig{AdminToken: "secret", AdminRateLimit: 100},
	}
	handler := NewHandler(tiered, store, cfg)
	admin := NewAdminHandler(runner)
	return NewRouter(handler, admin, &cfg.Server)
}

func catalogFixture() []models.Game {
	return []models.Game{
		{AppID: 1, Name: "Rust", Owners: "10,000,000 .. 20,000,000",
			Reviews: models.Reviews{Positive: 80, Negative: 20, Score: 80},
			Price:   models.Price{Initial: 3999, Final: 1999, DiscountPercent: 50}},
		{AppID: 2, Name: "Terraria", Owners: "20,000,000 .. 50,000,000",
			Reviews: models.Reviews{Positive: 99, Negative: 1, Score: 99}},
		{AppID: 3, Name: "The Forest", Owners: "5,000,000 .. 10,000,000",
			Reviews: models.Reviews{Positive: 60, Negative: 40, Score: 60}},
	}
}

func doRequest(t *testing.T, router http.Handler, method, path string, headers map[string]string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil && rec.Code != http.StatusNoContent {
		t.Fatalf("Invalid response body %q: %v", rec.Body.String(), err)
	}
	return rec, body
}

func gamesFromData(t *testing.T, data interface{}) []models.Game {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatal(err)
	}
	var games []models.Game
	if err := json.Unmarshal(raw, &games); err != nil {
		t.Fatalf("Data is not a game list: %v", err)
	}
	return games
}

func TestGamesEndpoint(t *testing.T) {
	router := testRouter(t, catalogFixture(), &fakeRunner{})

	rec, body := doRequest(t, router, http.MethodGet, "/api/v1/games", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !body.Success {
		t.Fatal("Expected success response")
	}

	games := gamesFromData(t, body.Data)
	if len(games) != 3 {
		t.Fatalf("Expected 3 games, got %d", len(games))
	}
	// Default sort is popular: owners lower bound descending.
	if games[0].AppID != 2 || games[1].AppID != 1 || games[2].AppID != 3 {
		t.Errorf("Unexpected popular order: %d %d %d", games[0].AppID, games[1].AppID, games[2].AppID)
	}
	if body.Meta == nil || body.Meta.Pagination == nil || body.Meta.Pagination.Total != 3 {
		t.Error("Expected pagination metadata")
	}
}

func TestGamesSortAndPagination(t *testing.T) {
	router := testRouter(t, catalogFixture(), &fakeRunner{})

	rec, body := doRequest(t, router, http.MethodGet, "/api/v1/games?sort=rating&offset=1&limit=1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	games := gamesFromData(t, body.Data)
	if len(games) != 1 {
		t.Fatalf("Expected 1 game, got %d", len(games))
	}
	// Rating order is [2 1 3]; offset 1 yields appid 1.
	if games[0].AppID != 1 {
		t.Errorf("Expected appid 1, got %d", games[0].AppID)
	}
	if !body.Meta.Pagination.HasMore {
		t.Error("Expected has_more with one game remaining")
	}
}

func TestGamesRejectsUnknownSort(t *testing.T) {
	router := testRouter(t, catalogFixture(), &fakeRunner{})

	rec, body := doRequest(t, router, http.MethodGet, "/api/v1/games?sort=bogus", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	if body.Error == nil || body.Error.Code != ErrCodeBadRequest {
		t.Errorf("Expected BAD_REQUEST error, got %+v", body.Error)
	}
}

func TestGamesByIDs(t *testing.T) {
	router := testRouter(t, catalogFixture(), &fakeRunner{})

	rec, body := doRequest(t, router, http.MethodGet, "/api/v1/games?ids=3,1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	games := gamesFromData(t, body.Data)
	if len(games) != 2 || games[0].AppID != 3 || games[1].AppID != 1 {
		t.Errorf("Expected requested order [3 1], got %v", games)
	}

	rec, _ = doRequest(t, router, http.MethodGet, "/api/v1/games?ids=1,nope", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed ids, got %d", rec.Code)
	}
}

func TestGameByAppID(t *testing.T) {
	router := testRouter(t, catalogFixture(), &fakeRunner{})

	rec, body := doRequest(t, router, http.MethodGet, "/api/v1/games/2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	games := gamesFromData(t, []interface{}{body.Data})
	if games[0].Name != "Terraria" {
		t.Errorf("Expected Terraria, got %q", games[0].Name)
	}

	rec, body = doRequest(t, router, http.MethodGet, "/api/v1/games/999", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
	if body.Error == nil || body.Error.Code != ErrCodeNotFound {
		t.Errorf("Expected NOT_FOUND, got %+v", body.Error)
	}
}

func TestSearchEndpoint(t *testing.T) {
	router := testRouter(t, catalogFixture(), &fakeRunner{})

	rec, body := doRequest(t, router, http.MethodGet, "/api/v1/games/search?q=rust", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	games := gamesFromData(t, body.Data)
	if len(games) != 1 || games[0].AppID != 1 {
		t.Errorf("Unexpected search result: %v", games)
	}

	rec, _ = doRequest(t, router, http.MethodGet, "/api/v1/games/search", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without q, got %d", rec.Code)
	}
}

func TestSaleEndpoint(t *testing.T) {
	router := testRouter(t, catalogFixture(), &fakeRunner{})

	rec, body := doRequest(t, router, http.MethodGet, "/api/v1/games/sale", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	games := gamesFromData(t, body.Data)
	if len(games) != 1 || games[0].AppID != 1 {
		t.Errorf("Expected only the discounted game, got %v", games)
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := testRouter(t, catalogFixture(), &fakeRunner{})

	rec, body := doRequest(t, router, http.MethodGet, "/api/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	payload, ok := body.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Unexpected health payload: %v", body.Data)
	}
	// No snapshot has ever been written in this test, so the catalog is stale.
	if payload["status"] != "stale" {
		t.Errorf("Expected stale status, got %v", payload["status"])
	}
}

func TestAdminRequiresBearerToken(t *testing.T) {
	runner := &fakeRunner{}
	router := testRouter(t, nil, runner)

	tests := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{"missing token", nil, http.StatusUnauthorized},
		{"wrong token", map[string]string{"Authorization": "Bearer wrong"}, http.StatusUnauthorized},
		{"wrong scheme", map[string]string{"Authorization": "Basic secret"}, http.StatusUnauthorized},
		{"valid token", map[string]string{"Authorization": "Bearer secret"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := doRequest(t, router, http.MethodPost, "/api/v1/admin/collect", tt.headers)
			if rec.Code != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
	if runner.full != 1 {
		t.Errorf("Expected exactly 1 full run, got %d", runner.full)
	}
}

func TestAdminUpdateEndpoint(t *testing.T) {
	runner := &fakeRunner{}
	router := testRouter(t, nil, runner)

	rec, body := doRequest(t, router, http.MethodPost, "/api/v1/admin/update",
		map[string]string{"Authorization": "Bearer secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if runner.incremental != 1 {
		t.Errorf("Expected 1 incremental run, got %d", runner.incremental)
	}
	payload, ok := body.Data.(map[string]interface{})
	if !ok || payload["run_id"] != "run-2" {
		t.Errorf("Expected run summary in response, got %v", body.Data)
	}
}
