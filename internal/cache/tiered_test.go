// SurviveBase - Survival Crafting Game Catalog
// Copyright 2026 Jiwoo Kim (jwkim-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwkim-dev/survivebase

package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/jwkim-dev/survivebase/internal/models"
)

// stubStore is a Store whose contents and failure mode tests control.
type stubStore struct {
	games []models.Game
	err   error
	calls int
}

func (s *stubStore) GetAllGames(context.Context) ([]models.Game, error) {
	s.calls++
	return s.games, s.err
}

func (s *stubStore) GetGame(_ context.Context, appID int64) (*models.Game, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, g := range s.games {
		if g.AppID == appID {
			return &g, nil
		}
	}
	return nil, nil
}

func (s *stubStore) GetGamesByIDs(_ context.Context, appIDs []int64) ([]models.Game, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Game
	for _, id := range appIDs {
		for _, g := range s.games {
			if g.AppID == id {
				out = append(out, g)
			}
		}
	}
	return out, nil
}

func testGames(appIDs ...int64) []models.Game {
	games := make([]models.Game, len(appIDs))
	for i, id := range appIDs {
		games[i] = models.Game{AppID: id, Name: "Game"}
	}
	return games
}

func writeSnapshotFile(t *testing.T, path string, version int, games []models.Game) {
	t.Helper()
	data, err := json.Marshal(models.Snapshot{Games: games, UpdatedAt: time.Now(), Version: version})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestGetAllServesFromStore(t *testing.T) {
	store := &stubStore{games: testGames(1, 2)}
	tiered := New(store, filepath.Join(t.TempDir(), "snap.json"), "", time.Minute, time.Hour)

	games := tiered.GetAll(context.Background())
	if len(games) != 2 {
		t.Fatalf("Expected 2 games, got %d", len(games))
	}

	// Second read is served from memory without touching the store.
	tiered.GetAll(context.Background())
	if store.calls != 1 {
		t.Errorf("Expected 1 store call, got %d", store.calls)
	}
}

func TestGetAllFallsBackToSnapshot(t *testing.T) {
	dir := t.TempDir()
	snapPath := filepath.Join(dir, "snap.json")
	writeSnapshotFile(t, snapPath, models.SnapshotVersion, testGames(5))

	store := &stubStore{err: errors.New("db down")}
	tiered := New(store, snapPath, "", time.Minute, time.Hour)

	games := tiered.GetAll(context.Background())
	if len(games) != 1 || games[0].AppID != 5 {
		t.Fatalf("Expected snapshot tier to serve, got %v", games)
	}
}

func TestGetAllSkipsVersionMismatchedSnapshot(t *testing.T) {
	dir := t.TempDir()
	snapPath := filepath.Join(dir, "snap.json")
	writeSnapshotFile(t, snapPath, models.SnapshotVersion+1, testGames(5))

	seedPath := filepath.Join(dir, "seed.json")
	writeSnapshotFile(t, seedPath, 0, testGames(9))

	store := &stubStore{err: errors.New("db down")}
	tiered := New(store, snapPath, seedPath, time.Minute, time.Hour)

	games := tiered.GetAll(context.Background())
	if len(games) != 1 || games[0].AppID != 9 {
		t.Fatalf("Expected mismatched snapshot to be skipped in favor of seed, got %v", games)
	}
}

func TestGetAllTotalExhaustionYieldsEmpty(t *testing.T) {
	store := &stubStore{err: errors.New("db down")}
	tiered := New(store, filepath.Join(t.TempDir(), "missing.json"), "", time.Minute, time.Hour)

	games := tiered.GetAll(context.Background())
	if games == nil {
		t.Fatal("Expected empty slice, got nil")
	}
	if len(games) != 0 {
		t.Fatalf("Expected empty catalog, got %d games", len(games))
	}
}

func TestGetByID(t *testing.T) {
	store := &stubStore{games: testGames(1, 2)}
	tiered := New(store, filepath.Join(t.TempDir(), "snap.json"), "", time.Minute, time.Hour)

	game, ok := tiered.GetByID(context.Background(), 2)
	if !ok || game.AppID != 2 {
		t.Errorf("Expected appid 2, got %v (ok=%v)", game, ok)
	}
	if _, ok := tiered.GetByID(context.Background(), 999); ok {
		t.Error("Expected miss for unknown appid")
	}
}

func TestGetByIDsPreservesOrder(t *testing.T) {
	store := &stubStore{games: testGames(1, 2, 3)}
	tiered := New(store, filepath.Join(t.TempDir(), "snap.json"), "", time.Minute, time.Hour)

	games := tiered.GetByIDs(context.Background(), []int64{3, 999, 1})
	if len(games) != 2 {
		t.Fatalf("Expected 2 games, got %d", len(games))
	}
	if games[0].AppID != 3 || games[1].AppID != 1 {
		t.Errorf("Expected order [3 1], got [%d %d]", games[0].AppID, games[1].AppID)
	}
}

func TestSearch(t *testing.T) {
	store := &stubStore{games: []models.Game{
		{AppID: 1, Name: "Rust"},
		{AppID: 2, Name: "Trust Fall"},
		{AppID: 3, Name: "Terraria"},
	}}
	tiered := New(store, filepath.Join(t.TempDir(), "snap.json"), "", time.Minute, time.Hour)

	games := tiered.Search(context.Background(), "rust")
	if len(games) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(games))
	}
}

func TestWriteInvalidatesMemory(t *testing.T) {
	store := &stubStore{games: testGames(1)}
	snapPath := filepath.Join(t.TempDir(), "snap.json")
	tiered := New(store, snapPath, "", time.Minute, time.Hour)

	tiered.GetAll(context.Background())
	if err := tiered.Write(testGames(1, 2)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	// The next read resolves through the chain again.
	store.games = testGames(1, 2)
	games := tiered.GetAll(context.Background())
	if len(games) != 2 {
		t.Errorf("Expected fresh read after Write, got %d games", len(games))
	}
	if store.calls != 2 {
		t.Errorf("Expected 2 store calls, got %d", store.calls)
	}
}

func TestIsStale(t *testing.T) {
	snapPath := filepath.Join(t.TempDir(), "snap.json")
	store := &stubStore{}
	tiered := New(store, snapPath, "", time.Minute, time.Hour)

	// Missing snapshot is stale.
	if !tiered.IsStale() {
		t.Error("Expected missing snapshot to be stale")
	}

	writeSnapshotFile(t, snapPath, models.SnapshotVersion, nil)
	if tiered.IsStale() {
		t.Error("Expected fresh snapshot to not be stale")
	}
}

func TestMemoryTTLExpiry(t *testing.T) {
	m := NewMemory(20 * time.Millisecond)
	m.Set(testGames(1))

	if _, ok := m.Get(); !ok {
		t.Fatal("Expected fresh entry")
	}
	time.Sleep(30 * time.Millisecond)
	if _, ok := m.Get(); ok {
		t.Error("Expected entry to expire after TTL")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	snapPath := filepath.Join(t.TempDir(), "snap.json")
	s := NewSnapshotStore(snapPath)

	now := time.Now().UTC().Truncate(time.Second)
	if err := s.Write(testGames(4, 5), now); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	games, err := s.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(games) != 2 || games[0].AppID != 4 {
		t.Errorf("Unexpected games: %v", games)
	}

	updatedAt, err := s.UpdatedAt()
	if err != nil {
		t.Fatalf("UpdatedAt failed: %v", err)
	}
	if !updatedAt.Equal(now) {
		t.Errorf("Expected %v, got %v", now, updatedAt)
	}
}
