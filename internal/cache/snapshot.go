// SurviveBase - Survival Crafting Game Catalog
// Copyright 2026 Jiwoo Kim (jwkim-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwkim-dev/survivebase

package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"github.com/jwkim-dev/survivebase/internal/logging"
	"github.com/jwkim-dev/survivebase/internal/models"
)

// SnapshotStore reads and writes the versioned catalog snapshot file.
type SnapshotStore struct {
	path string
}

// NewSnapshotStore creates a snapshot store for the given file path.
func NewSnapshotStore(path string) *SnapshotStore {
	return &SnapshotStore{path: path}
}

// Read returns the games from the snapshot file. A snapshot whose schema
// version does not match models.SnapshotVersion is treated as absent, not
// as an error.
func (s *SnapshotStore) Read() ([]models.Game, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", s.path, err)
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", s.path, err)
	}

	if snapshot.Version != models.SnapshotVersion {
		logging.Warn().Int("version", snapshot.Version).Int("expected", models.SnapshotVersion).Msg("Snapshot version mismatch, treating as absent")
		return nil, nil
	}
	return snapshot.Games, nil
}

// UpdatedAt returns the snapshot's write timestamp. An unreadable snapshot
// returns an error; callers treat that as stale.
func (s *SnapshotStore) UpdatedAt() (time.Time, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return time.Time{}, fmt.Errorf("read snapshot %s: %w", s.path, err)
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return time.Time{}, fmt.Errorf("parse snapshot %s: %w", s.path, err)
	}
	return snapshot.UpdatedAt, nil
}

// Write persists a new snapshot with the current timestamp and schema
// version. The write is atomic: a temp file in the same directory is
// renamed over the target.
func (s *SnapshotStore) Write(games []models.Game, now time.Time) error {
	dir := filepath.Dir(s.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create snapshot directory %s: %w", dir, err)
		}
	}

	snapshot := models.Snapshot{
		Games:     games,
		UpdatedAt: now,
		Version:   models.SnapshotVersion,
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".games-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace snapshot: %w", err)
	}

	logging.Info().Int("games", len(games)).Str("path", s.path).Msg("Wrote catalog snapshot")
	return nil
}
