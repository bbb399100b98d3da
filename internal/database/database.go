// SurviveBase - Survival Crafting Game Catalog
// Copyright 2026 Jiwoo Kim (jwkim-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwkim-dev/survivebase

// Package database provides the DuckDB-backed primary store for the catalog.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/jwkim-dev/survivebase/internal/config"
	"github.com/jwkim-dev/survivebase/internal/logging"
)

// DB wraps the DuckDB connection and provides catalog data access methods.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
}

// New opens the DuckDB database and initializes the schema.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// Ensure the parent directory exists for file-backed databases.
	dbDir := filepath.Dir(cfg.Path)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
		}
	}

	dsn := fmt.Sprintf("%s?threads=%d", cfg.Path, numThreads)
	if cfg.MaxMemory != "" {
		dsn += fmt.Sprintf("&max_memory=%s", cfg.MaxMemory)
	}

	conn, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{conn: conn, cfg: cfg}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Info().Str("path", cfg.Path).Int("threads", numThreads).Msg("Database initialized")
	return db, nil
}

// initSchema creates the games table if it does not exist. Screenshots and
// tags are stored as JSON-encoded strings to keep the scan path simple.
func (db *DB) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS games (
		appid            BIGINT PRIMARY KEY,
		name             VARCHAR NOT NULL,
		description      VARCHAR,
		header_image     VARCHAR,
		screenshots      VARCHAR,
		price_initial    INTEGER NOT NULL DEFAULT 0,
		price_final      INTEGER NOT NULL DEFAULT 0,
		discount_percent INTEGER NOT NULL DEFAULT 0,
		is_free          BOOLEAN NOT NULL DEFAULT false,
		review_positive  INTEGER NOT NULL DEFAULT 0,
		review_negative  INTEGER NOT NULL DEFAULT 0,
		review_score     INTEGER NOT NULL DEFAULT 0,
		release_date     VARCHAR,
		tags             VARCHAR,
		singleplayer     BOOLEAN NOT NULL DEFAULT false,
		multiplayer      BOOLEAN NOT NULL DEFAULT false,
		coop             BOOLEAN NOT NULL DEFAULT false,
		owners           VARCHAR,
		playtime         INTEGER NOT NULL DEFAULT 0,
		updated_at       TIMESTAMP NOT NULL
	)`

	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("create games table: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
