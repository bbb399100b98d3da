// SurviveBase - Survival Crafting Game Catalog
// Copyright 2026 Jiwoo Kim (jwkim-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwkim-dev/survivebase

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/jwkim-dev/survivebase/internal/logging"
	"github.com/jwkim-dev/survivebase/internal/metrics"
	"github.com/jwkim-dev/survivebase/internal/models"
)

// upsertBatchSize is the number of games written per upsert statement batch.
const upsertBatchSize = 100

// scanPageSize is the page size for full catalog scans.
const scanPageSize = 1000

const gameColumns = `appid, name, description, header_image, screenshots,
	price_initial, price_final, discount_percent, is_free,
	review_positive, review_negative, review_score,
	release_date, tags, singleplayer, multiplayer, coop,
	owners, playtime, updated_at`

const upsertGameSQL = `INSERT INTO games (` + gameColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (appid) DO UPDATE SET
		name = EXCLUDED.name,
		description = EXCLUDED.description,
		header_image = EXCLUDED.header_image,
		screenshots = EXCLUDED.screenshots,
		price_initial = EXCLUDED.price_initial,
		price_final = EXCLUDED.price_final,
		discount_percent = EXCLUDED.discount_percent,
		is_free = EXCLUDED.is_free,
		review_positive = EXCLUDED.review_positive,
		review_negative = EXCLUDED.review_negative,
		review_score = EXCLUDED.review_score,
		release_date = EXCLUDED.release_date,
		tags = EXCLUDED.tags,
		singleplayer = EXCLUDED.singleplayer,
		multiplayer = EXCLUDED.multiplayer,
		coop = EXCLUDED.coop,
		owners = EXCLUDED.owners,
		playtime = EXCLUDED.playtime,
		updated_at = EXCLUDED.updated_at`

// UpsertGames writes games to the store in batches, keyed by appid with
// conflict = overwrite. Partial success: a failed batch is logged and
// skipped, never rolling back earlier batches. Returns the number of games
// written.
func (db *DB) UpsertGames(ctx context.Context, games []models.Game) (int, error) {
	start := time.Now()
	defer func() {
		metrics.DBQueryDuration.WithLabelValues("upsert_games").Observe(time.Since(start).Seconds())
	}()

	written := 0
	for offset := 0; offset < len(games); offset += upsertBatchSize {
		end := min(offset+upsertBatchSize, len(games))
		batch := games[offset:end]

		if err := db.upsertBatch(ctx, batch); err != nil {
			metrics.UpsertBatchErrors.Inc()
			logging.Error().Err(err).Int("from", offset).Int("to", end).Msg("Upsert batch failed, skipping")
			continue
		}
		written += len(batch)
	}

	metrics.GamesUpserted.Add(float64(written))
	if written == 0 && len(games) > 0 {
		return 0, fmt.Errorf("all %d upsert batches failed", (len(games)+upsertBatchSize-1)/upsertBatchSize)
	}
	return written, nil
}

// upsertBatch writes one batch inside a transaction so a batch is all-or-
// nothing.
func (db *DB) upsertBatch(ctx context.Context, batch []models.Game) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, upsertGameSQL)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for i := range batch {
		args, err := gameArgs(&batch[i])
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("upsert appid %d: %w", batch[i].AppID, err)
		}
	}

	return tx.Commit()
}

// gameArgs flattens a Game into upsert statement arguments.
func gameArgs(g *models.Game) ([]interface{}, error) {
	screenshots, err := json.Marshal(g.Screenshots)
	if err != nil {
		return nil, fmt.Errorf("marshal screenshots for appid %d: %w", g.AppID, err)
	}
	tags, err := json.Marshal(g.Tags)
	if err != nil {
		return nil, fmt.Errorf("marshal tags for appid %d: %w", g.AppID, err)
	}

	return []interface{}{
		g.AppID, g.Name, g.Description, g.HeaderImage, string(screenshots),
		g.Price.Initial, g.Price.Final, g.Price.DiscountPercent, g.Price.IsFree,
		g.Reviews.Positive, g.Reviews.Negative, g.Reviews.Score,
		g.ReleaseDate, string(tags),
		g.Categories.Singleplayer, g.Categories.Multiplayer, g.Categories.Coop,
		g.Owners, g.Playtime, g.UpdatedAt,
	}, nil
}

// scanGame reads one games row into a models.Game.
func scanGame(rows interface{ Scan(...interface{}) error }) (models.Game, error) {
	var g models.Game
	var screenshots, tags string

	err := rows.Scan(
		&g.AppID, &g.Name, &g.Description, &g.HeaderImage, &screenshots,
		&g.Price.Initial, &g.Price.Final, &g.Price.DiscountPercent, &g.Price.IsFree,
		&g.Reviews.Positive, &g.Reviews.Negative, &g.Reviews.Score,
		&g.ReleaseDate, &tags,
		&g.Categories.Singleplayer, &g.Categories.Multiplayer, &g.Categories.Coop,
		&g.Owners, &g.Playtime, &g.UpdatedAt,
	)
	if err != nil {
		return g, err
	}

	if err := json.Unmarshal([]byte(screenshots), &g.Screenshots); err != nil {
		g.Screenshots = []string{}
	}
	if err := json.Unmarshal([]byte(tags), &g.Tags); err != nil {
		g.Tags = []string{}
	}
	return g, nil
}

// GetAllGames returns the full catalog ordered by review score descending,
// scanned in pages.
func (db *DB) GetAllGames(ctx context.Context) ([]models.Game, error) {
	start := time.Now()
	defer func() {
		metrics.DBQueryDuration.WithLabelValues("get_all_games").Observe(time.Since(start).Seconds())
	}()

	var all []models.Game
	for offset := 0; ; offset += scanPageSize {
		rows, err := db.conn.QueryContext(ctx,
			`SELECT `+gameColumns+` FROM games ORDER BY review_score DESC, appid LIMIT ? OFFSET ?`,
			scanPageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("query games page at offset %d: %w", offset, err)
		}

		count := 0
		for rows.Next() {
			g, err := scanGame(rows)
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan game: %w", err)
			}
			all = append(all, g)
			count++
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("iterate games page: %w", err)
		}
		rows.Close()

		if count < scanPageSize {
			break
		}
	}
	return all, nil
}

// GetGame returns a single game by appid, or (nil, nil) when absent.
func (db *DB) GetGame(ctx context.Context, appID int64) (*models.Game, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+gameColumns+` FROM games WHERE appid = ?`, appID)

	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get game %d: %w", appID, err)
	}
	return &g, nil
}

// GetGamesByIDs returns the games matching the given appids, preserving the
// input order. Missing appids are silently omitted.
func (db *DB) GetGamesByIDs(ctx context.Context, appIDs []int64) ([]models.Game, error) {
	if len(appIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(appIDs)), ",")
	args := make([]interface{}, len(appIDs))
	for i, id := range appIDs {
		args[i] = id
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+gameColumns+` FROM games WHERE appid IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query games by ids: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]models.Game, len(appIDs))
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		byID[g.AppID] = g
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}

	games := make([]models.Game, 0, len(byID))
	for _, id := range appIDs {
		if g, ok := byID[id]; ok {
			games = append(games, g)
		}
	}
	return games, nil
}

// GetGamesOnSale returns all discounted games ordered by discount descending.
func (db *DB) GetGamesOnSale(ctx context.Context) ([]models.Game, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+gameColumns+` FROM games WHERE discount_percent > 0 ORDER BY discount_percent DESC, appid`)
	if err != nil {
		return nil, fmt.Errorf("query sale games: %w", err)
	}
	defer rows.Close()

	var games []models.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// GetOldestUpdated returns up to limit games with the oldest updated_at
// timestamps, oldest first. This drives incremental refresh rotation.
func (db *DB) GetOldestUpdated(ctx context.Context, limit int) ([]models.Game, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+gameColumns+` FROM games ORDER BY updated_at ASC, appid LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query oldest games: %w", err)
	}
	defer rows.Close()

	var games []models.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// Stats summarizes the catalog for the stats endpoint.
type Stats struct {
	TotalGames  int        `json:"total_games"`
	OnSale      int        `json:"on_sale"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
}

// GetStats returns aggregate catalog counts and the most recent update time.
func (db *DB) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	row := db.conn.QueryRowContext(ctx, `SELECT
		count(*),
		count(*) FILTER (WHERE discount_percent > 0),
		max(updated_at)
	FROM games`)

	var lastUpdated sql.NullTime
	if err := row.Scan(&stats.TotalGames, &stats.OnSale, &lastUpdated); err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	if lastUpdated.Valid {
		stats.LastUpdated = &lastUpdated.Time
	}

	metrics.CatalogSize.Set(float64(stats.TotalGames))
	return stats, nil
}
