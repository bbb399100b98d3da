// SurviveBase - Survival Crafting Game Catalog
// Copyright 2026 Jiwoo Kim (jwkim-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwkim-dev/survivebase

// Package config loads and validates SurviveBase configuration via Koanf v2
// with layered sources: built-in defaults, optional YAML config file, and
// environment variables (highest priority).
package config

import "time"

// DedupePolicy selects how records seen under multiple SteamSpy tags are
// combined. Only first-seen-wins is implemented; the policy is an explicit
// configuration point so alternatives can be added without touching callers.
type DedupePolicy string

// DedupeFirstSeen keeps the record from the first tag processed unchanged.
const DedupeFirstSeen DedupePolicy = "first-seen"

// Config is the root configuration for the SurviveBase server.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	SteamSpy   SteamSpyConfig   `koanf:"steamspy"`
	SteamStore SteamStoreConfig `koanf:"steamstore"`
	Catalog    CatalogConfig    `koanf:"catalog"`
	Cache      CacheConfig      `koanf:"cache"`
	Jobs       JobsConfig       `koanf:"jobs"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port" validate:"min=1,max=65535"`

	// AdminToken gates the scheduled-trigger endpoints (collect/update).
	// Requests must carry "Authorization: Bearer <token>".
	AdminToken string `koanf:"admin_token"`

	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`

	CORSOrigins []string `koanf:"cors_origins"`

	// AdminRateLimit is the per-minute request cap on admin endpoints.
	AdminRateLimit int `koanf:"admin_rate_limit"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path" validate:"required"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// SteamSpyConfig holds settings for the tag-indexed SteamSpy API (source A).
// SteamSpy documents ~1 request/second with no concurrent-request allowance,
// so requests are serialized.
type SteamSpyConfig struct {
	URL            string        `koanf:"url" validate:"required,url"`
	RequestSpacing time.Duration `koanf:"request_spacing"`
	Tags           []string      `koanf:"tags" validate:"min=1"`
	DedupePolicy   DedupePolicy  `koanf:"dedupe_policy"`
	RetryAttempts  int           `koanf:"retry_attempts"`
	RetryDelay     time.Duration `koanf:"retry_delay"`
}

// SteamStoreConfig holds settings for the Steam storefront appdetails API
// (source B). Concurrency and spacing are tuned conservatively against the
// storefront's undocumented rate limit (~200 requests per 5 minutes).
type SteamStoreConfig struct {
	URL            string        `koanf:"url" validate:"required,url"`
	Concurrency    int           `koanf:"concurrency" validate:"min=1"`
	RequestSpacing time.Duration `koanf:"request_spacing"`
	CountryCode    string        `koanf:"country_code"`
	Language       string        `koanf:"language"`
	RetryAttempts  int           `koanf:"retry_attempts"`
	RetryDelay     time.Duration `koanf:"retry_delay"`

	// MaxGamesPerRun caps how many appids a single full collection run
	// fetches details for, bounding execution time.
	MaxGamesPerRun int `koanf:"max_games_per_run"`
}

// CatalogConfig holds the inclusion/exclusion tag rules. Matching is
// case-insensitive substring; exclusion short-circuits inclusion.
type CatalogConfig struct {
	RequiredTags []string `koanf:"required_tags" validate:"min=1"`
	ExcludedTags []string `koanf:"excluded_tags"`
}

// CacheConfig holds the tiered catalog cache settings.
type CacheConfig struct {
	SnapshotPath string        `koanf:"snapshot_path" validate:"required"`
	SeedPath     string        `koanf:"seed_path"`
	MemoryTTL    time.Duration `koanf:"memory_ttl"`
	StaleAfter   time.Duration `koanf:"stale_after"`
}

// JobsConfig holds the internal scheduler settings. When disabled, the
// collect/update endpoints remain available for external cron triggers.
type JobsConfig struct {
	Enabled             bool          `koanf:"enabled"`
	FullInterval        time.Duration `koanf:"full_interval"`
	FullBudget          time.Duration `koanf:"full_budget"`
	IncrementalInterval time.Duration `koanf:"incremental_interval"`
	IncrementalBudget   time.Duration `koanf:"incremental_budget"`
	IncrementalBatch    int           `koanf:"incremental_batch" validate:"min=1"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			AdminToken:     "",
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   10 * time.Minute, // collection runs respond on the request
			CORSOrigins:    []string{"*"},
			AdminRateLimit: 10,
		},
		Database: DatabaseConfig{
			Path:      "/data/survivebase.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		SteamSpy: SteamSpyConfig{
			URL:            "https://steamspy.com/api.php",
			RequestSpacing: time.Second, // documented ~1 req/s, no concurrency
			Tags: []string{
				"Survival",
				"Open World",
				"Building",
				"Crafting",
				"Base Building",
				"Sandbox",
				"Resource Management",
			},
			DedupePolicy:  DedupeFirstSeen,
			RetryAttempts: 3,
			RetryDelay:    time.Second,
		},
		SteamStore: SteamStoreConfig{
			URL:            "https://store.steampowered.com/api",
			Concurrency:    2,
			RequestSpacing: 800 * time.Millisecond,
			CountryCode:    "kr",
			Language:       "korean",
			RetryAttempts:  3,
			RetryDelay:     time.Second,
			MaxGamesPerRun: 500,
		},
		Catalog: CatalogConfig{
			// Survival alone would admit battle royale titles, so a
			// crafting/building tag is mandatory.
			RequiredTags: []string{
				"Crafting",
				"Base Building",
				"Building",
				"Resource Management",
				"Automation",
			},
			ExcludedTags: []string{
				"Battle Royale",
				"MOBA",
				"Card Game",
				"Sports",
				"Racing",
				"Fighting",
			},
		},
		Cache: CacheConfig{
			SnapshotPath: "/data/games.json",
			SeedPath:     "data/seed-games.json",
			MemoryTTL:    5 * time.Minute,
			StaleAfter:   24 * time.Hour,
		},
		Jobs: JobsConfig{
			Enabled:             false, // external cron triggers by default
			FullInterval:        24 * time.Hour,
			FullBudget:          10 * time.Minute,
			IncrementalInterval: time.Hour,
			IncrementalBudget:   4 * time.Minute,
			IncrementalBatch:    50,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
