// SurviveBase - Survival Crafting Game Catalog
// Copyright 2026 Jiwoo Kim (jwkim-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwkim-dev/survivebase

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/survivebase/config.yaml",
	"/etc/survivebase/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load builds the configuration from layered sources (highest priority wins):
// built-in defaults, YAML config file, environment variables.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Comma-separated env values for slice fields
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps environment variable names to koanf paths.
// Unmapped keys return "" and are skipped, so unrelated environment
// variables cannot pollute the configuration.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server mappings
		"http_host":        "server.host",
		"http_port":        "server.port",
		"admin_token":      "server.admin_token",
		"cron_secret":      "server.admin_token", // external cron convention
		"read_timeout":     "server.read_timeout",
		"write_timeout":    "server.write_timeout",
		"cors_origins":     "server.cors_origins",
		"admin_rate_limit": "server.admin_rate_limit",

		// Database mappings
		"duckdb_path":       "database.path",
		"duckdb_max_memory": "database.max_memory",
		"duckdb_threads":    "database.threads",

		// SteamSpy (source A) mappings
		"steamspy_url":            "steamspy.url",
		"steamspy_spacing":        "steamspy.request_spacing",
		"steamspy_tags":           "steamspy.tags",
		"steamspy_dedupe_policy":  "steamspy.dedupe_policy",
		"steamspy_retry_attempts": "steamspy.retry_attempts",
		"steamspy_retry_delay":    "steamspy.retry_delay",

		// Steam storefront (source B) mappings
		"steamstore_url":            "steamstore.url",
		"steamstore_concurrency":    "steamstore.concurrency",
		"steamstore_spacing":        "steamstore.request_spacing",
		"steamstore_country":        "steamstore.country_code",
		"steamstore_language":       "steamstore.language",
		"steamstore_retry_attempts": "steamstore.retry_attempts",
		"steamstore_retry_delay":    "steamstore.retry_delay",
		"steamstore_max_games":      "steamstore.max_games_per_run",

		// Catalog filter mappings
		"catalog_required_tags": "catalog.required_tags",
		"catalog_excluded_tags": "catalog.excluded_tags",

		// Cache mappings
		"snapshot_path":    "cache.snapshot_path",
		"seed_path":        "cache.seed_path",
		"cache_memory_ttl": "cache.memory_ttl",
		"cache_stale_after": "cache.stale_after",

		// Job scheduler mappings
		"jobs_enabled":              "jobs.enabled",
		"jobs_full_interval":        "jobs.full_interval",
		"jobs_full_budget":          "jobs.full_budget",
		"jobs_incremental_interval": "jobs.incremental_interval",
		"jobs_incremental_budget":   "jobs.incremental_budget",
		"jobs_incremental_batch":    "jobs.incremental_batch",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}

// sliceFields are koanf paths that may arrive from the environment as a
// single comma-separated string and must be split into []string.
var sliceFields = []string{
	"server.cors_origins",
	"steamspy.tags",
	"catalog.required_tags",
	"catalog.excluded_tags",
}

// processSliceFields splits comma-separated env strings into string slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceFields {
		raw := k.Get(path)
		s, ok := raw.(string)
		if !ok {
			continue
		}
		parts := strings.Split(s, ",")
		values := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				values = append(values, trimmed)
			}
		}
		if err := k.Set(path, values); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}
