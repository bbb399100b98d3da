// SurviveBase - Survival Crafting Game Catalog
// Copyright 2026 Jiwoo Kim (jwkim-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwkim-dev/survivebase

package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := c.validateSources(); err != nil {
		return err
	}
	return c.validateJobs()
}

// validateSources checks upstream client settings that struct tags cannot
// express.
func (c *Config) validateSources() error {
	if c.SteamSpy.RequestSpacing < 0 {
		return fmt.Errorf("STEAMSPY_SPACING must not be negative")
	}
	if c.SteamStore.RequestSpacing < 0 {
		return fmt.Errorf("STEAMSTORE_SPACING must not be negative")
	}
	if c.SteamSpy.DedupePolicy != DedupeFirstSeen {
		return fmt.Errorf("STEAMSPY_DEDUPE_POLICY %q is not supported (supported: %q)",
			c.SteamSpy.DedupePolicy, DedupeFirstSeen)
	}
	if c.SteamStore.MaxGamesPerRun < 1 {
		return fmt.Errorf("STEAMSTORE_MAX_GAMES must be at least 1")
	}
	return nil
}

// validateJobs checks the scheduler settings. The incremental budget must be
// strictly tighter than the full budget, matching the narrower entry point.
func (c *Config) validateJobs() error {
	if !c.Jobs.Enabled {
		return nil
	}
	if c.Jobs.FullInterval <= 0 || c.Jobs.IncrementalInterval <= 0 {
		return fmt.Errorf("job intervals must be positive when JOBS_ENABLED=true")
	}
	if c.Jobs.FullBudget <= 0 || c.Jobs.IncrementalBudget <= 0 {
		return fmt.Errorf("job budgets must be positive when JOBS_ENABLED=true")
	}
	if c.Jobs.IncrementalBudget >= c.Jobs.FullBudget {
		return fmt.Errorf("JOBS_INCREMENTAL_BUDGET must be smaller than JOBS_FULL_BUDGET")
	}
	return nil
}
