// SurviveBase - Survival Crafting Game Catalog
// Copyright 2026 Jiwoo Kim (jwkim-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwkim-dev/survivebase

// Package catalog joins SteamSpy and Steam storefront records into canonical
// catalog entries, filters them by tag rules, and ranks them.
package catalog

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jwkim-dev/survivebase/internal/config"
	"github.com/jwkim-dev/survivebase/internal/logging"
	"github.com/jwkim-dev/survivebase/internal/models"
	"github.com/jwkim-dev/survivebase/internal/source"
)

// headerImageURL is the CDN location of a game's header image, derivable
// from the appid alone when the storefront record is missing.
const headerImageURL = "https://cdn.akamai.steamstatic.com/steam/apps/%d/header.jpg"

// ReviewScore computes the 0-100 review score: round(positive/total*100),
// or 0 when there are no reviews.
func ReviewScore(positive, negative int) int {
	total := positive + negative
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(positive) / float64(total) * 100))
}

// Filter decides catalog membership from a game's tag list.
type Filter struct {
	required []string
	excluded []string
}

// NewFilter builds a Filter from configuration, lowercasing the patterns
// once up front.
func NewFilter(cfg *config.CatalogConfig) *Filter {
	return &Filter{
		required: lowerAll(cfg.RequiredTags),
		excluded: lowerAll(cfg.ExcludedTags),
	}
}

func lowerAll(patterns []string) []string {
	out := make([]string, len(patterns))
	for i, p := range patterns {
		out[i] = strings.ToLower(p)
	}
	return out
}

// ShouldInclude reports whether a game with the given tags belongs in the
// catalog. Matching is case-insensitive substring. Exclusion is evaluated
// first and short-circuits: any excluded pattern matching any tag rejects
// the game. Otherwise at least one required pattern must match.
func (f *Filter) ShouldInclude(tags []string) bool {
	lower := lowerAll(tags)

	for _, excluded := range f.excluded {
		for _, tag := range lower {
			if strings.Contains(tag, excluded) {
				return false
			}
		}
	}

	for _, required := range f.required {
		for _, tag := range lower {
			if strings.Contains(tag, required) {
				return true
			}
		}
	}
	return false
}

// MergeOne joins one SteamSpy record with its optional storefront record
// into a canonical entry. Tags and review counts always come from SteamSpy:
// the storefront's genre list never feeds the canonical tag field, and the
// score is always derived from SteamSpy's positive/negative counts. When
// the storefront record is absent, a partial entry is synthesized with the
// CDN header image URL, empty description and screenshots, and all
// capability flags false.
func MergeOne(tag source.TagRecord, detail *source.DetailRecord, now time.Time) models.Game {
	game := models.Game{
		AppID: tag.AppID,
		Name:  tag.Name,
		Reviews: models.Reviews{
			Positive: tag.Positive,
			Negative: tag.Negative,
			Score:    ReviewScore(tag.Positive, tag.Negative),
		},
		Tags:      tag.Tags,
		Owners:    tag.Owners,
		Playtime:  tag.AveragePlaytime,
		UpdatedAt: now,
	}

	if detail == nil {
		game.HeaderImage = fmt.Sprintf(headerImageURL, tag.AppID)
		game.Screenshots = []string{}
		return game
	}

	if detail.Name != "" {
		game.Name = detail.Name
	}
	game.Description = detail.Description
	game.HeaderImage = detail.HeaderImage
	game.Screenshots = detail.Screenshots
	game.Price = detail.Price
	game.ReleaseDate = detail.ReleaseDate
	game.Categories = detail.Categories
	return game
}

// MergeAll merges every SteamSpy record that passes the filter with its
// optional storefront record. Membership requires the SteamSpy side: appids
// present only in the detail map never enter the catalog. Entries come back
// in ascending appid order. The second return value counts filtered-out
// games.
func MergeAll(tags map[int64]source.TagRecord, details map[int64]*source.DetailRecord, filter *Filter, now time.Time) ([]models.Game, int) {
	appIDs := make([]int64, 0, len(tags))
	for appID := range tags {
		appIDs = append(appIDs, appID)
	}
	sort.Slice(appIDs, func(i, j int) bool { return appIDs[i] < appIDs[j] })

	games := make([]models.Game, 0, len(appIDs))
	filtered := 0

	for _, appID := range appIDs {
		tag := tags[appID]
		if !filter.ShouldInclude(tag.Tags) {
			filtered++
			continue
		}
		games = append(games, MergeOne(tag, details[appID], now))
	}

	if filtered > 0 {
		logging.Info().Int("filtered", filtered).Msg("Filtered games without required tags or with excluded tags")
	}
	return games, filtered
}
