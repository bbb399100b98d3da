// SurviveBase - Survival Crafting Game Catalog
// Copyright 2026 Jiwoo Kim (jwkim-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwkim-dev/survivebase

// Package models defines the canonical data types shared across SurviveBase.
package models

import "time"

// Price holds pricing information in minor currency units (e.g. cents, won).
type Price struct {
	Initial         int  `json:"initial"`
	Final           int  `json:"final"`
	DiscountPercent int  `json:"discount_percent"`
	IsFree          bool `json:"is_free"`
}

// Reviews holds aggregated review counts and the derived score.
// Score is round(positive/(positive+negative)*100), or 0 with no reviews.
type Reviews struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Score    int `json:"score"`
}

// Categories holds the play-mode capability flags derived from Steam category IDs.
type Categories struct {
	Singleplayer bool `json:"singleplayer"`
	Multiplayer  bool `json:"multiplayer"`
	Coop         bool `json:"coop"`
}

// Game is the canonical catalog entry. AppID is the unique key across the
// catalog. Owners is the human-readable SteamSpy ownership range string
// ("1,000,000 .. 2,000,000"). ReleaseDate is empty for unreleased or
// unparseable dates.
type Game struct {
	AppID       int64      `json:"appid"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	HeaderImage string     `json:"header_image"`
	Screenshots []string   `json:"screenshots"`
	Price       Price      `json:"price"`
	Reviews     Reviews    `json:"reviews"`
	ReleaseDate string     `json:"release_date"`
	Tags        []string   `json:"tags"`
	Categories  Categories `json:"categories"`
	Owners      string     `json:"owners"`
	Playtime    int        `json:"playtime"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ReviewLabel returns the Steam-style review summary for a score.
func ReviewLabel(score int) string {
	switch {
	case score >= 95:
		return "Overwhelmingly Positive"
	case score >= 85:
		return "Very Positive"
	case score >= 70:
		return "Positive"
	case score >= 40:
		return "Mixed"
	case score >= 20:
		return "Negative"
	default:
		return "Very Negative"
	}
}
