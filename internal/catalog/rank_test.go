// SurviveBase - Survival Crafting Game Catalog
// Copyright 2026 Jiwoo Kim (jwkim-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwkim-dev/survivebase

package catalog

import (
	"testing"

	"github.com/jwkim-dev/survivebase/internal/models"
)

func TestParseOwnersLowerBound(t *testing.T) {
	tests := []struct {
		owners string
		want   int64
	}{
		{"10,000,000 .. 20,000,000", 10000000},
		{"20,000 .. 50,000", 20000},
		{"0 .. 20,000", 0},
		{"", 0},
		{"unknown", 0},
		{"500", 500},
	}

	for _, tt := range tests {
		t.Run(tt.owners, func(t *testing.T) {
			if got := ParseOwnersLowerBound(tt.owners); got != tt.want {
				t.Errorf("ParseOwnersLowerBound(%q) = %d, want %d", tt.owners, got, tt.want)
			}
		})
	}
}

func TestWilsonScore(t *testing.T) {
	if got := WilsonScore(0, 0); got != 0 {
		t.Errorf("WilsonScore(0, 0) = %v, want 0", got)
	}

	// The lower bound is always strictly below the raw proportion.
	raw := 0.9
	got := WilsonScore(90, 100)
	if got >= raw {
		t.Errorf("WilsonScore(90, 100) = %v, expected below %v", got, raw)
	}
	if got < 0.8 {
		t.Errorf("WilsonScore(90, 100) = %v, implausibly low", got)
	}

	// More evidence at the same proportion tightens the bound.
	if WilsonScore(900, 1000) <= WilsonScore(90, 100) {
		t.Error("Expected larger sample to score higher at equal proportion")
	}

	// All-negative yields (close to) zero.
	if WilsonScore(0, 100) > 0.05 {
		t.Errorf("WilsonScore(0, 100) = %v, expected near zero", WilsonScore(0, 100))
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		input  string
		want   Strategy
		wantOK bool
	}{
		{"", StrategyPopular, true},
		{"popular", StrategyPopular, true},
		{"rating", StrategyRating, true},
		{"newest", StrategyNewest, true},
		{"trending", StrategyTrending, true},
		{"rising", StrategyRising, true},
		{"bogus", "", false},
		{"POPULAR", "", false},
	}

	for _, tt := range tests {
		t.Run("input="+tt.input, func(t *testing.T) {
			got, ok := ParseStrategy(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseStrategy(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func rankFixture() []models.Game {
	return []models.Game{
		{AppID: 1, Name: "Big Old", Owners: "10,000,000 .. 20,000,000", ReleaseDate: "1 Jan, 2015",
			Reviews: models.Reviews{Positive: 50, Negative: 50, Score: 50}},
		{AppID: 2, Name: "Small Loved", Owners: "20,000 .. 50,000", ReleaseDate: "15 Mar, 2024",
			Reviews: models.Reviews{Positive: 9500, Negative: 500, Score: 95}},
		{AppID: 3, Name: "Mid New", Owners: "1,000,000 .. 2,000,000", ReleaseDate: "2 Oct, 2025",
			Reviews: models.Reviews{Positive: 700, Negative: 300, Score: 70}},
	}
}

func TestSortStrategies(t *testing.T) {
	tests := []struct {
		strategy Strategy
		want     []int64
	}{
		{StrategyPopular, []int64{1, 3, 2}},
		{StrategyRating, []int64{2, 3, 1}},
		{StrategyNewest, []int64{3, 2, 1}},
		// trending: 10M*0.5=5M, 20k*0.95=19k, 1M*0.7=700k
		{StrategyTrending, []int64{1, 3, 2}},
		{StrategyRising, []int64{2, 3, 1}},
	}

	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			games := rankFixture()
			sorted := Sort(games, tt.strategy)

			for i, wantID := range tt.want {
				if sorted[i].AppID != wantID {
					t.Errorf("Position %d: expected appid %d, got %d", i, wantID, sorted[i].AppID)
				}
			}
			// Input must not be mutated.
			if games[0].AppID != 1 || games[1].AppID != 2 || games[2].AppID != 3 {
				t.Error("Sort mutated its input")
			}
		})
	}
}

func TestSortUnknownStrategyKeepsOrder(t *testing.T) {
	games := rankFixture()
	sorted := Sort(games, Strategy("bogus"))
	for i := range games {
		if sorted[i].AppID != games[i].AppID {
			t.Error("Unknown strategy should preserve input order")
		}
	}
}

func TestReleaseTimeKoreanDate(t *testing.T) {
	games := []models.Game{
		{AppID: 1, ReleaseDate: "2024년 3월 15일"},
		{AppID: 2, ReleaseDate: "1 Jan, 2020"},
	}
	sorted := Sort(games, StrategyNewest)
	if sorted[0].AppID != 1 {
		t.Error("Expected Korean-format date to parse and sort newest first")
	}
}

func TestSortUnparseableDatesLast(t *testing.T) {
	games := []models.Game{
		{AppID: 1, ReleaseDate: "Coming soon"},
		{AppID: 2, ReleaseDate: "1 Jan, 2020"},
	}
	sorted := Sort(games, StrategyNewest)
	if sorted[len(sorted)-1].AppID != 1 {
		t.Error("Expected unparseable release date to sort last under newest")
	}
}
