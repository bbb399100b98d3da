// SurviveBase - Survival Crafting Game Catalog
// Copyright 2026 Jiwoo Kim (jwkim-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwkim-dev/survivebase

package models

import "testing"

func TestReviewLabel(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, "Overwhelmingly Positive"},
		{95, "Overwhelmingly Positive"},
		{94, "Very Positive"},
		{85, "Very Positive"},
		{84, "Positive"},
		{70, "Positive"},
		{69, "Mixed"},
		{40, "Mixed"},
		{39, "Negative"},
		{20, "Negative"},
		{19, "Very Negative"},
		{0, "Very Negative"},
	}

	for _, tt := range tests {
		if got := ReviewLabel(tt.score); got != tt.want {
			t.Errorf("ReviewLabel(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}
