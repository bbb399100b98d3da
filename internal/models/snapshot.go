// SurviveBase - Survival Crafting Game Catalog
// Copyright 2026 Jiwoo Kim (jwkim-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwkim-dev/survivebase

package models

import "time"

// SnapshotVersion is the current snapshot schema version. Snapshots written
// with a different version are treated as absent by the cache tier.
const SnapshotVersion = 1

// Snapshot is the versioned on-disk serialization of the full catalog, used
// as a cache fallback tier and as the bundled seed dataset format.
type Snapshot struct {
	Games     []Game    `json:"games"`
	UpdatedAt time.Time `json:"updatedAt"`
	Version   int       `json:"version"`
}
