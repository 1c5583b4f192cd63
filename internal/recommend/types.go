// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package recommend

import "time"

// Rating is one explicit rating of an item by a user.
type Rating struct {
	UserID int64
	ItemID int64
	Value  float64
}

// ItemStats is the rating count and mean rating of one item.
type ItemStats struct {
	Count int
	Mean  float64
}

// ScoredItem is an item with a ranking score.
type ScoredItem struct {
	ItemID int64   `json:"item_id"`
	Score  float64 `json:"score"`
}

// Neighbor is a similar user.
type Neighbor struct {
	UserID     int64
	Similarity float64
}

// RatedNeighbor is a similar user together with their rating of one item.
type RatedNeighbor struct {
	UserID     int64
	Similarity float64
	Rating     float64
}

// Row is one persisted recommendation. Rank 1 is the best item for the user.
type Row struct {
	UserID      int64     `json:"user_id"`
	ItemID      int64     `json:"item_id"`
	Score       float64   `json:"score"`
	Rank        int       `json:"rank"`
	AlgoVersion string    `json:"algo_version"`
	RunID       string    `json:"run_id,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// byScoreDesc orders scored items best first with ascending ids on ties.
func byScoreDesc(a, b ScoredItem) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.ItemID < b.ItemID
}
