// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package models

import (
	"time"

	"github.com/tomtom215/reco/internal/recommend"
)

// User is a rater. Imported users have no username.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Item is one catalog entry. ID is the internal id used by ratings and
// recommendations; ExternalID is the id in the source dataset.
type Item struct {
	ID         int64    `json:"id"`
	ExternalID int64    `json:"external_id"`
	Title      string   `json:"title"`
	Genres     []string `json:"genres"`
}

// RatingRecord is a stored rating with its id, as served by the catalog
// endpoints.
type RatingRecord struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ItemID    int64     `json:"item_id"`
	Rating    float64   `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

// Dataset is a full replacement of the users, items and ratings tables.
type Dataset struct {
	Users   []int64
	Items   []Item
	Ratings []recommend.Rating
}

// Counts are the row counts of the four tables.
type Counts struct {
	Users           int64 `json:"users"`
	Items           int64 `json:"items"`
	Ratings         int64 `json:"ratings"`
	Recommendations int64 `json:"recommendations"`
}

// UserCount is the number of recommendation rows stored for one user.
type UserCount struct {
	UserID int64 `json:"user_id"`
	Count  int64 `json:"count"`
}

// RecommendationSummary is the post-recompute sanity check: the total row
// count and the users holding the most rows.
type RecommendationSummary struct {
	Total    int64       `json:"total"`
	TopUsers []UserCount `json:"top_users"`
}
