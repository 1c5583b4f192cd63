// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/reco/internal/recommend"
)

// FetchUsers returns every user id in ascending order.
func (db *DB) FetchUsers(ctx context.Context) ([]int64, error) {
	return db.queryIDs(ctx, tableUsers, "SELECT id FROM users ORDER BY id")
}

// FetchItems returns every catalog item id in ascending order.
func (db *DB) FetchItems(ctx context.Context) ([]int64, error) {
	return db.queryIDs(ctx, tableItems, "SELECT id FROM items ORDER BY id")
}

func (db *DB) queryIDs(ctx context.Context, table, query string) (ids []int64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { observe("select", table, start, err) }()

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer closeWithLog(rows, "rows")

	ids = make([]int64, 0)
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan %s id: %w", table, err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", table, err)
	}
	return ids, nil
}

// FetchRatings returns every rating ordered by user then item.
func (db *DB) FetchRatings(ctx context.Context) (ratings []recommend.Rating, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { observe("select", tableRatings, start, err) }()

	rows, err := db.conn.QueryContext(ctx,
		"SELECT user_id, item_id, rating FROM ratings ORDER BY user_id, item_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer closeWithLog(rows, "rows")

	ratings = make([]recommend.Rating, 0)
	for rows.Next() {
		var r recommend.Rating
		if err = rows.Scan(&r.UserID, &r.ItemID, &r.Value); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ratings: %w", err)
	}
	return ratings, nil
}

// FetchItemStats returns the rating count and mean of every rated item.
func (db *DB) FetchItemStats(ctx context.Context) (stats map[int64]recommend.ItemStats, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { observe("aggregate", tableRatings, start, err) }()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT item_id, COUNT(*) AS n, AVG(rating) AS mean
		FROM ratings
		GROUP BY item_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query item stats: %w", err)
	}
	defer closeWithLog(rows, "rows")

	stats = make(map[int64]recommend.ItemStats)
	for rows.Next() {
		var (
			id int64
			s  recommend.ItemStats
		)
		if err = rows.Scan(&id, &s.Count, &s.Mean); err != nil {
			return nil, fmt.Errorf("failed to scan item stats: %w", err)
		}
		stats[id] = s
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate item stats: %w", err)
	}
	return stats, nil
}

// FetchGlobalMeanRating returns the mean of all ratings, 0 without ratings.
func (db *DB) FetchGlobalMeanRating(ctx context.Context) (mean float64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { observe("aggregate", tableRatings, start, err) }()

	if err = db.conn.QueryRowContext(ctx, "SELECT COALESCE(AVG(rating), 0.0) FROM ratings").Scan(&mean); err != nil {
		return 0, fmt.Errorf("failed to query global mean rating: %w", err)
	}
	return mean, nil
}
