// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reco/internal/logging"
	"github.com/tomtom215/reco/internal/metrics"
	"github.com/tomtom215/reco/internal/models"
)

// ReplaceDataset clears all four tables and loads ds in one transaction.
// Stored recommendations are dropped with the dataset they were built from.
func (db *DB) ReplaceDataset(ctx context.Context, ds *models.Dataset) (err error) {
	start := time.Now()
	defer func() { observe("replace", "dataset", start, err) }()

	genres := make([]string, len(ds.Items))
	for i, it := range ds.Items {
		g := it.Genres
		if g == nil {
			g = []string{}
		}
		b, mErr := json.Marshal(g)
		if mErr != nil {
			return fmt.Errorf("failed to encode genres of item %d: %w", it.ID, mErr)
		}
		genres[i] = string(b)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			rollback(tx, err)
		}
	}()

	for _, table := range []string{tableRecommendations, tableRatings, tableItems, tableUsers} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil { //nolint:gosec // constant table names
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	loadedAt := start.UTC()
	err = insertAll(ctx, tx, "INSERT INTO users (id, created_at) VALUES (?, ?)", len(ds.Users), func(i int) []any {
		return []any{ds.Users[i], loadedAt}
	})
	if err != nil {
		return fmt.Errorf("failed to insert users: %w", err)
	}

	err = insertAll(ctx, tx, "INSERT INTO items (id, external_id, title, genres) VALUES (?, ?, ?, ?)", len(ds.Items), func(i int) []any {
		it := ds.Items[i]
		return []any{it.ID, it.ExternalID, it.Title, genres[i]}
	})
	if err != nil {
		return fmt.Errorf("failed to insert items: %w", err)
	}

	// Rating ids follow file order.
	err = insertAll(ctx, tx, "INSERT INTO ratings (id, user_id, item_id, rating, created_at) VALUES (?, ?, ?, ?, ?)", len(ds.Ratings), func(i int) []any {
		r := ds.Ratings[i]
		return []any{int64(i + 1), r.UserID, r.ItemID, r.Value, loadedAt}
	})
	if err != nil {
		return fmt.Errorf("failed to insert ratings: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit dataset: %w", err)
	}

	metrics.RecordImport(tableUsers, len(ds.Users))
	metrics.RecordImport(tableItems, len(ds.Items))
	metrics.RecordImport(tableRatings, len(ds.Ratings))

	logging.Info().
		Int("users", len(ds.Users)).
		Int("items", len(ds.Items)).
		Int("ratings", len(ds.Ratings)).
		Dur("duration", time.Since(start)).
		Msg("Dataset replaced")
	return nil
}

// Items returns the catalog ordered by id.
func (db *DB) Items(ctx context.Context) (items []models.Item, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { observe("select", tableItems, start, err) }()

	rows, err := db.conn.QueryContext(ctx, "SELECT id, external_id, title, genres FROM items ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer closeWithLog(rows, "rows")

	items = make([]models.Item, 0)
	for rows.Next() {
		var (
			it     models.Item
			genres string
		)
		if err = rows.Scan(&it.ID, &it.ExternalID, &it.Title, &genres); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		if err = json.Unmarshal([]byte(genres), &it.Genres); err != nil {
			return nil, fmt.Errorf("failed to decode genres of item %d: %w", it.ID, err)
		}
		items = append(items, it)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}
