// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/reco/internal/metrics"
	"github.com/tomtom215/reco/internal/models"
)

const defaultQueryTimeout = 30 * time.Second

// ensureContext bounds ctx with the configured query timeout if it has no
// deadline of its own.
func (db *DB) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := db.cfg.QueryTimeout
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	if ctx == nil {
		return context.WithTimeout(context.Background(), timeout)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}
	return ctx, func() {}
}

// observe records the duration and outcome of one query. A missing row or
// a conflict is an answer, not a query error.
func observe(operation, table string, start time.Time, err error) {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
		err = nil
	}
	metrics.RecordDBQuery(operation, table, time.Since(start), err)
}

// Checkpoint flushes the write-ahead log into the database file.
func (db *DB) Checkpoint(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := "CHECKPOINT"
	if db.driver == DriverSQLite {
		query = "PRAGMA wal_checkpoint(TRUNCATE)"
	}
	if _, err := db.conn.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to checkpoint: %w", err)
	}
	return nil
}

// GetDatabasePath returns the database file path
func (db *DB) GetDatabasePath() string {
	return db.cfg.Path
}

// Counts returns the row count of every table.
func (db *DB) Counts(ctx context.Context) (counts models.Counts, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { observe("count", "all", start, err) }()

	targets := []struct {
		table string
		dst   *int64
	}{
		{tableUsers, &counts.Users},
		{tableItems, &counts.Items},
		{tableRatings, &counts.Ratings},
		{tableRecommendations, &counts.Recommendations},
	}
	for _, t := range targets {
		// Table names come from the constant list above.
		if err = db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t.table).Scan(t.dst); err != nil { //nolint:gosec
			return models.Counts{}, fmt.Errorf("failed to count %s: %w", t.table, err)
		}
	}
	return counts, nil
}
