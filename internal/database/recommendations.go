// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/reco/internal/logging"
	"github.com/tomtom215/reco/internal/models"
	"github.com/tomtom215/reco/internal/recommend"
)

const insertRecommendation = `INSERT INTO recommendations (
	user_id, item_id, score, rank, algo_version, run_id, generated_at
) VALUES (?, ?, ?, ?, ?, ?, ?)`

// ReplaceRecommendations swaps the whole recommendations table for rows in
// one transaction. On any error the transaction is rolled back and the
// previous rows stay visible.
func (db *DB) ReplaceRecommendations(ctx context.Context, rows []recommend.Row) (err error) {
	start := time.Now()
	defer func() { observe("replace", tableRecommendations, start, err) }()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			rollback(tx, err)
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM recommendations"); err != nil {
		return fmt.Errorf("failed to clear recommendations: %w", err)
	}

	err = insertAll(ctx, tx, insertRecommendation, len(rows), func(i int) []any {
		r := rows[i]
		return []any{r.UserID, r.ItemID, r.Score, r.Rank, r.AlgoVersion, r.RunID, r.GeneratedAt.UTC()}
	})
	if err != nil {
		return fmt.Errorf("failed to insert recommendations: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recommendations: %w", err)
	}

	logging.Debug().
		Int("rows", len(rows)).
		Dur("duration", time.Since(start)).
		Msg("Recommendations replaced")
	return nil
}

// insertAll runs a prepared statement once per row inside tx.
func insertAll(ctx context.Context, tx *sql.Tx, query string, n int, args func(i int) []any) error {
	if n == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer closeWithLog(stmt, "prepared statement")

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}

// UserRecommendations returns up to limit stored recommendations of user,
// best rank first. A non-empty algo keeps only rows of that version.
func (db *DB) UserRecommendations(ctx context.Context, user int64, limit int, algo string) (recs []recommend.Row, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { observe("select", tableRecommendations, start, err) }()

	query := `SELECT user_id, item_id, score, rank, algo_version, run_id, generated_at
		FROM recommendations
		WHERE user_id = ?`
	args := []any{user}
	if algo != "" {
		query += " AND algo_version = ?"
		args = append(args, algo)
	}
	query += " ORDER BY rank LIMIT ?"
	args = append(args, limit)

	return db.queryRecommendations(ctx, query, args...)
}

// AllRecommendations returns the first limit stored rows ordered by user
// and rank.
func (db *DB) AllRecommendations(ctx context.Context, limit int) (recs []recommend.Row, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { observe("select", tableRecommendations, start, err) }()

	return db.queryRecommendations(ctx, `
		SELECT user_id, item_id, score, rank, algo_version, run_id, generated_at
		FROM recommendations
		ORDER BY user_id, rank
		LIMIT ?`, limit)
}

func (db *DB) queryRecommendations(ctx context.Context, query string, args ...any) ([]recommend.Row, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer closeWithLog(rows, "rows")

	recs := make([]recommend.Row, 0)
	for rows.Next() {
		var r recommend.Row
		if err := rows.Scan(&r.UserID, &r.ItemID, &r.Score, &r.Rank, &r.AlgoVersion, &r.RunID, &r.GeneratedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		r.GeneratedAt = r.GeneratedAt.UTC()
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recommendations: %w", err)
	}
	return recs, nil
}

// RecommendationSummary returns the total number of stored rows and the top
// users by row count, ties by ascending user id.
func (db *DB) RecommendationSummary(ctx context.Context, top int) (summary *models.RecommendationSummary, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { observe("aggregate", tableRecommendations, start, err) }()

	summary = &models.RecommendationSummary{TopUsers: make([]models.UserCount, 0)}
	if err = db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM recommendations").Scan(&summary.Total); err != nil {
		return nil, fmt.Errorf("failed to count recommendations: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT user_id, COUNT(*) AS n
		FROM recommendations
		GROUP BY user_id
		ORDER BY n DESC, user_id
		LIMIT ?`, top)
	if err != nil {
		return nil, fmt.Errorf("failed to query top users: %w", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var uc models.UserCount
		if err = rows.Scan(&uc.UserID, &uc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan user count: %w", err)
		}
		summary.TopUsers = append(summary.TopUsers, uc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate top users: %w", err)
	}
	return summary, nil
}
