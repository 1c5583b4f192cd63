// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package database

import (
	"context"
	"fmt"
	"time"
)

// Table names, also used as metric labels.
const (
	tableUsers           = "users"
	tableItems           = "items"
	tableRatings         = "ratings"
	tableRecommendations = "recommendations"
)

// schemaContext returns the context used by schema statements.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates every table that does not exist yet.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range db.getTableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// getTableCreationQueries returns the DDL shared by both drivers.
//
// Foreign keys are omitted: DuckDB checks them per statement, which breaks
// the delete-and-reload transactions.
func (db *DB) getTableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY,
			username VARCHAR,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			id BIGINT PRIMARY KEY,
			external_id BIGINT NOT NULL,
			title VARCHAR NOT NULL,
			genres VARCHAR NOT NULL DEFAULT '[]'
		)`,
		`CREATE TABLE IF NOT EXISTS ratings (
			id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			item_id BIGINT NOT NULL,
			rating DOUBLE NOT NULL,
			created_at TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, item_id)
		)`,
		`CREATE TABLE IF NOT EXISTS recommendations (
			user_id BIGINT NOT NULL,
			item_id BIGINT NOT NULL,
			score DOUBLE NOT NULL,
			rank INTEGER NOT NULL,
			algo_version VARCHAR NOT NULL,
			run_id VARCHAR NOT NULL DEFAULT '',
			generated_at TIMESTAMP NOT NULL,
			UNIQUE (user_id, item_id)
		)`,
	}
}

// createIndexes creates the read-path indexes.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range db.getIndexQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

func (db *DB) getIndexQueries() []string {
	return []string{
		`CREATE INDEX IF NOT EXISTS idx_ratings_item ON ratings(item_id)`,
		`CREATE INDEX IF NOT EXISTS idx_ratings_id ON ratings(id)`,
		`CREATE INDEX IF NOT EXISTS idx_recommendations_user_rank ON recommendations(user_id, rank)`,
	}
}
