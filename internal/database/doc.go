// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

// Package database stores the rating dataset and the precomputed
// recommendations.
//
// # Overview
//
// DB is the data layer between the batch recompute and a SQL database. It
// implements recommend.DataSource (users, items, ratings and their
// aggregates) and recommend.Sink (full replacement of the recommendations
// table), and serves the read queries of the HTTP API and the CLI.
//
// # Drivers
//
// Two drivers are supported and selected with database.driver:
//   - duckdb (default): github.com/duckdb/duckdb-go/v2, CGO, OLAP-friendly
//     aggregates over the ratings table
//   - sqlite: modernc.org/sqlite, pure Go, for builds without CGO
//
// Both speak the same SQL subset: `?` placeholders, CREATE TABLE IF NOT
// EXISTS, DELETE without TRUNCATE.
//
// # Schema
//
//	users(id)
//	items(id, external_id, title, genres)
//	ratings(user_id, item_id, rating)            PRIMARY KEY (user_id, item_id)
//	recommendations(user_id, item_id, score, rank, algo_version, run_id, generated_at)
//	                                             UNIQUE (user_id, item_id)
//
// genres holds a JSON array of strings.
//
// # Transactions
//
// ReplaceRecommendations and ReplaceDataset delete and reload their tables
// inside one transaction with prepared inserts. Any error rolls the
// transaction back so readers keep seeing the previous rows.
//
// # Usage
//
//	db, err := database.New(&cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	batch := recommend.NewBatch(db, db, recCfg)
//	res, err := batch.RecomputeAll(ctx, opts)
//
// # Metrics
//
// Every query records its duration and errors through
// metrics.RecordDBQuery, labelled by operation and table.
package database
