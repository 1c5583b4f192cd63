// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

/*
database_connection.go - Connection Strings and Pool Configuration

DuckDB:
  - access_mode=read_write, threads (0 means runtime.NumCPU()) and
    max_memory when set
  - extension auto-install and auto-load are disabled so a restricted
    network cannot hang startup; the schema uses no extension

SQLite:
  - foreign_keys pragma enabled
  - busy_timeout so a concurrent reader waits instead of failing

Pool:
  - SQLite and in-memory databases use a single connection; every
    connection to ":memory:" would otherwise see its own empty database
    with SQLite, and SQLite serializes writers anyway
  - DuckDB files use NumCPU connections
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"fmt"
	"net/url"
	"runtime"
	"time"

	"github.com/tomtom215/reco/internal/config"
)

// dataSourceName builds the driver specific connection string.
func dataSourceName(driver string, cfg *config.DatabaseConfig) string {
	switch driver {
	case DriverSQLite:
		q := url.Values{}
		q.Add("_pragma", "foreign_keys(1)")
		q.Add("_pragma", "busy_timeout(5000)")
		return cfg.Path + "?" + q.Encode()
	default:
		threads := cfg.Threads
		if threads <= 0 {
			threads = runtime.NumCPU()
		}
		dsn := fmt.Sprintf("%s?access_mode=read_write&threads=%d&autoinstall_known_extensions=false&autoload_known_extensions=false",
			cfg.Path, threads)
		if cfg.MaxMemory != "" {
			dsn += "&max_memory=" + cfg.MaxMemory
		}
		return dsn
	}
}

// configureConnectionPool sets connection pool parameters
func (db *DB) configureConnectionPool() {
	if db.driver == DriverSQLite || db.cfg.Path == MemoryPath {
		db.conn.SetMaxOpenConns(1)
		db.conn.SetMaxIdleConns(1)
		db.conn.SetConnMaxLifetime(0)
		return
	}

	db.conn.SetMaxOpenConns(runtime.NumCPU())
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}
