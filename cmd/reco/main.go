// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

// Package main is the entry point of the reco command.
//
// reco loads a MovieLens dataset into DuckDB (or SQLite), recomputes the
// hybrid recommendations of every user in one batch, evaluates the model
// offline against a popularity baseline and serves the stored
// recommendations over HTTP.
//
// # Subcommands
//
//	reco import    -dir ./ml-latest-small
//	reco recompute [-n 20] [-k 20] [-algo hybrid_usercf_pop] [-check]
//	reco evaluate  [-split loo|ratio] [-test-ratio 0.2] [-liked 4.0] [-k 10]
//	               [-n 50] [-neighbors 50] [-seed 42] [-pop-top-p 500]
//	               [-algo NAME] [-format text|json|yaml] [-dir DATASET]
//	reco serve
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Command line flags of the subcommand
//   - Environment variables (DB_PATH, RECO_N_PER_USER, SCHEDULE_CRON, HTTP_PORT, ...)
//   - Config file (CONFIG_PATH, ./config.yaml or /etc/reco/config.yaml)
//   - Built-in defaults
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the running command. A cancelled recompute
// writes nothing; serve stops the supervisor tree and shuts the HTTP server
// down gracefully.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/reco/internal/config"
	"github.com/tomtom215/reco/internal/database"
	"github.com/tomtom215/reco/internal/logging"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// command is one subcommand. args excludes the subcommand name.
type command func(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) error

var commands = map[string]command{
	"import":    runImport,
	"recompute": runRecompute,
	"evaluate":  runEvaluate,
	"serve":     runServe,
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return exitUsage
	}
	name := args[0]
	if name == "help" || name == "-h" || name == "--help" {
		usage(stdout)
		return exitOK
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "reco: unknown command %q\n\n", name)
		usage(stderr)
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "reco: %v\n", err)
		return exitError
	}
	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	if err := cmd(ctx, cfg, args[1:], stdout, stderr); err != nil {
		if errors.Is(err, errUsage) {
			return exitUsage
		}
		logging.Error().Err(err).Str("command", name).Msg("Command failed")
		fmt.Fprintf(stderr, "reco %s: %v\n", name, err)
		return exitError
	}
	return exitOK
}

func usage(w io.Writer) {
	fmt.Fprint(w, `Usage: reco <command> [flags]

Commands:
  import     load movies.csv and ratings.csv into the database
  recompute  recompute and store recommendations for every user
  evaluate   compare the hybrid model with the popularity baseline offline
  serve      serve stored recommendations and run scheduled recomputes

Run "reco <command> -h" for the flags of a command.
`)
}

// openDatabase opens the configured store and logs where it lives.
func openDatabase(cfg *config.Config) (*database.DB, error) {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	logging.Info().
		Str("driver", db.Driver()).
		Str("path", db.GetDatabasePath()).
		Msg("Database opened")
	return db, nil
}

// closeDatabase closes db and logs a failure instead of masking the
// command's own result.
func closeDatabase(db *database.DB) {
	if err := db.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing database")
	}
}
