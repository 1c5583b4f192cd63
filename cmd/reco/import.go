// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/tomtom215/reco/internal/config"
	"github.com/tomtom215/reco/internal/dataset"
)

// runImport replaces users, items and ratings with the MovieLens files of
// -dir. Stored recommendations are cleared with them.
func runImport(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("import", stderr)
	dir := fs.String("dir", ".", "directory holding "+dataset.MoviesFile+" and "+dataset.RatingsFile)
	if help, err := parseFlags(fs, args); help || err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	stats, err := dataset.NewImporter(*dir, db).Import(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Imported %d users, %d items, %d ratings in %s\n",
		stats.Users, stats.Items, stats.Ratings, stats.Duration().Round(time.Millisecond))
	return nil
}
