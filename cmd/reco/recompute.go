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
	"github.com/tomtom215/reco/internal/recommend"
)

// checkTopUsers is the number of users listed by -check.
const checkTopUsers = 5

func runRecompute(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	opts := recomputeOptions(&cfg.Recommend)

	fs := newFlagSet("recompute", stderr)
	fs.IntVar(&opts.NPerUser, "n", opts.NPerUser, "recommendations stored per user")
	fs.IntVar(&opts.KNeighbors, "k", opts.KNeighbors, "k of the per-item top-k CF variant, 0 for all raters")
	fs.StringVar(&opts.AlgoVersion, "algo", opts.AlgoVersion, "algorithm version tag stored with every row")
	check := fs.Bool("check", false, "print the stored row count and the top users afterwards")
	if help, err := parseFlags(fs, args); help || err != nil {
		return err
	}
	if opts.NPerUser < 1 {
		return fmt.Errorf("-n must be >= 1, got %d", opts.NPerUser)
	}
	if opts.KNeighbors < 0 {
		return fmt.Errorf("-k must be >= 0, got %d", opts.KNeighbors)
	}

	rcfg := recommendConfig(&cfg.Recommend)
	if err := rcfg.Validate(); err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	res, err := recommend.NewBatch(db, db, rcfg).RecomputeAll(ctx, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %d recommendations for %d users (algo %s, run %s) in %s\n",
		res.Rows, res.Users, res.AlgoVersion, res.RunID, res.Duration.Round(time.Millisecond))

	if !*check {
		return nil
	}
	summary, err := db.RecommendationSummary(ctx, checkTopUsers)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Stored recommendations: %d\n", summary.Total)
	for _, u := range summary.TopUsers {
		fmt.Fprintf(stdout, "  user %d: %d\n", u.UserID, u.Count)
	}
	return nil
}
