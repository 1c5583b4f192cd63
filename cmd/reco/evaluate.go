// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package main

import (
	"context"
	"io"

	"github.com/tomtom215/reco/internal/config"
	"github.com/tomtom215/reco/internal/dataset"
	"github.com/tomtom215/reco/internal/recommend"
	"github.com/tomtom215/reco/internal/recommend/evaluation"
)

// runEvaluate splits the ratings, trains the hybrid on the train part and
// prints how it ranks the held-out ratings compared to popularity alone.
// With -dir the MovieLens files are read directly and no database is
// opened.
func runEvaluate(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	opts := evaluationOptions(cfg)

	fs := newFlagSet("evaluate", stderr)
	fs.StringVar(&opts.Split, "split", opts.Split, "split method: loo or ratio")
	fs.Float64Var(&opts.TestRatio, "test-ratio", opts.TestRatio, "held-out share per user for -split ratio")
	fs.Float64Var(&opts.Liked, "liked", opts.Liked, "minimum rating counted as relevant for -split ratio")
	fs.IntVar(&opts.K, "k", opts.K, "cutoff for precision, recall and MAP")
	fs.IntVar(&opts.N, "n", opts.N, "recommendations generated per user")
	fs.IntVar(&opts.Neighbors, "neighbors", opts.Neighbors, "k of the per-item top-k CF variant, 0 for all raters")
	fs.Int64Var(&opts.Seed, "seed", opts.Seed, "seed of the per-user shuffle")
	fs.IntVar(&opts.PopTopP, "pop-top-p", opts.PopTopP, "popular items offered as candidates")
	fs.StringVar(&opts.Algo, "algo", opts.Algo, "name of the evaluated model in the report")
	format := fs.String("format", evaluation.FormatText, "report format: text, json or yaml")
	dir := fs.String("dir", "", "read the MovieLens files of this directory instead of the database")
	if help, err := parseFlags(fs, args); help || err != nil {
		return err
	}

	items, ratings, err := evaluationInputs(ctx, cfg, *dir)
	if err != nil {
		return err
	}

	report, err := evaluation.Run(ctx, items, ratings, opts)
	if err != nil {
		return err
	}
	return report.Write(stdout, *format)
}

func evaluationInputs(ctx context.Context, cfg *config.Config, dir string) ([]int64, []recommend.Rating, error) {
	if dir != "" {
		ds, err := dataset.Load(dir)
		if err != nil {
			return nil, nil, err
		}
		items := make([]int64, len(ds.Items))
		for i := range ds.Items {
			items[i] = ds.Items[i].ID
		}
		return items, ds.Ratings, nil
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	defer closeDatabase(db)

	items, err := db.FetchItems(ctx)
	if err != nil {
		return nil, nil, err
	}
	ratings, err := db.FetchRatings(ctx)
	if err != nil {
		return nil, nil, err
	}
	return items, ratings, nil
}
