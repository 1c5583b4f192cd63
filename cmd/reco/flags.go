// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package main

import (
	"errors"
	"flag"
	"io"

	"github.com/tomtom215/reco/internal/config"
	"github.com/tomtom215/reco/internal/recommend"
	"github.com/tomtom215/reco/internal/recommend/evaluation"
)

// errUsage reports a flag error already printed by the flag set.
var errUsage = errors.New("usage error")

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("reco "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

// parseFlags maps flag errors to errUsage; -h is not an error.
func parseFlags(fs *flag.FlagSet, args []string) (help bool, err error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return true, nil
		}
		return false, errUsage
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return false, errUsage
	}
	return false, nil
}

// recommendConfig maps the recommend section onto the engine configuration.
func recommendConfig(c *config.RecommendConfig) recommend.Config {
	return recommend.Config{
		PopTopP:            c.PopTopP,
		NeighborPool:       c.NeighborPool,
		MaxSeedItems:       c.MaxSeedItems,
		MaxRatersPerItem:   c.MaxRatersPerItem,
		MaxCandidatesCF:    c.MaxCandidatesCF,
		RatingThreshold:    c.RatingThreshold,
		MaxRatersPerItemCF: c.MaxRatersPerItemCF,
		KNeighbors:         c.KNeighbors,
		AlphaMax:           c.AlphaMax,
		PopularityQuantile: c.PopularityQuantile,
		RegItem:            c.RegItem,
		RegUser:            c.RegUser,
		Workers:            c.Workers,
		SimCacheCapacity:   c.SimCacheCapacity,
	}
}

// recomputeOptions returns the per-run options configured for the batch.
func recomputeOptions(c *config.RecommendConfig) recommend.RecomputeOptions {
	return recommend.RecomputeOptions{
		NPerUser:    c.NPerUser,
		KNeighbors:  c.KNeighbors,
		AlgoVersion: c.AlgoVersion,
	}
}

// evaluationOptions seeds the evaluate flags from the configuration.
func evaluationOptions(cfg *config.Config) evaluation.Options {
	return evaluation.Options{
		Split:     cfg.Evaluate.Split,
		TestRatio: cfg.Evaluate.TestRatio,
		Liked:     cfg.Evaluate.Liked,
		K:         cfg.Evaluate.K,
		N:         cfg.Evaluate.N,
		Neighbors: cfg.Evaluate.Neighbors,
		Seed:      cfg.Evaluate.Seed,
		PopTopP:   cfg.Evaluate.PopTopP,
		Algo:      cfg.Evaluate.Algo,
		Recommend: recommendConfig(&cfg.Recommend),
	}
}
