// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package recommend

import (
	"fmt"
	"runtime"
)

// Config holds the tuning knobs of one recomputation. It is built once per
// run and passed by value.
type Config struct {
	// Candidate generation
	PopTopP          int     // popular items offered to every user
	NeighborPool     int     // neighbors kept per user
	MaxSeedItems     int     // top-rated user items used as seeds
	MaxRatersPerItem int     // raters examined per seed item
	MaxCandidatesCF  int     // CF candidates collected before stopping
	RatingThreshold  float64 // minimum neighbor rating for a CF candidate

	// Scoring
	MaxRatersPerItemCF int     // raters examined by the per-item top-k variant
	KNeighbors         int     // default k of ScoreCFWithBiasTopK, 0 for all raters; the pool prediction ignores it
	AlphaMax           float64 // cap of the CF weight in the blend
	PopularityQuantile float64 // quantile of item counts used as shrinkage m
	RegItem            float64
	RegUser            float64

	// Execution
	Workers          int // batch workers, 0 for runtime.NumCPU()
	SimCacheCapacity int // per-worker similarity cache bound, 0 for unbounded
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		PopTopP:            300,
		NeighborPool:       30,
		MaxSeedItems:       20,
		MaxRatersPerItem:   30,
		MaxCandidatesCF:    600,
		RatingThreshold:    4.0,
		MaxRatersPerItemCF: DefaultMaxRatersPerItemCF,
		KNeighbors:         20,
		AlphaMax:           0.9,
		PopularityQuantile: DefaultPopularityQuantile,
		RegItem:            DefaultRegItem,
		RegUser:            DefaultRegUser,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.PopTopP < 0:
		return fmt.Errorf("pop_top_p must be >= 0, got %d", c.PopTopP)
	case c.NeighborPool < 0:
		return fmt.Errorf("neighbor_pool must be >= 0, got %d", c.NeighborPool)
	case c.MaxSeedItems < 0:
		return fmt.Errorf("max_seed_items must be >= 0, got %d", c.MaxSeedItems)
	case c.MaxRatersPerItem < 0:
		return fmt.Errorf("max_raters_per_item must be >= 0, got %d", c.MaxRatersPerItem)
	case c.MaxCandidatesCF < 0:
		return fmt.Errorf("max_candidates_cf must be >= 0, got %d", c.MaxCandidatesCF)
	case c.MaxRatersPerItemCF < 0:
		return fmt.Errorf("max_raters_per_item_cf must be >= 0, got %d", c.MaxRatersPerItemCF)
	case c.KNeighbors < 0:
		return fmt.Errorf("k_neighbors must be >= 0, got %d", c.KNeighbors)
	case c.AlphaMax < 0 || c.AlphaMax > 1:
		return fmt.Errorf("alpha_max must be within [0, 1], got %v", c.AlphaMax)
	case !(c.PopularityQuantile > 0 && c.PopularityQuantile < 1):
		return fmt.Errorf("popularity_quantile must be strictly between 0 and 1, got %v", c.PopularityQuantile)
	case c.RegItem < 0 || c.RegUser < 0:
		return fmt.Errorf("regularization must be >= 0, got item=%v user=%v", c.RegItem, c.RegUser)
	case c.Workers < 0:
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	case c.SimCacheCapacity < 0:
		return fmt.Errorf("sim_cache_capacity must be >= 0, got %d", c.SimCacheCapacity)
	}
	return nil
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

func (c Config) newCache() SimilarityCache {
	if c.SimCacheCapacity > 0 {
		return NewBoundedSimilarityCache(c.SimCacheCapacity)
	}
	return NewSimilarityCache()
}
