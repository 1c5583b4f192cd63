// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package recommend

import "fmt"

// Inputs is everything a Model is computed from.
type Inputs struct {
	Items      []int64 // catalog
	Ratings    []Rating
	ItemStats  map[int64]ItemStats
	GlobalMean float64
}

// Model holds the per-batch state shared by every user: rating indices,
// popularity, bias terms and the profile maturity threshold. It is
// read-only once built and safe for concurrent use; similarity state lives
// in the per-goroutine Similarity passed to its methods.
type Model struct {
	cfg        Config
	idx        *Index
	catalog    map[int64]struct{}
	popularity map[int64]float64
	popTop     []int64
	bias       *BiasModel
	threshold  int
}

// NewModel computes the shared state of one batch. It fails when cfg is
// invalid or when there are no ratings to derive the maturity threshold from.
func NewModel(in Inputs, cfg Config) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recommend config: %w", err)
	}

	threshold, err := ProfileMaturityThreshold(in.Ratings)
	if err != nil {
		return nil, err
	}

	pop, err := ComputePopularity(in.ItemStats, in.GlobalMean, nil, cfg.PopularityQuantile)
	if err != nil {
		return nil, fmt.Errorf("popularity: %w", err)
	}

	catalog := make(map[int64]struct{}, len(in.Items))
	for _, id := range in.Items {
		catalog[id] = struct{}{}
	}

	return &Model{
		cfg:        cfg,
		idx:        NewIndex(in.Ratings),
		catalog:    catalog,
		popularity: pop,
		popTop:     TopPItems(pop, cfg.PopTopP),
		bias:       ComputeBiases(in.Ratings, cfg.RegItem, cfg.RegUser),
		threshold:  threshold,
	}, nil
}

// Config returns the configuration the model was built with.
func (m *Model) Config() Config { return m.cfg }

// Index returns the rating index.
func (m *Model) Index() *Index { return m.idx }

// Popularity returns the normalized popularity score of every item with stats.
// The map is shared and must not be modified.
func (m *Model) Popularity() map[int64]float64 { return m.popularity }

// Bias returns the fitted bias model.
func (m *Model) Bias() *BiasModel { return m.bias }

// Threshold returns the profile maturity threshold.
func (m *Model) Threshold() int { return m.threshold }

// NewSimilarity returns a similarity engine over the model's index with a
// fresh cache sized by Config.SimCacheCapacity.
func (m *Model) NewSimilarity() *Similarity {
	return NewSimilarity(m.idx, m.cfg.newCache())
}
