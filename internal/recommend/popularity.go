// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package recommend

import (
	"math"
	"sort"

	"github.com/tomtom215/reco/internal/cache"
)

// DefaultPopularityQuantile is the quantile of item rating counts used as
// the shrinkage strength m when none is supplied.
const DefaultPopularityQuantile = 0.80

// ChooseM returns the q-quantile of counts: the value at index
// ceil(q*len)-1 of the ascending counts, clamped to the slice bounds.
func ChooseM(counts []int, q float64) (float64, error) {
	if len(counts) == 0 {
		return 0, invalidArgument("choose m", len(counts), "count list is empty")
	}
	if !(q > 0 && q < 1) {
		return 0, invalidArgument("choose m", q, "quantile must be strictly between 0 and 1")
	}

	sorted := make([]int, len(counts))
	copy(sorted, counts)
	sort.Ints(sorted)

	idx := int(math.Ceil(q*float64(len(sorted)))) - 1
	idx = max(0, min(idx, len(sorted)-1))
	return float64(sorted[idx]), nil
}

// NormalizeScores min-max normalizes scores into [0, 1].
// An empty map yields an empty map; a map without spread maps every item to 0.
func NormalizeScores(scores map[int64]float64) map[int64]float64 {
	out := make(map[int64]float64, len(scores))
	if len(scores) == 0 {
		return out
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range scores {
		lo = math.Min(lo, s)
		hi = math.Max(hi, s)
	}

	if hi == lo {
		for id := range scores {
			out[id] = 0
		}
		return out
	}

	span := hi - lo
	for id, s := range scores {
		out[id] = (s - lo) / span
	}
	return out
}

// ComputePopularity scores each item by Bayesian shrinkage of its mean
// rating toward the global mean:
//
//	score = v/(v+m)*R + m/(v+m)*G
//
// where v is the item's rating count and R its mean. When m is nil it is
// derived with ChooseM(counts, q). The result is min-max normalized.
func ComputePopularity(stats map[int64]ItemStats, globalMean float64, m *float64, q float64) (map[int64]float64, error) {
	if len(stats) == 0 {
		return map[int64]float64{}, nil
	}
	if !(q > 0 && q < 1) {
		return nil, invalidArgument("compute popularity", q, "quantile must be strictly between 0 and 1")
	}

	var shrink float64
	if m != nil {
		shrink = *m
	} else {
		counts := make([]int, 0, len(stats))
		for _, s := range stats {
			counts = append(counts, s.Count)
		}
		var err error
		if shrink, err = ChooseM(counts, q); err != nil {
			return nil, err
		}
	}

	raw := make(map[int64]float64, len(stats))
	for id, s := range stats {
		v := float64(s.Count)
		denom := v + shrink
		if denom <= 0 {
			raw[id] = globalMean
			continue
		}
		raw[id] = v/denom*s.Mean + shrink/denom*globalMean
	}
	return NormalizeScores(raw), nil
}

// TopPItems returns the ids of the p highest scores, best first, ties by
// ascending id. It returns nil when p <= 0 or scores is empty.
func TopPItems(scores map[int64]float64, p int) []int64 {
	top := TopN(scores, p)
	if len(top) == 0 {
		return nil
	}
	ids := make([]int64, len(top))
	for i, s := range top {
		ids[i] = s.ItemID
	}
	return ids
}

// TopN returns the n highest scored items, best first, ties by ascending id.
func TopN(scores map[int64]float64, n int) []ScoredItem {
	if n <= 0 || len(scores) == 0 {
		return nil
	}
	top := cache.NewTopK(n, byScoreDesc)
	for id, s := range scores {
		top.Push(ScoredItem{ItemID: id, Score: s})
	}
	return top.Sorted()
}
