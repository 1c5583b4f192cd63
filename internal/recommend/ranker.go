// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package recommend

import "math"

// Alpha returns the weight of the CF score in the blend for a user with n
// ratings: n/(n+k) with k = max(1, threshold), capped at alphaMax.
// Users without ratings get 0.
func Alpha(n, threshold int, alphaMax float64) float64 {
	if n <= 0 {
		return 0
	}
	k := max(1, threshold)
	a := float64(n) / float64(n+k)
	return math.Max(0, math.Min(a, alphaMax))
}

// ScoreCFWithBias predicts user's rating of item from the residuals of the
// pool neighbors who rated it:
//
//	b(u,i) + sum(sim * (r_vi - b(v,i))) / sum(sim)
//
// Every pool member who rated item contributes. Without any contributing
// neighbor the baseline is returned. An item the user already rated scores 0.
func (m *Model) ScoreCFWithBias(user, item int64, pool []Neighbor) float64 {
	if _, ok := m.idx.ByUser[user][item]; ok {
		return 0
	}

	var num, den float64
	for _, n := range pool {
		r, ok := m.idx.ByUser[n.UserID][item]
		if !ok {
			continue
		}
		num += n.Similarity * (r - m.bias.Baseline(n.UserID, item))
		den += n.Similarity
	}

	base := m.bias.Baseline(user, item)
	if den <= 0 {
		return base
	}
	return base + num/den
}

// ScoreCFWithBiasTopK is the per-item variant of ScoreCFWithBias: the
// neighbors are the k users most similar to user among the raters of item.
// A negative k uses Config.KNeighbors.
func (m *Model) ScoreCFWithBiasTopK(user, item int64, k int, sim *Similarity) float64 {
	if _, ok := m.idx.ByUser[user][item]; ok {
		return 0
	}

	if k < 0 {
		k = m.cfg.KNeighbors
	}
	base := m.bias.Baseline(user, item)
	neighbors := sim.TopKSimilarUsersForItem(user, item, k, m.cfg.MaxRatersPerItemCF)
	if len(neighbors) == 0 {
		return base
	}

	var num, den float64
	for _, n := range neighbors {
		num += n.Similarity * (n.Rating - m.bias.Baseline(n.UserID, item))
		den += n.Similarity
	}
	if den <= 0 {
		return base
	}
	return base + num/den
}

// Recommend returns at most n items for user, best first. A nil sim gets a
// fresh similarity engine for this call.
func (m *Model) Recommend(user int64, n int, sim *Similarity) []ScoredItem {
	recs, _ := m.recommend(user, n, sim)
	return recs
}

// recommend also reports the candidate set size.
func (m *Model) recommend(user int64, n int, sim *Similarity) ([]ScoredItem, int) {
	if sim == nil {
		sim = m.NewSimilarity()
	}

	pool := m.BuildNeighborPool(user, sim)
	candidates := m.candidatesFromPool(user, pool)
	if len(candidates) == 0 {
		return nil, 0
	}

	rated := m.idx.RatingCount(user)
	alpha := Alpha(rated, m.threshold, m.cfg.AlphaMax)

	cf := make(map[int64]float64, len(candidates))
	for _, item := range candidates {
		if rated > 0 {
			cf[item] = m.ScoreCFWithBias(user, item, pool)
		} else {
			cf[item] = m.bias.Baseline(user, item)
		}
	}
	cf = NormalizeScores(cf)

	final := make(map[int64]float64, len(candidates))
	for _, item := range candidates {
		final[item] = alpha*cf[item] + (1-alpha)*m.popularity[item]
	}
	return TopN(final, n), len(candidates)
}
