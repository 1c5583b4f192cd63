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

// DefaultMaxRatersPerItemCF caps the raters examined by TopKSimilarUsersForItem.
const DefaultMaxRatersPerItemCF = 200

// pairKey is an unordered user pair with the smaller id first.
type pairKey struct {
	lo, hi int64
}

func canonicalPair(u, v int64) pairKey {
	if u > v {
		u, v = v, u
	}
	return pairKey{lo: u, hi: v}
}

// SimilarityCache memoizes user-user similarities. Implementations key by
// the unordered pair, so (u, v) and (v, u) share one entry. A cache belongs
// to a single goroutine unless the implementation says otherwise.
type SimilarityCache interface {
	Get(u, v int64) (float64, bool)
	Put(u, v int64, sim float64)
	Len() int
}

type mapSimilarityCache map[pairKey]float64

// NewSimilarityCache returns an unbounded cache for the lifetime of one batch worker.
func NewSimilarityCache() SimilarityCache {
	return make(mapSimilarityCache)
}

func (c mapSimilarityCache) Get(u, v int64) (float64, bool) {
	s, ok := c[canonicalPair(u, v)]
	return s, ok
}

func (c mapSimilarityCache) Put(u, v int64, sim float64) {
	c[canonicalPair(u, v)] = sim
}

func (c mapSimilarityCache) Len() int {
	return len(c)
}

type lruSimilarityCache struct {
	lru *cache.LRU[pairKey, float64]
}

// NewBoundedSimilarityCache returns a cache holding at most capacity pairs,
// evicting the least recently used. It is safe for concurrent use.
func NewBoundedSimilarityCache(capacity int) SimilarityCache {
	return &lruSimilarityCache{lru: cache.NewLRU[pairKey, float64](capacity)}
}

func (c *lruSimilarityCache) Get(u, v int64) (float64, bool) {
	return c.lru.Get(canonicalPair(u, v))
}

func (c *lruSimilarityCache) Put(u, v int64, sim float64) {
	c.lru.Add(canonicalPair(u, v), sim)
}

func (c *lruSimilarityCache) Len() int {
	return c.lru.Len()
}

// Cosine returns the cosine similarity of two rating profiles over the
// items both rated, within [-1, 1]. It is 0 when either profile is empty, when they share
// no item, or when the overlap has zero norm.
func Cosine(a, b Profile) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}

	common := make([]int64, 0, len(small))
	for item := range small {
		if _, ok := large[item]; ok {
			common = append(common, item)
		}
	}
	// Summing in item order makes the result bit-identical for (a, b) and (b, a).
	sort.Slice(common, func(i, j int) bool { return common[i] < common[j] })

	var num, denA, denB float64
	for _, item := range common {
		ra, rb := a[item], b[item]
		num += ra * rb
		denA += ra * ra
		denB += rb * rb
	}
	if denA <= 0 || denB <= 0 {
		return 0
	}
	// Rounding can push parallel profiles just past 1.
	return math.Max(-1, math.Min(1, num/(math.Sqrt(denA)*math.Sqrt(denB))))
}

// Similarity computes memoized user-user cosine similarities over an Index.
// It is not safe for concurrent use; give each goroutine its own.
type Similarity struct {
	idx    *Index
	cache  SimilarityCache
	hits   int64
	misses int64
}

// NewSimilarity returns a similarity engine over idx. A nil cache is
// replaced with an unbounded one.
func NewSimilarity(idx *Index, c SimilarityCache) *Similarity {
	if c == nil {
		c = NewSimilarityCache()
	}
	return &Similarity{idx: idx, cache: c}
}

// Between returns the similarity of users u and v, computing it at most once.
func (s *Similarity) Between(u, v int64) float64 {
	if sim, ok := s.cache.Get(u, v); ok {
		s.hits++
		return sim
	}
	s.misses++
	sim := Cosine(s.idx.ByUser[u], s.idx.ByUser[v])
	s.cache.Put(u, v, sim)
	return sim
}

// CacheStats returns cache hits, misses and the current cache size.
func (s *Similarity) CacheStats() (hits, misses int64, size int) {
	return s.hits, s.misses, s.cache.Len()
}

type rater struct {
	user   int64
	rating float64
}

// topRaters returns up to n raters of item with the highest ratings,
// ties by ascending user id.
func (s *Similarity) topRaters(item int64, n int) []rater {
	raters := s.idx.ByItem[item]
	if len(raters) == 0 || n <= 0 {
		return nil
	}
	top := cache.NewTopK(n, func(a, b rater) bool {
		if a.rating != b.rating {
			return a.rating > b.rating
		}
		return a.user < b.user
	})
	for user, r := range raters {
		top.Push(rater{user: user, rating: r})
	}
	return top.Sorted()
}

// TopKSimilarUsersForItem returns the users most similar to user among the
// top maxRaters raters of item (by their rating of it). The user itself and
// non-positive similarities are excluded. The result is ordered by
// similarity descending and holds at most k entries, or all when k <= 0.
func (s *Similarity) TopKSimilarUsersForItem(user, item int64, k, maxRaters int) []RatedNeighbor {
	raters := s.topRaters(item, maxRaters)

	out := make([]RatedNeighbor, 0, len(raters))
	for _, r := range raters {
		if r.user == user {
			continue
		}
		sim := s.Between(user, r.user)
		if sim <= 0 {
			continue
		}
		out = append(out, RatedNeighbor{UserID: r.user, Similarity: sim, Rating: r.rating})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].UserID < out[j].UserID
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}
