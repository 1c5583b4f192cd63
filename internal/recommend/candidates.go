// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package recommend

import (
	"sort"

	"github.com/tomtom215/reco/internal/cache"
)

// BuildNeighborPool returns the users most similar to user, found through
// the raters of the user's top-rated items. Each neighbor carries the
// highest positive similarity seen. The pool is ordered by similarity
// descending, ties by ascending user id, and holds at most
// Config.NeighborPool entries.
func (m *Model) BuildNeighborPool(user int64, sim *Similarity) []Neighbor {
	seen := m.idx.ByUser[user]
	if len(seen) == 0 || m.cfg.NeighborPool <= 0 {
		return nil
	}

	best := make(map[int64]float64)
	for _, seed := range TopN(seen, m.cfg.MaxSeedItems) {
		for _, r := range sim.topRaters(seed.ItemID, m.cfg.MaxRatersPerItem) {
			if r.user == user {
				continue
			}
			s := sim.Between(user, r.user)
			if s > best[r.user] {
				best[r.user] = s
			}
		}
	}
	if len(best) == 0 {
		return nil
	}

	top := cache.NewTopK(m.cfg.NeighborPool, func(a, b Neighbor) bool {
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		return a.UserID < b.UserID
	})
	for id, s := range best {
		top.Push(Neighbor{UserID: id, Similarity: s})
	}
	return top.Sorted()
}

// BuildCandidates returns the items eligible for ranking for user in
// ascending id order: the popular items plus the well-rated items of the
// user's neighbor pool, restricted to the catalog, minus the items the user
// has already rated. A user without ratings gets the popular items.
func (m *Model) BuildCandidates(user int64, sim *Similarity) []int64 {
	return m.candidatesFromPool(user, m.BuildNeighborPool(user, sim))
}

func (m *Model) candidatesFromPool(user int64, pool []Neighbor) []int64 {
	seen := m.idx.ByUser[user]
	if len(seen) == 0 {
		out := make([]int64, len(m.popTop))
		copy(out, m.popTop)
		sortIDs(out)
		return out
	}

	union := make(map[int64]struct{}, len(m.popTop)+m.cfg.MaxCandidatesCF)
	for _, id := range m.popTop {
		union[id] = struct{}{}
	}

	if len(pool) > 0 {
		cf := make(map[int64]struct{})
	collect:
		for _, n := range pool {
			profile := m.idx.ByUser[n.UserID]
			for _, item := range profile.sortedKeys() {
				if len(cf) >= m.cfg.MaxCandidatesCF {
					break collect
				}
				if _, ok := seen[item]; ok {
					continue
				}
				if profile[item] >= m.cfg.RatingThreshold {
					cf[item] = struct{}{}
				}
			}
		}
		for id := range cf {
			union[id] = struct{}{}
		}
	}

	out := make([]int64, 0, len(union))
	for id := range union {
		if _, ok := m.catalog[id]; !ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		out = append(out, id)
	}
	sortIDs(out)
	return out
}

func sortIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
