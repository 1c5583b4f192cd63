// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package recommend

import "sort"

// Profile maps item id to rating for one user, or user id to rating for one item.
type Profile map[int64]float64

// Index holds the forward and inverse rating maps of one batch.
// It is immutable after NewIndex returns.
type Index struct {
	ByUser map[int64]Profile
	ByItem map[int64]Profile
}

// NewIndex builds both maps from ratings.
func NewIndex(ratings []Rating) *Index {
	return &Index{
		ByUser: BuildRatingsByUser(ratings),
		ByItem: BuildUsersByItem(ratings),
	}
}

// BuildRatingsByUser returns user -> item -> rating. The last rating of a
// duplicated (user, item) pair wins.
func BuildRatingsByUser(ratings []Rating) map[int64]Profile {
	out := make(map[int64]Profile)
	for _, r := range ratings {
		p, ok := out[r.UserID]
		if !ok {
			p = make(Profile)
			out[r.UserID] = p
		}
		p[r.ItemID] = r.Value
	}
	return out
}

// BuildUsersByItem returns item -> user -> rating, last write wins.
func BuildUsersByItem(ratings []Rating) map[int64]Profile {
	out := make(map[int64]Profile)
	for _, r := range ratings {
		p, ok := out[r.ItemID]
		if !ok {
			p = make(Profile)
			out[r.ItemID] = p
		}
		p[r.UserID] = r.Value
	}
	return out
}

// RatingCount returns how many items user has rated.
func (idx *Index) RatingCount(user int64) int {
	return len(idx.ByUser[user])
}

// sortedKeys returns the ids of p in ascending order.
func (p Profile) sortedKeys() []int64 {
	keys := make([]int64, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// ProfileMaturityThreshold returns the median number of ratings per user,
// truncated to an integer. With an even number of users the two middle
// counts are averaged before truncation.
func ProfileMaturityThreshold(ratings []Rating) (int, error) {
	if len(ratings) == 0 {
		return 0, invalidState("profile maturity threshold", "no ratings to compute a median from")
	}

	perUser := make(map[int64]int)
	for _, r := range ratings {
		perUser[r.UserID]++
	}

	counts := make([]int, 0, len(perUser))
	for _, c := range perUser {
		counts = append(counts, c)
	}
	sort.Ints(counts)

	mid := len(counts) / 2
	if len(counts)%2 == 1 {
		return counts[mid], nil
	}
	return int(float64(counts[mid-1]+counts[mid]) / 2), nil
}
