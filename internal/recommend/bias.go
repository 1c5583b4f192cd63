// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package recommend

// Default regularization strengths of the bias model.
const (
	DefaultRegItem = 10.0
	DefaultRegUser = 15.0
)

// BiasModel is the baseline predictor r(u,i) ~ Mu + UserBias[u] + ItemBias[i].
// Missing biases read as 0.
type BiasModel struct {
	Mu       float64
	ItemBias map[int64]float64
	UserBias map[int64]float64
}

// ComputeBiases fits the bias model in one regularized pass:
//
//	b_i = sum(r - mu) / (regItem + n_i)
//	b_u = sum(r - mu - b_i) / (regUser + n_u)
//
// Larger regularization pulls biases of sparse users and items toward 0.
func ComputeBiases(ratings []Rating, regItem, regUser float64) *BiasModel {
	bm := &BiasModel{
		ItemBias: make(map[int64]float64),
		UserBias: make(map[int64]float64),
	}
	if len(ratings) == 0 {
		return bm
	}

	var sum float64
	for _, r := range ratings {
		sum += r.Value
	}
	bm.Mu = sum / float64(len(ratings))

	type acc struct {
		sum float64
		n   int
	}

	items := make(map[int64]*acc)
	for _, r := range ratings {
		a, ok := items[r.ItemID]
		if !ok {
			a = &acc{}
			items[r.ItemID] = a
		}
		a.sum += r.Value - bm.Mu
		a.n++
	}
	for id, a := range items {
		bm.ItemBias[id] = a.sum / (regItem + float64(a.n))
	}

	users := make(map[int64]*acc)
	for _, r := range ratings {
		a, ok := users[r.UserID]
		if !ok {
			a = &acc{}
			users[r.UserID] = a
		}
		a.sum += r.Value - bm.Mu - bm.ItemBias[r.ItemID]
		a.n++
	}
	for id, a := range users {
		bm.UserBias[id] = a.sum / (regUser + float64(a.n))
	}

	return bm
}

// Baseline returns Mu + b_u + b_i.
func (bm *BiasModel) Baseline(user, item int64) float64 {
	return bm.Mu + bm.UserBias[user] + bm.ItemBias[item]
}
