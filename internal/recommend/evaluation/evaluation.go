// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

// Package evaluation measures recommenders offline: it holds out part of
// each user's ratings, recommends from the rest and scores the ranked lists
// against the held-out items with Precision@K, Recall@K and MAP@K.
package evaluation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/reco/internal/logging"
	"github.com/tomtom215/reco/internal/metrics"
	"github.com/tomtom215/reco/internal/recommend"
	"github.com/tomtom215/reco/internal/validation"
)

// Split methods.
const (
	SplitLOO   = "loo"
	SplitRatio = "ratio"
)

// ModelPopularity names the popularity-only baseline in reports and metrics.
const ModelPopularity = "popularity"

// Options controls one evaluation run.
type Options struct {
	Split     string  `validate:"oneof=loo ratio"`
	TestRatio float64 `validate:"gt=0,lt=1"`
	Liked     float64 `validate:"gte=0"`
	K         int     `validate:"gte=0"`
	N         int     `validate:"gte=1"`
	Neighbors int     `validate:"gte=0"`
	Seed      int64
	PopTopP   int    `validate:"gte=0"`
	Algo      string `validate:"required"`

	// Recommend tunes the hybrid model. PopTopP and Neighbors override
	// its PopTopP and KNeighbors.
	Recommend recommend.Config
}

// DefaultOptions returns leave-one-out at K=10 over 50 recommendations.
func DefaultOptions() Options {
	return Options{
		Split:     SplitLOO,
		TestRatio: 0.2,
		Liked:     4.0,
		K:         10,
		N:         50,
		Neighbors: 50,
		Seed:      42,
		PopTopP:   500,
		Algo:      recommend.AlgoHybridUserCFPop,
		Recommend: recommend.DefaultConfig(),
	}
}

// Split divides ratings into train and test sets per user. Every user with
// at least two ratings is shuffled with a generator seeded by seed; loo
// holds out one rating, ratio holds out round(n*testRatio) ratings but at
// least one and at most n-1. Users with fewer than two ratings appear in
// neither set. Users are visited in ascending id order, so the seed alone
// determines the split.
func Split(ratings []recommend.Rating, method string, testRatio float64, seed int64) (train, test []recommend.Rating, err error) {
	if method != SplitLOO && method != SplitRatio {
		return nil, nil, &recommend.Error{
			Op:    "split",
			Kind:  recommend.KindInvalidArgument,
			Value: method,
			Msg:   "method must be loo or ratio",
		}
	}

	byUser := make(map[int64][]recommend.Rating)
	for _, r := range ratings {
		byUser[r.UserID] = append(byUser[r.UserID], r)
	}
	users := make([]int64, 0, len(byUser))
	for u := range byUser {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible split, not security sensitive
	for _, u := range users {
		rows := byUser[u]
		if len(rows) < 2 {
			continue
		}
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })

		nTest := 1
		if method == SplitRatio {
			nTest = max(1, int(math.Round(float64(len(rows))*testRatio)))
			nTest = min(nTest, len(rows)-1)
		}
		test = append(test, rows[:nTest]...)
		train = append(train, rows[nTest:]...)
	}
	return train, test, nil
}

// StatsFromRatings returns per-item rating count and mean plus the global mean.
func StatsFromRatings(ratings []recommend.Rating) (map[int64]recommend.ItemStats, float64) {
	stats := make(map[int64]recommend.ItemStats)
	if len(ratings) == 0 {
		return stats, 0
	}

	sums := make(map[int64]float64)
	var total float64
	for _, r := range ratings {
		s := stats[r.ItemID]
		s.Count++
		stats[r.ItemID] = s
		sums[r.ItemID] += r.Value
		total += r.Value
	}
	for id, s := range stats {
		s.Mean = sums[id] / float64(s.Count)
		stats[id] = s
	}
	return stats, total / float64(len(ratings))
}

// RelevantByUser builds the ground truth. With loo every held-out item is
// relevant; with ratio only held-out items rated at least liked are, and
// users left without any relevant item are dropped.
func RelevantByUser(test []recommend.Rating, method string, liked float64) map[int64]map[int64]struct{} {
	out := make(map[int64]map[int64]struct{})
	for _, r := range test {
		if method == SplitRatio && r.Value < liked {
			continue
		}
		set, ok := out[r.UserID]
		if !ok {
			set = make(map[int64]struct{})
			out[r.UserID] = set
		}
		set[r.ItemID] = struct{}{}
	}
	return out
}

// PrecisionRecallAP scores the first k entries of ranked against relevant.
// Precision divides hits by k, recall by the number of relevant items, and
// AP averages the precision at each hit over the relevant items.
func PrecisionRecallAP(ranked []int64, relevant map[int64]struct{}, k int) (precision, recall, ap float64) {
	if k <= 0 {
		return 0, 0, 0
	}
	top := ranked[:min(k, len(ranked))]
	if len(top) == 0 || len(relevant) == 0 {
		return 0, 0, 0
	}

	hits := 0
	var sumPrecision float64
	for i, item := range top {
		if _, ok := relevant[item]; ok {
			hits++
			sumPrecision += float64(hits) / float64(i+1)
		}
	}
	n := float64(len(relevant))
	return float64(hits) / float64(k), float64(hits) / n, sumPrecision / n
}

// PopularityBaseline ranks every scored item absent from the user's seen
// profile by popularity, ties by ascending id, and returns the first n.
func PopularityBaseline(n int, seen recommend.Profile, popularity map[int64]float64) []recommend.ScoredItem {
	unseen := make(map[int64]float64, len(popularity))
	for id, s := range popularity {
		if _, ok := seen[id]; !ok {
			unseen[id] = s
		}
	}
	return recommend.TopN(unseen, n)
}

// ModelResult is the mean of the per-user metrics of one model.
type ModelResult struct {
	Name      string  `json:"name" yaml:"name"`
	Users     int     `json:"users" yaml:"users"`
	Precision float64 `json:"precision" yaml:"precision"`
	Recall    float64 `json:"recall" yaml:"recall"`
	MAP       float64 `json:"map" yaml:"map"`
}

// RecommendFunc returns the ranked recommendations of one user.
type RecommendFunc func(user int64) []recommend.ScoredItem

// EvaluateModel averages Precision@K, Recall@K and AP@K over the users
// that have relevant items. users fixes the evaluation order. It stops
// early when ctx is cancelled.
func EvaluateModel(ctx context.Context, name string, users []int64, relevant map[int64]map[int64]struct{}, rec RecommendFunc, k int) (ModelResult, error) {
	res := ModelResult{Name: name}
	var sumP, sumR, sumAP float64

	for _, u := range users {
		rel := relevant[u]
		if len(rel) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		recs := rec(u)
		ranked := make([]int64, len(recs))
		for i, r := range recs {
			ranked[i] = r.ItemID
		}

		p, r, ap := PrecisionRecallAP(ranked, rel, k)
		sumP += p
		sumR += r
		sumAP += ap
		res.Users++
	}

	if res.Users > 0 {
		n := float64(res.Users)
		res.Precision, res.Recall, res.MAP = sumP/n, sumR/n, sumAP/n
	}
	return res, nil
}

// PctDelta returns the relative change from old to cur in percent. A zero
// old value gives +Inf for a positive cur and 0 otherwise.
func PctDelta(old, cur float64) float64 {
	if old == 0 {
		if cur > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return (cur - old) / old * 100
}

// Run splits ratings, trains the hybrid model on the train part and
// evaluates it next to the popularity baseline. items is the catalog; when
// empty every rated item counts as part of it.
func Run(ctx context.Context, items []int64, ratings []recommend.Rating, opts Options) (*Report, error) {
	if verr := validation.ValidateStruct(opts); verr != nil {
		return nil, &recommend.Error{
			Op:   "evaluate",
			Kind: recommend.KindInvalidArgument,
			Msg:  verr.Error(),
		}
	}
	logger := logging.WithComponent("evaluation")

	train, test, err := Split(ratings, opts.Split, opts.TestRatio, opts.Seed)
	if err != nil {
		return nil, err
	}
	relevant := RelevantByUser(test, opts.Split, opts.Liked)

	users := make([]int64, 0, len(relevant))
	for u := range relevant {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })

	if len(items) == 0 {
		items = ratedItems(ratings)
	}
	stats, globalMean := StatsFromRatings(train)

	cfg := opts.Recommend
	cfg.PopTopP = opts.PopTopP
	cfg.KNeighbors = opts.Neighbors
	model, err := recommend.NewModel(recommend.Inputs{
		Items:      items,
		Ratings:    train,
		ItemStats:  stats,
		GlobalMean: globalMean,
	}, cfg)
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}

	logger.Info().
		Str("split", opts.Split).
		Int64("seed", opts.Seed).
		Int("users", len(users)).
		Int("train", len(train)).
		Int("test", len(test)).
		Msg("evaluating")

	var hybrid, baseline ModelResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sim := model.NewSimilarity()
		var err error
		hybrid, err = EvaluateModel(gctx, opts.Algo, users, relevant, func(u int64) []recommend.ScoredItem {
			return model.Recommend(u, opts.N, sim)
		}, opts.K)
		return err
	})
	g.Go(func() error {
		var err error
		baseline, err = EvaluateModel(gctx, ModelPopularity, users, relevant, func(u int64) []recommend.ScoredItem {
			return PopularityBaseline(opts.N, model.Index().ByUser[u], model.Popularity())
		}, opts.K)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	metrics.RecordEvaluation(baseline.Name, baseline.Precision, baseline.Recall, baseline.MAP)
	metrics.RecordEvaluation(hybrid.Name, hybrid.Precision, hybrid.Recall, hybrid.MAP)

	return &Report{
		Split:          opts.Split,
		TestRatio:      opts.TestRatio,
		Liked:          opts.Liked,
		Seed:           opts.Seed,
		K:              opts.K,
		UsersEvaluated: hybrid.Users,
		RatingsAll:     len(ratings),
		TrainRatings:   len(train),
		TestRatings:    len(test),
		Baseline:       baseline,
		Model:          hybrid,
		RecallDeltaPct: PctDelta(baseline.Recall, hybrid.Recall),
		MAPDeltaPct:    PctDelta(baseline.MAP, hybrid.MAP),
	}, nil
}

func ratedItems(ratings []recommend.Rating) []int64 {
	seen := make(map[int64]struct{})
	out := make([]int64, 0)
	for _, r := range ratings {
		if _, ok := seen[r.ItemID]; ok {
			continue
		}
		seen[r.ItemID] = struct{}{}
		out = append(out, r.ItemID)
	}
	return out
}
