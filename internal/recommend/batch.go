// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reco/internal/logging"
	"github.com/tomtom215/reco/internal/metrics"
)

// DataSource supplies the inputs of a batch.
type DataSource interface {
	FetchUsers(ctx context.Context) ([]int64, error)
	FetchItems(ctx context.Context) ([]int64, error)
	FetchRatings(ctx context.Context) ([]Rating, error)
	FetchItemStats(ctx context.Context) (map[int64]ItemStats, error)
	FetchGlobalMeanRating(ctx context.Context) (float64, error)
}

// Sink receives the rows of a batch. ReplaceRecommendations must replace
// the full prior set atomically.
type Sink interface {
	ReplaceRecommendations(ctx context.Context, rows []Row) error
}

// RecomputeOptions are the per-run options of RecomputeAll.
type RecomputeOptions struct {
	NPerUser    int
	KNeighbors  int
	AlgoVersion string
}

// DefaultRecomputeOptions returns n_per_user 20, k_neighbors 20 and the
// hybrid algorithm version.
func DefaultRecomputeOptions() RecomputeOptions {
	return RecomputeOptions{NPerUser: 20, KNeighbors: 20, AlgoVersion: AlgoHybridUserCFPop}
}

// AlgoHybridUserCFPop is the version tag of the bias-aware hybrid.
const AlgoHybridUserCFPop = "hybrid_usercf_pop"

// RecomputeResult summarizes a completed batch.
type RecomputeResult struct {
	RunID          string        `json:"run_id"`
	AlgoVersion    string        `json:"algo_version"`
	Users          int           `json:"users"`
	Rows           int           `json:"rows"`
	Threshold      int           `json:"profile_maturity_threshold"`
	GeneratedAt    time.Time     `json:"generated_at"`
	Duration       time.Duration `json:"duration"`
	SimCacheHits   int64         `json:"sim_cache_hits"`
	SimCacheMisses int64         `json:"sim_cache_misses"`
}

// Batch recomputes the recommendations of every user and replaces the
// persisted set. Only one recomputation runs at a time.
type Batch struct {
	src    DataSource
	sink   Sink
	cfg    Config
	logger zerolog.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewBatch returns a batch driver reading from src and writing to sink.
func NewBatch(src DataSource, sink Sink, cfg Config) *Batch {
	return &Batch{
		src:    src,
		sink:   sink,
		cfg:    cfg,
		logger: logging.WithComponent("recommend"),
		now:    time.Now,
	}
}

// RecomputeAll fetches all inputs, ranks every user and hands the rows to
// the sink in one call. Per-user failures are joined in user order and
// nothing is written. It returns ErrRecomputeInProgress when another
// recomputation holds the batch.
func (b *Batch) RecomputeAll(ctx context.Context, opts RecomputeOptions) (*RecomputeResult, error) {
	if !b.mu.TryLock() {
		return nil, ErrRecomputeInProgress
	}
	defer b.mu.Unlock()

	if opts.NPerUser <= 0 {
		return nil, invalidArgument("recompute", opts.NPerUser, "n_per_user must be positive")
	}
	if opts.KNeighbors < 0 {
		return nil, invalidArgument("recompute", opts.KNeighbors, "k_neighbors must not be negative")
	}
	if opts.AlgoVersion == "" {
		opts.AlgoVersion = AlgoHybridUserCFPop
	}

	runID := logging.RunIDFromContext(ctx)
	if runID == "" {
		runID = logging.GenerateRunID()
		ctx = logging.ContextWithRunID(ctx, runID)
	}
	logger := b.logger.With().Str("run_id", runID).Str("algo_version", opts.AlgoVersion).Logger()

	start := b.now()
	res, err := b.recompute(ctx, opts, runID, start, &logger)
	duration := time.Since(start)
	if err != nil {
		metrics.RecordRecompute(metrics.StatusFailure, duration, 0, 0)
		logger.Error().Err(err).Dur("duration", duration).Msg("recompute failed")
		return nil, err
	}

	res.Duration = duration
	metrics.RecordRecompute(metrics.StatusSuccess, duration, res.Users, res.Rows)
	metrics.RecordSimilarityCache(res.SimCacheHits, res.SimCacheMisses)
	logger.Info().
		Int("users", res.Users).
		Int("rows", res.Rows).
		Int("threshold", res.Threshold).
		Dur("duration", duration).
		Msg("recompute complete")
	return res, nil
}

func (b *Batch) recompute(ctx context.Context, opts RecomputeOptions, runID string, start time.Time, logger *zerolog.Logger) (*RecomputeResult, error) {
	users, in, err := b.load(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info().
		Int("users", len(users)).
		Int("items", len(in.Items)).
		Int("ratings", len(in.Ratings)).
		Msg("loaded batch inputs")

	cfg := b.cfg
	cfg.KNeighbors = opts.KNeighbors
	model, err := NewModel(in, cfg)
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}

	recs, hits, misses, err := b.rankAll(ctx, model, users, opts.NPerUser)
	if err != nil {
		return nil, err
	}

	generatedAt := start.UTC()
	var rows []Row
	for i, user := range users {
		for rank, rec := range recs[i] {
			rows = append(rows, Row{
				UserID:      user,
				ItemID:      rec.ItemID,
				Score:       rec.Score,
				Rank:        rank + 1,
				AlgoVersion: opts.AlgoVersion,
				RunID:       runID,
				GeneratedAt: generatedAt,
			})
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := b.sink.ReplaceRecommendations(ctx, rows); err != nil {
		return nil, fmt.Errorf("replace recommendations: %w", err)
	}

	return &RecomputeResult{
		RunID:          runID,
		AlgoVersion:    opts.AlgoVersion,
		Users:          len(users),
		Rows:           len(rows),
		Threshold:      model.Threshold(),
		GeneratedAt:    generatedAt,
		SimCacheHits:   hits,
		SimCacheMisses: misses,
	}, nil
}

func (b *Batch) load(ctx context.Context) ([]int64, Inputs, error) {
	var in Inputs

	users, err := b.src.FetchUsers(ctx)
	if err != nil {
		return nil, in, fmt.Errorf("fetch users: %w", err)
	}
	if in.Items, err = b.src.FetchItems(ctx); err != nil {
		return nil, in, fmt.Errorf("fetch items: %w", err)
	}
	if in.Ratings, err = b.src.FetchRatings(ctx); err != nil {
		return nil, in, fmt.Errorf("fetch ratings: %w", err)
	}
	if in.ItemStats, err = b.src.FetchItemStats(ctx); err != nil {
		return nil, in, fmt.Errorf("fetch item stats: %w", err)
	}
	if in.GlobalMean, err = b.src.FetchGlobalMeanRating(ctx); err != nil {
		return nil, in, fmt.Errorf("fetch global mean rating: %w", err)
	}

	sorted := make([]int64, len(users))
	copy(sorted, users)
	sortIDs(sorted)
	return sorted, in, nil
}

// rankAll ranks users on a worker pool. Each worker owns one Similarity.
// Results land in per-user slots so the output order does not depend on
// scheduling.
func (b *Batch) rankAll(ctx context.Context, model *Model, users []int64, n int) ([][]ScoredItem, int64, int64, error) {
	recs := make([][]ScoredItem, len(users))
	errs := make([]error, len(users))

	workers := min(model.cfg.workers(), max(1, len(users)))
	jobs := make(chan int)

	var (
		wg           sync.WaitGroup
		statsMu      sync.Mutex
		hits, misses int64
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sim := model.NewSimilarity()
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				recs[i], errs[i] = rankUser(model, users[i], n, sim)
			}
			h, m, _ := sim.CacheStats()
			statsMu.Lock()
			hits += h
			misses += m
			statsMu.Unlock()
		}()
	}

feed:
	for i := range users {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, 0, 0, err
	}
	if err := errors.Join(errs...); err != nil {
		return nil, 0, 0, err
	}
	return recs, hits, misses, nil
}

// rankUser turns a panic in the ranking of one user into an error for that user.
func rankUser(model *Model, user int64, n int, sim *Similarity) (recs []ScoredItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("user %d: panic: %v", user, r)
		}
	}()
	recs, candidates := model.recommend(user, n, sim)
	metrics.ObserveCandidateSetSize(candidates)
	return recs, nil
}
