// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package recommend

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

// fakeSource serves a fixed rating set and derives the item stats from it.
type fakeSource struct {
	users   []int64
	items   []int64
	ratings []Rating
	err     error
}

func (f *fakeSource) FetchUsers(ctx context.Context) ([]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users, nil
}

func (f *fakeSource) FetchItems(ctx context.Context) ([]int64, error) {
	return f.items, nil
}

func (f *fakeSource) FetchRatings(ctx context.Context) ([]Rating, error) {
	return f.ratings, nil
}

func (f *fakeSource) FetchItemStats(ctx context.Context) (map[int64]ItemStats, error) {
	sums := make(map[int64]float64)
	stats := make(map[int64]ItemStats)
	for _, r := range f.ratings {
		sums[r.ItemID] += r.Value
		s := stats[r.ItemID]
		s.Count++
		stats[r.ItemID] = s
	}
	for id, s := range stats {
		s.Mean = sums[id] / float64(s.Count)
		stats[id] = s
	}
	return stats, nil
}

func (f *fakeSource) FetchGlobalMeanRating(ctx context.Context) (float64, error) {
	if len(f.ratings) == 0 {
		return 0, nil
	}
	var sum float64
	for _, r := range f.ratings {
		sum += r.Value
	}
	return sum / float64(len(f.ratings)), nil
}

type fakeSink struct {
	mu    sync.Mutex
	calls int
	rows  []Row
	err   error
}

func (f *fakeSink) ReplaceRecommendations(ctx context.Context, rows []Row) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.rows = rows
	return nil
}

// batchRatings is a small catalog where every user has neighbors.
func batchRatings() []Rating {
	ratings := fixtureRatings()
	ratings = append(ratings,
		Rating{UserID: 4, ItemID: 10, Value: 4},
		Rating{UserID: 4, ItemID: 40, Value: 5},
		Rating{UserID: 4, ItemID: 50, Value: 4.5},
		Rating{UserID: 5, ItemID: 30, Value: 3},
		Rating{UserID: 5, ItemID: 40, Value: 4},
		Rating{UserID: 5, ItemID: 60, Value: 5},
	)
	return ratings
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		users:   []int64{5, 3, 1, 6, 4, 2}, // user 6 has no ratings
		items:   []int64{10, 20, 30, 40, 50, 60},
		ratings: batchRatings(),
	}
}

func TestRecomputeAll(t *testing.T) {
	src := newFakeSource()
	sink := &fakeSink{}
	cfg := DefaultConfig()
	cfg.Workers = 3

	res, err := NewBatch(src, sink, cfg).RecomputeAll(context.Background(), RecomputeOptions{NPerUser: 3, KNeighbors: 20})
	if err != nil {
		t.Fatalf("RecomputeAll() error = %v", err)
	}
	if sink.calls != 1 {
		t.Fatalf("sink calls = %d, want 1", sink.calls)
	}
	if res.Users != 6 || res.Rows != len(sink.rows) {
		t.Errorf("result = %+v, want 6 users and %d rows", res, len(sink.rows))
	}
	if res.RunID == "" || res.AlgoVersion != AlgoHybridUserCFPop {
		t.Errorf("result run id %q algo %q", res.RunID, res.AlgoVersion)
	}

	idx := NewIndex(src.ratings)
	lastUser := int64(-1)
	nextRank := 1
	for _, row := range sink.rows {
		if row.UserID != lastUser {
			if row.UserID < lastUser {
				t.Fatalf("rows not in user order: %d after %d", row.UserID, lastUser)
			}
			lastUser, nextRank = row.UserID, 1
		}
		if row.Rank != nextRank {
			t.Errorf("user %d rank = %d, want %d", row.UserID, row.Rank, nextRank)
		}
		nextRank++
		if row.Rank > 3 {
			t.Errorf("user %d has rank %d beyond n_per_user", row.UserID, row.Rank)
		}
		if _, seen := idx.ByUser[row.UserID][row.ItemID]; seen {
			t.Errorf("user %d recommended seen item %d", row.UserID, row.ItemID)
		}
		if row.RunID != res.RunID || !row.GeneratedAt.Equal(res.GeneratedAt) {
			t.Errorf("row %+v does not carry the batch run id and time", row)
		}
	}
}

func TestRecomputeAllDeterministicAcrossWorkers(t *testing.T) {
	run := func(workers int) []Row {
		sink := &fakeSink{}
		cfg := DefaultConfig()
		cfg.Workers = workers
		if _, err := NewBatch(newFakeSource(), sink, cfg).RecomputeAll(context.Background(), DefaultRecomputeOptions()); err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}
		return sink.rows
	}

	a, b := run(1), run(4)
	if len(a) != len(b) {
		t.Fatalf("row counts %d and %d differ", len(a), len(b))
	}
	for i := range a {
		if a[i].UserID != b[i].UserID || a[i].ItemID != b[i].ItemID || a[i].Score != b[i].Score || a[i].Rank != b[i].Rank {
			t.Errorf("row %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestRecomputeAllErrors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name      string
		src       *fakeSource
		sink      *fakeSink
		opts      RecomputeOptions
		ctx       func() context.Context
		wantIs    error
		wantCalls int
	}{
		{
			name:   "invalid n",
			src:    newFakeSource(),
			sink:   &fakeSink{},
			opts:   RecomputeOptions{NPerUser: 0},
			wantIs: ErrInvalidArgument,
		},
		{
			name:   "source failure",
			src:    &fakeSource{err: boom},
			sink:   &fakeSink{},
			opts:   DefaultRecomputeOptions(),
			wantIs: boom,
		},
		{
			name:   "no ratings",
			src:    &fakeSource{users: []int64{1}, items: []int64{10}},
			sink:   &fakeSink{},
			opts:   DefaultRecomputeOptions(),
			wantIs: ErrInvalidState,
		},
		{
			name:      "sink failure",
			src:       newFakeSource(),
			sink:      &fakeSink{err: boom},
			opts:      DefaultRecomputeOptions(),
			wantIs:    boom,
			wantCalls: 1,
		},
		{
			name: "cancelled",
			src:  newFakeSource(),
			sink: &fakeSink{},
			opts: DefaultRecomputeOptions(),
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
			wantIs: context.Canceled,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.ctx != nil {
				ctx = tt.ctx()
			}
			_, err := NewBatch(tt.src, tt.sink, DefaultConfig()).RecomputeAll(ctx, tt.opts)
			if !errors.Is(err, tt.wantIs) {
				t.Fatalf("error = %v, want %v", err, tt.wantIs)
			}
			if tt.sink.calls != tt.wantCalls {
				t.Errorf("sink calls = %d, want %d", tt.sink.calls, tt.wantCalls)
			}
		})
	}
}

func TestRecomputeAllInProgress(t *testing.T) {
	b := NewBatch(newFakeSource(), &fakeSink{}, DefaultConfig())
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.RecomputeAll(context.Background(), DefaultRecomputeOptions()); !errors.Is(err, ErrRecomputeInProgress) {
		t.Errorf("error = %v, want ErrRecomputeInProgress", err)
	}
}

func TestRankUserRecoversPanic(t *testing.T) {
	_, err := rankUser(nil, 7, 5, nil)
	if err == nil || !strings.Contains(err.Error(), "user 7: panic") {
		t.Errorf("rankUser(nil model) error = %v, want recovered panic for user 7", err)
	}
}

func TestRankAllJoinsErrorsInUserOrder(t *testing.T) {
	// A model without an index panics for every user.
	broken := &Model{cfg: DefaultConfig()}
	b := NewBatch(newFakeSource(), &fakeSink{}, DefaultConfig())

	_, _, _, err := b.rankAll(context.Background(), broken, []int64{1, 2, 3}, 5)
	if err == nil {
		t.Fatal("rankAll() error = nil, want joined user errors")
	}
	msg := err.Error()
	i1, i2, i3 := strings.Index(msg, "user 1:"), strings.Index(msg, "user 2:"), strings.Index(msg, "user 3:")
	if i1 < 0 || i2 < 0 || i3 < 0 || !(i1 < i2 && i2 < i3) {
		t.Errorf("error = %q, want users 1, 2, 3 in order", msg)
	}
}

func TestRankAllEmptyForNonPositiveN(t *testing.T) {
	m := newTestModel(t, fixtureRatings(), fixturePopularity(), []int64{10, 20, 30, 40}, DefaultConfig())
	b := NewBatch(newFakeSource(), &fakeSink{}, DefaultConfig())

	recs, _, _, err := b.rankAll(context.Background(), m, []int64{1, 2, 3}, 0)
	if err != nil {
		t.Fatalf("rankAll() error = %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("len(recs) = %d, want one slot per user", len(recs))
	}
	for i, r := range recs {
		if len(r) != 0 {
			t.Errorf("slot %d = %v, want empty for n <= 0", i, r)
		}
	}
}
