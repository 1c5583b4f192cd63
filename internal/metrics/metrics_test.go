// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package metrics

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRecompute(t *testing.T) {
	tests := []struct {
		name      string
		status    string
		users     int
		rows      int
		wantUsers float64
		wantRows  float64
	}{
		{name: "success counts output", status: StatusSuccess, users: 10, rows: 200, wantUsers: 10, wantRows: 200},
		{name: "failure ignores output", status: StatusFailure, users: 10, rows: 200},
		{name: "rejected ignores output", status: StatusRejected, users: 3, rows: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs := testutil.ToFloat64(RecomputeRuns.WithLabelValues(tt.status))
			users := testutil.ToFloat64(RecomputeUsers)
			rows := testutil.ToFloat64(RecomputeRowsWritten)

			RecordRecompute(tt.status, 2*time.Second, tt.users, tt.rows)

			if got := testutil.ToFloat64(RecomputeRuns.WithLabelValues(tt.status)) - runs; got != 1 {
				t.Errorf("runs delta = %v, want 1", got)
			}
			if got := testutil.ToFloat64(RecomputeUsers) - users; got != tt.wantUsers {
				t.Errorf("users delta = %v, want %v", got, tt.wantUsers)
			}
			if got := testutil.ToFloat64(RecomputeRowsWritten) - rows; got != tt.wantRows {
				t.Errorf("rows delta = %v, want %v", got, tt.wantRows)
			}
		})
	}

	if testutil.ToFloat64(RecomputeLastSuccess) == 0 {
		t.Error("last success timestamp not set")
	}
}

func TestRecordSimilarityCache(t *testing.T) {
	hits := testutil.ToFloat64(SimilarityCacheHits)
	misses := testutil.ToFloat64(SimilarityCacheMisses)

	RecordSimilarityCache(7, 3)

	if got := testutil.ToFloat64(SimilarityCacheHits) - hits; got != 7 {
		t.Errorf("hits delta = %v, want 7", got)
	}
	if got := testutil.ToFloat64(SimilarityCacheMisses) - misses; got != 3 {
		t.Errorf("misses delta = %v, want 3", got)
	}
}

func TestRecordEvaluation(t *testing.T) {
	RecordEvaluation("popularity", 0.1, 0.2, 0.05)

	for metric, want := range map[string]float64{"precision": 0.1, "recall": 0.2, "map": 0.05} {
		if got := testutil.ToFloat64(EvaluationScore.WithLabelValues("popularity", metric)); got != want {
			t.Errorf("%s = %v, want %v", metric, got, want)
		}
	}
}

func TestRecordDBQuery(t *testing.T) {
	long := errors.New(strings.Repeat("x", 80))
	RecordDBQuery("insert", "recommendations", 5*time.Millisecond, long)

	truncated := strings.Repeat("x", 50)
	if got := testutil.ToFloat64(DBQueryErrors.WithLabelValues("insert", "recommendations", truncated)); got < 1 {
		t.Errorf("error counter with truncated label = %v, want >= 1", got)
	}

	before := testutil.CollectAndCount(DBQueryErrors)
	RecordDBQuery("select", "ratings", time.Millisecond, nil)
	if after := testutil.CollectAndCount(DBQueryErrors); after != before {
		t.Errorf("successful query added error series: %d -> %d", before, after)
	}
}

func TestRecordImport(t *testing.T) {
	before := testutil.ToFloat64(DatasetRowsImported.WithLabelValues("ratings"))
	RecordImport("ratings", 42)
	if got := testutil.ToFloat64(DatasetRowsImported.WithLabelValues("ratings")) - before; got != 42 {
		t.Errorf("imported delta = %v, want 42", got)
	}
}

func TestRecordBreakerTransition(t *testing.T) {
	RecordBreakerTransition("recompute", "closed", "open", 2)

	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("recompute")); got != 2 {
		t.Errorf("state = %v, want 2", got)
	}
	if got := testutil.ToFloat64(CircuitBreakerTransitions.WithLabelValues("recompute", "closed", "open")); got < 1 {
		t.Errorf("transitions = %v, want >= 1", got)
	}
}

func TestTrackActiveRequestConcurrent(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			TrackActiveRequest(true)
			RecordAPIRequest("GET", "/api/v1/users/{userID}/recommendations", "200", time.Millisecond)
			TrackActiveRequest(false)
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("active requests = %v, want %v", got, before)
	}
}

func TestMetricsRegistration(t *testing.T) {
	collectors := []prometheus.Collector{
		RecomputeDuration, RecomputeRuns, RecomputeUsers, RecomputeRowsWritten,
		RecomputeLastSuccess, CandidateSetSize, SimilarityCacheHits, SimilarityCacheMisses,
		EvaluationScore, DBQueryDuration, DBQueryErrors, DatasetRowsImported,
		APIRequestsTotal, APIRequestDuration, APIActiveRequests, APIRateLimitHits,
		CircuitBreakerState, CircuitBreakerTransitions,
	}
	for i, c := range collectors {
		err := prometheus.Register(c)
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			t.Errorf("collector %d: Register() error = %v, want AlreadyRegisteredError", i, err)
		}
	}
}
