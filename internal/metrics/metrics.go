// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

// Package metrics exposes Prometheus collectors for the batch recompute,
// the offline evaluator, storage queries, the HTTP read surface and the
// recompute circuit breaker. Collectors register with the default registry
// and are served by promhttp at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recompute run outcomes.
const (
	StatusSuccess  = "success"
	StatusFailure  = "failure"
	StatusRejected = "rejected"
)

var (
	// Recompute Metrics
	RecomputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recompute_duration_seconds",
			Help:    "Duration of full recommendation recomputations in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300, 900, 1800},
		},
	)

	RecomputeRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recompute_runs_total",
			Help: "Total number of recompute runs by outcome",
		},
		[]string{"status"}, // "success", "failure", "rejected"
	)

	RecomputeUsers = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recompute_users_total",
			Help: "Total number of users ranked by successful recomputations",
		},
	)

	RecomputeRowsWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recompute_rows_written_total",
			Help: "Total number of recommendation rows written",
		},
	)

	RecomputeLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recompute_last_success_timestamp",
			Help: "Unix timestamp of the last successful recomputation",
		},
	)

	CandidateSetSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recompute_candidate_set_size",
			Help:    "Number of candidate items ranked per user",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1 .. 2048
		},
	)

	SimilarityCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "similarity_cache_hits_total",
			Help: "Total number of user similarity cache hits",
		},
	)

	SimilarityCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "similarity_cache_misses_total",
			Help: "Total number of user similarity cache misses",
		},
	)

	// Evaluation Metrics
	EvaluationScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "evaluation_score",
			Help: "Latest offline evaluation score",
		},
		[]string{"model", "metric"}, // metric: "precision", "recall", "map"
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_query_errors_total",
			Help: "Total number of database query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	DatasetRowsImported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataset_rows_imported_total",
			Help: "Total number of rows loaded by dataset imports",
		},
		[]string{"table"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordRecompute records the outcome of one recompute run. users and rows
// only count for successful runs.
func RecordRecompute(status string, duration time.Duration, users, rows int) {
	RecomputeRuns.WithLabelValues(status).Inc()
	if status == StatusRejected {
		return
	}
	RecomputeDuration.Observe(duration.Seconds())
	if status == StatusSuccess {
		RecomputeUsers.Add(float64(users))
		RecomputeRowsWritten.Add(float64(rows))
		RecomputeLastSuccess.SetToCurrentTime()
	}
}

// ObserveCandidateSetSize records the candidate count of one user.
func ObserveCandidateSetSize(n int) {
	CandidateSetSize.Observe(float64(n))
}

// RecordSimilarityCache adds the cache counters of one batch.
func RecordSimilarityCache(hits, misses int64) {
	SimilarityCacheHits.Add(float64(hits))
	SimilarityCacheMisses.Add(float64(misses))
}

// RecordEvaluation publishes the scores of one evaluated model.
func RecordEvaluation(model string, precision, recall, mapScore float64) {
	EvaluationScore.WithLabelValues(model, "precision").Set(precision)
	EvaluationScore.WithLabelValues(model, "recall").Set(recall)
	EvaluationScore.WithLabelValues(model, "map").Set(mapScore)
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordImport counts rows loaded into table.
func RecordImport(table string, rows int) {
	DatasetRowsImported.WithLabelValues(table).Add(float64(rows))
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordBreakerTransition records a state change of the named breaker.
// States are reported as 0=closed, 1=half-open, 2=open.
func RecordBreakerTransition(name, from, to string, toValue float64) {
	CircuitBreakerState.WithLabelValues(name).Set(toValue)
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}
