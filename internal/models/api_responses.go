// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package models

import (
	"time"
)

// APIResponse is the envelope of every HTTP response.
//
// Status is "success" with Data set, or "error" with Error set.
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": [{"user_id": 1, "item_id": 42, "score": 0.91, "rank": 1, ...}],
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z", "query_time_ms": 3}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data,omitempty"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries the response time and the database time spent on it.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError is a machine-readable code with a human-readable message.
//
// Common error codes:
//   - VALIDATION_ERROR: invalid path or query parameter
//   - DATABASE_ERROR: query execution failure
//   - NOT_FOUND: unknown user, item or rating
//   - CONFLICT: username taken or item already rated by the user
//   - SERVICE_UNAVAILABLE: the recompute scheduler is not running
//   - RATE_LIMITED: the per-IP request budget is exhausted
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthStatus is the body of GET /healthz.
type HealthStatus struct {
	Status            string  `json:"status"`
	DatabaseConnected bool    `json:"database_connected"`
	SchedulerEnabled  bool    `json:"scheduler_enabled"`
	Uptime            float64 `json:"uptime_seconds"`
}

// RecomputeAccepted is the body of an accepted recompute request. Queued is
// false when a manual run was already pending.
type RecomputeAccepted struct {
	Queued bool `json:"queued"`
}

// Error codes used in APIError.Code.
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeDatabase           = "DATABASE_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
)
