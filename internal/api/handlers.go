// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/reco/internal/models"
	"github.com/tomtom215/reco/internal/recommend"
	"github.com/tomtom215/reco/internal/supervisor/services"
)

// RecommendationStore is the read side of the recommendation store.
type RecommendationStore interface {
	Ping(ctx context.Context) error
	UserRecommendations(ctx context.Context, user int64, limit int, algo string) ([]recommend.Row, error)
	AllRecommendations(ctx context.Context, limit int) ([]recommend.Row, error)
}

// Scheduler queues batch runs and reports on the last one.
type Scheduler interface {
	Trigger() bool
	Status() services.RunStatus
}

// Handler serves the HTTP endpoints.
type Handler struct {
	store        RecommendationStore
	scheduler    Scheduler
	queryTimeout time.Duration
	startTime    time.Time
}

// NewHandler creates a handler. scheduler may be nil, in which case the
// admin recompute endpoints answer 503.
func NewHandler(store RecommendationStore, scheduler Scheduler, queryTimeout time.Duration) *Handler {
	if queryTimeout <= 0 {
		queryTimeout = 10 * time.Second
	}
	return &Handler{
		store:        store,
		scheduler:    scheduler,
		queryTimeout: queryTimeout,
		startTime:    time.Now(),
	}
}

// Health handles GET /healthz. It answers 503 when the database does not
// respond so load balancers can route around the instance.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	dbConnected := h.store != nil && h.store.Ping(ctx) == nil
	health := models.HealthStatus{
		Status:            "healthy",
		DatabaseConnected: dbConnected,
		SchedulerEnabled:  h.scheduler != nil,
		Uptime:            time.Since(h.startTime).Seconds(),
	}

	status := http.StatusOK
	if !dbConnected {
		health.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	respondSuccess(w, status, health, 0)
}

// UserRecommendations handles GET /api/v1/users/{userID}/recommendations.
func (h *Handler) UserRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		respondValidationError(w, &models.APIError{
			Code:    models.ErrCodeValidation,
			Message: "userID must be an integer",
			Details: map[string]interface{}{"UserID": chi.URLParam(r, "userID")},
		})
		return
	}

	req := UserRecommendationsRequest{
		UserID: userID,
		Limit:  clampLimit(getIntParam(r, "limit", DefaultUserLimit)),
		Algo:   r.URL.Query().Get("algo"),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	start := time.Now()
	rows, err := h.store.UserRecommendations(ctx, req.UserID, req.Limit, req.Algo)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to load recommendations", err)
		return
	}
	respondSuccess(w, http.StatusOK, nonNil(rows), time.Since(start))
}

// AdminRecommendations handles GET /api/v1/admin/recommendations.
func (h *Handler) AdminRecommendations(w http.ResponseWriter, r *http.Request) {
	req := AdminRecommendationsRequest{
		Limit: clampLimit(getIntParam(r, "limit", DefaultAdminLimit)),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	start := time.Now()
	rows, err := h.store.AllRecommendations(ctx, req.Limit)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to load recommendations", err)
		return
	}
	respondSuccess(w, http.StatusOK, nonNil(rows), time.Since(start))
}

// errNoScheduler is logged when an admin endpoint needs the scheduler and
// `reco serve` was started with scheduling disabled.
var errNoScheduler = errors.New("recompute scheduler is disabled")

// Recompute handles POST /api/v1/admin/recommendations/recompute. The run
// happens asynchronously on the batch layer; the response only says whether
// a new request was queued.
func (h *Handler) Recompute(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		respondError(w, r, http.StatusServiceUnavailable, models.ErrCodeServiceUnavailable, "Recompute scheduler is disabled", errNoScheduler)
		return
	}
	respondSuccess(w, http.StatusAccepted, models.RecomputeAccepted{Queued: h.scheduler.Trigger()}, 0)
}

// UserRecompute handles POST /api/v1/users/{userID}/recommendations/recompute.
// The batch always covers every user, so this queues the same full run as
// the admin endpoint.
func (h *Handler) UserRecompute(w http.ResponseWriter, r *http.Request) {
	if _, ok := pathID(w, r, "userID"); !ok {
		return
	}
	h.Recompute(w, r)
}

// RecomputeStatus handles GET /api/v1/admin/recommendations/status.
func (h *Handler) RecomputeStatus(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		respondError(w, r, http.StatusServiceUnavailable, models.ErrCodeServiceUnavailable, "Recompute scheduler is disabled", errNoScheduler)
		return
	}
	respondSuccess(w, http.StatusOK, h.scheduler.Status(), 0)
}

// NotFound and MethodNotAllowed keep chi's fallbacks inside the envelope.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, "Not found", nil)
}

func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusMethodNotAllowed, models.ErrCodeMethodNotAllowed, "Method not allowed", nil)
}

// nonNil makes empty results encode as [] rather than null.
func nonNil(rows []recommend.Row) []recommend.Row {
	if rows == nil {
		return []recommend.Row{}
	}
	return rows
}
