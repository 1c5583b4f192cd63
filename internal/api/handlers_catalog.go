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
	"github.com/goccy/go-json"

	"github.com/tomtom215/reco/internal/database"
	"github.com/tomtom215/reco/internal/models"
)

// maxBodyBytes bounds catalog request bodies.
const maxBodyBytes = 64 << 10

// CatalogStore manages users, items and ratings. New ratings feed the next
// recompute; nothing here touches stored recommendations.
type CatalogStore interface {
	Users(ctx context.Context, limit int) ([]models.User, error)
	User(ctx context.Context, id int64) (*models.User, error)
	CreateUser(ctx context.Context, username string) (*models.User, error)

	ListItems(ctx context.Context, limit int) ([]models.Item, error)
	Item(ctx context.Context, id int64) (*models.Item, error)
	CreateItem(ctx context.Context, item models.Item) (*models.Item, error)

	Ratings(ctx context.Context, limit int) ([]models.RatingRecord, error)
	RatingsByUser(ctx context.Context, user int64, limit int) ([]models.RatingRecord, error)
	RatingsByItem(ctx context.Context, item int64, limit int) ([]models.RatingRecord, error)
	Rating(ctx context.Context, id int64) (*models.RatingRecord, error)
	CreateRating(ctx context.Context, user, item int64, value float64) (*models.RatingRecord, error)
	UpdateRating(ctx context.Context, id int64, value float64) (*models.RatingRecord, error)
}

// CatalogHandler serves the user, item and rating endpoints.
type CatalogHandler struct {
	store        CatalogStore
	queryTimeout time.Duration
}

// NewCatalogHandler creates a catalog handler.
func NewCatalogHandler(store CatalogStore, queryTimeout time.Duration) *CatalogHandler {
	if queryTimeout <= 0 {
		queryTimeout = 10 * time.Second
	}
	return &CatalogHandler{store: store, queryTimeout: queryTimeout}
}

// pathID parses the integer path parameter key. On failure it writes a 400
// and returns false.
func pathID(w http.ResponseWriter, r *http.Request, key string) (int64, bool) {
	raw := chi.URLParam(r, key)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		respondValidationError(w, &models.APIError{
			Code:    models.ErrCodeValidation,
			Message: key + " must be a positive integer",
			Details: map[string]interface{}{key: raw},
		})
		return 0, false
	}
	return id, true
}

// decodeBody reads a JSON body into v and validates it. On failure it
// writes a 400 and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		respondValidationError(w, &models.APIError{
			Code:    models.ErrCodeValidation,
			Message: "request body must be a JSON object",
		})
		return false
	}
	if apiErr := validateRequest(v); apiErr != nil {
		respondValidationError(w, apiErr)
		return false
	}
	return true
}

// respondStoreError maps store sentinels onto HTTP statuses.
func respondStoreError(w http.ResponseWriter, r *http.Request, err error, what string) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, what+" not found", nil)
	case errors.Is(err, database.ErrConflict):
		respondError(w, r, http.StatusConflict, models.ErrCodeConflict, what+" already exists", nil)
	default:
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to access "+what, err)
	}
}

// timed runs fn under the query timeout and reports how long it took.
func (h *CatalogHandler) timed(r *http.Request, fn func(ctx context.Context) error) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()
	start := time.Now()
	err := fn(ctx)
	return time.Since(start), err
}

// ListUsers handles GET /api/v1/users.
func (h *CatalogHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	var users []models.User
	took, err := h.timed(r, func(ctx context.Context) (err error) {
		users, err = h.store.Users(ctx, catalogLimit(r))
		return err
	})
	if err != nil {
		respondStoreError(w, r, err, "users")
		return
	}
	respondSuccess(w, http.StatusOK, users, took)
}

// GetUser handles GET /api/v1/users/{userID}.
func (h *CatalogHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	var user *models.User
	took, err := h.timed(r, func(ctx context.Context) (err error) {
		user, err = h.store.User(ctx, id)
		return err
	})
	if err != nil {
		respondStoreError(w, r, err, "user")
		return
	}
	respondSuccess(w, http.StatusOK, user, took)
}

// CreateUser handles POST /api/v1/users.
func (h *CatalogHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	var user *models.User
	took, err := h.timed(r, func(ctx context.Context) (err error) {
		user, err = h.store.CreateUser(ctx, req.Username)
		return err
	})
	if err != nil {
		respondStoreError(w, r, err, "user")
		return
	}
	respondSuccess(w, http.StatusCreated, user, took)
}

// ListItems handles GET /api/v1/items.
func (h *CatalogHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	var items []models.Item
	took, err := h.timed(r, func(ctx context.Context) (err error) {
		items, err = h.store.ListItems(ctx, catalogLimit(r))
		return err
	})
	if err != nil {
		respondStoreError(w, r, err, "items")
		return
	}
	respondSuccess(w, http.StatusOK, items, took)
}

// GetItem handles GET /api/v1/items/{itemID}.
func (h *CatalogHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "itemID")
	if !ok {
		return
	}
	var item *models.Item
	took, err := h.timed(r, func(ctx context.Context) (err error) {
		item, err = h.store.Item(ctx, id)
		return err
	})
	if err != nil {
		respondStoreError(w, r, err, "item")
		return
	}
	respondSuccess(w, http.StatusOK, item, took)
}

// CreateItem handles POST /api/v1/items.
func (h *CatalogHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	var item *models.Item
	took, err := h.timed(r, func(ctx context.Context) (err error) {
		item, err = h.store.CreateItem(ctx, models.Item{
			ExternalID: req.ExternalID,
			Title:      req.Title,
			Genres:     req.Genres,
		})
		return err
	})
	if err != nil {
		respondStoreError(w, r, err, "item")
		return
	}
	respondSuccess(w, http.StatusCreated, item, took)
}

// ListRatings handles GET /api/v1/ratings.
func (h *CatalogHandler) ListRatings(w http.ResponseWriter, r *http.Request) {
	h.listRatings(w, r, func(ctx context.Context, limit int) ([]models.RatingRecord, error) {
		return h.store.Ratings(ctx, limit)
	})
}

// UserRatings handles GET /api/v1/users/{userID}/ratings.
func (h *CatalogHandler) UserRatings(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	h.listRatings(w, r, func(ctx context.Context, limit int) ([]models.RatingRecord, error) {
		return h.store.RatingsByUser(ctx, id, limit)
	})
}

// ItemRatings handles GET /api/v1/items/{itemID}/ratings.
func (h *CatalogHandler) ItemRatings(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "itemID")
	if !ok {
		return
	}
	h.listRatings(w, r, func(ctx context.Context, limit int) ([]models.RatingRecord, error) {
		return h.store.RatingsByItem(ctx, id, limit)
	})
}

func (h *CatalogHandler) listRatings(w http.ResponseWriter, r *http.Request,
	list func(ctx context.Context, limit int) ([]models.RatingRecord, error)) {
	var ratings []models.RatingRecord
	took, err := h.timed(r, func(ctx context.Context) (err error) {
		ratings, err = list(ctx, catalogLimit(r))
		return err
	})
	if err != nil {
		respondStoreError(w, r, err, "ratings")
		return
	}
	if ratings == nil {
		ratings = []models.RatingRecord{}
	}
	respondSuccess(w, http.StatusOK, ratings, took)
}

// GetRating handles GET /api/v1/ratings/{id}.
func (h *CatalogHandler) GetRating(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var rating *models.RatingRecord
	took, err := h.timed(r, func(ctx context.Context) (err error) {
		rating, err = h.store.Rating(ctx, id)
		return err
	})
	if err != nil {
		respondStoreError(w, r, err, "rating")
		return
	}
	respondSuccess(w, http.StatusOK, rating, took)
}

// RateItem handles POST /api/v1/ratings/{id}, id being the rated item. A
// user rates an item once; later changes go through UpdateRating.
func (h *CatalogHandler) RateItem(w http.ResponseWriter, r *http.Request) {
	item, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req RateItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	var rating *models.RatingRecord
	took, err := h.timed(r, func(ctx context.Context) (err error) {
		rating, err = h.store.CreateRating(ctx, req.UserID, item, req.Rating)
		return err
	})
	if err != nil {
		respondStoreError(w, r, err, "rating")
		return
	}
	respondSuccess(w, http.StatusCreated, rating, took)
}

// UpdateRating handles PUT /api/v1/ratings/{id}?rating=.
func (h *CatalogHandler) UpdateRating(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	value, err := strconv.ParseFloat(r.URL.Query().Get("rating"), 64)
	if err != nil {
		respondValidationError(w, &models.APIError{
			Code:    models.ErrCodeValidation,
			Message: "rating must be a number",
			Details: map[string]interface{}{"rating": r.URL.Query().Get("rating")},
		})
		return
	}
	req := UpdateRatingRequest{Rating: value}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	var rating *models.RatingRecord
	took, err := h.timed(r, func(ctx context.Context) (err error) {
		rating, err = h.store.UpdateRating(ctx, id, req.Rating)
		return err
	})
	if err != nil {
		respondStoreError(w, r, err, "rating")
		return
	}
	respondSuccess(w, http.StatusOK, rating, took)
}
