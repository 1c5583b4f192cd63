// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package api

import (
	"net/http"
	"strconv"

	"github.com/tomtom215/reco/internal/models"
	"github.com/tomtom215/reco/internal/validation"
)

// Limits accepted by the list endpoints. Out-of-range values are clamped.
const (
	DefaultUserLimit  = 20
	DefaultAdminLimit = 10
	MaxLimit          = 50
)

// UserRecommendationsRequest holds the parameters of
// GET /api/v1/users/{userID}/recommendations.
type UserRecommendationsRequest struct {
	UserID int64  `validate:"gte=1"`
	Limit  int    `validate:"min=1,max=50"`
	Algo   string `validate:"omitempty,max=64,printascii"`
}

// AdminRecommendationsRequest holds the parameters of
// GET /api/v1/admin/recommendations.
type AdminRecommendationsRequest struct {
	Limit int `validate:"min=1,max=50"`
}

// getIntParam extracts an integer query parameter with a default value
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// clampLimit bounds n to [1, MaxLimit].
func clampLimit(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}

// validateRequest validates a struct using go-playground/validator.
// Returns nil if validation passes, or a models.APIError with one detail
// entry per failing field.
func validateRequest(v interface{}) *models.APIError {
	verr := validation.ValidateStruct(v)
	if verr == nil {
		return nil
	}

	fields := verr.Errors()
	details := make(map[string]interface{}, len(fields))
	for i := range fields {
		details[fields[i].Field()] = fields[i].Error()
	}
	return &models.APIError{
		Code:    models.ErrCodeValidation,
		Message: verr.Error(),
		Details: details,
	}
}

// DefaultCatalogLimit is used by the user, item and rating lists when limit
// is missing or not positive.
const DefaultCatalogLimit = MaxLimit

// CreateUserRequest is the body of POST /api/v1/users.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=4,max=30,printascii"`
}

// CreateItemRequest is the body of POST /api/v1/items.
type CreateItemRequest struct {
	Title      string   `json:"title" validate:"required,max=256"`
	Genres     []string `json:"genres" validate:"max=32,dive,required,max=64"`
	ExternalID int64    `json:"external_id" validate:"gte=0"`
}

// RateItemRequest is the body of POST /api/v1/ratings/{id}, where id names
// the rated item.
type RateItemRequest struct {
	UserID int64   `json:"user_id" validate:"gte=1"`
	Rating float64 `json:"rating" validate:"gte=0.5,lte=5"`
}

// UpdateRatingRequest holds the parameters of PUT /api/v1/ratings/{id}.
type UpdateRatingRequest struct {
	Rating float64 `validate:"gte=0.5,lte=5"`
}

// catalogLimit reads ?limit= for the catalog lists. Missing, non-numeric or
// non-positive values fall back to DefaultCatalogLimit.
func catalogLimit(r *http.Request) int {
	n := getIntParam(r, "limit", DefaultCatalogLimit)
	if n <= 0 {
		return DefaultCatalogLimit
	}
	return clampLimit(n)
}
