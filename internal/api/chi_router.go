// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/reco/internal/middleware"
)

// NewRouter configures all HTTP routes using Chi router. The catalog routes
// are only mounted when catalog is non-nil.
func NewRouter(handler *Handler, catalog *CatalogHandler, mw *ChiMiddleware) http.Handler {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS()) // CORS must be global to handle OPTIONS preflight
	r.Use(chimiddleware.Compress(5))

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	r.Get("/healthz", handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.RateLimit())
		r.Use(middleware.PrometheusMetrics)

		r.Get("/users/{userID}/recommendations", handler.UserRecommendations)
		r.Post("/users/{userID}/recommendations/recompute", handler.UserRecompute)

		if catalog != nil {
			r.Get("/users", catalog.ListUsers)
			r.Post("/users", catalog.CreateUser)
			r.Get("/users/{userID}", catalog.GetUser)
			r.Get("/users/{userID}/ratings", catalog.UserRatings)

			r.Get("/items", catalog.ListItems)
			r.Post("/items", catalog.CreateItem)
			r.Get("/items/{itemID}", catalog.GetItem)
			r.Get("/items/{itemID}/ratings", catalog.ItemRatings)

			r.Get("/ratings", catalog.ListRatings)
			r.Get("/ratings/{id}", catalog.GetRating)
			r.Post("/ratings/{id}", catalog.RateItem)
			r.Put("/ratings/{id}", catalog.UpdateRating)
		}

		r.Route("/admin/recommendations", func(r chi.Router) {
			r.Get("/", handler.AdminRecommendations)
			r.Post("/recompute", handler.Recompute)
			r.Get("/status", handler.RecomputeStatus)
		})
	})

	return r
}
