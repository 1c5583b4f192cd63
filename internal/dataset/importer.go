// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

// Package dataset imports a MovieLens style dataset (movies.csv and
// ratings.csv) into the store the recommender reads from.
//
// The import is a full replacement: users, items and ratings are reloaded
// in one transaction and previously computed recommendations are dropped.
package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tomtom215/reco/internal/logging"
	"github.com/tomtom215/reco/internal/models"
)

// File names inside the dataset directory.
const (
	MoviesFile  = "movies.csv"
	RatingsFile = "ratings.csv"
)

// Store persists a complete dataset.
type Store interface {
	ReplaceDataset(ctx context.Context, ds *models.Dataset) error
}

// ImportStats holds statistics about an import operation.
type ImportStats struct {
	Users   int `json:"users"`
	Items   int `json:"items"`
	Ratings int `json:"ratings"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// Duration returns the duration of the import operation.
func (s *ImportStats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Importer loads a dataset directory into a Store.
type Importer struct {
	dir   string
	store Store

	mu      sync.Mutex
	running bool
}

// NewImporter returns an importer reading dir and writing to store.
func NewImporter(dir string, store Store) *Importer {
	return &Importer{dir: dir, store: store}
}

// Load reads and validates both files of dir without touching any store.
func Load(dir string) (*models.Dataset, error) {
	moviesPath := filepath.Join(dir, MoviesFile)
	ratingsPath := filepath.Join(dir, RatingsFile)

	movies, err := os.Open(moviesPath) //nolint:gosec // operator supplied dataset path
	if err != nil {
		return nil, fmt.Errorf("missing file: %w", err)
	}
	defer movies.Close()

	ratings, err := os.Open(ratingsPath) //nolint:gosec // operator supplied dataset path
	if err != nil {
		return nil, fmt.Errorf("missing file: %w", err)
	}
	defer ratings.Close()

	items, byExternal, err := ReadMovies(movies)
	if err != nil {
		return nil, err
	}
	rs, users, err := ReadRatings(ratings, byExternal)
	if err != nil {
		return nil, err
	}
	return &models.Dataset{Users: users, Items: items, Ratings: rs}, nil
}

// Import loads the dataset directory and replaces the store contents.
func (i *Importer) Import(ctx context.Context) (*ImportStats, error) {
	i.mu.Lock()
	if i.running {
		i.mu.Unlock()
		return nil, fmt.Errorf("import already in progress")
	}
	i.running = true
	i.mu.Unlock()

	defer func() {
		i.mu.Lock()
		i.running = false
		i.mu.Unlock()
	}()

	stats := &ImportStats{StartTime: time.Now()}
	logger := logging.WithComponent("dataset")
	logger.Info().Str("dir", i.dir).Msg("Starting dataset import")

	ds, err := Load(i.dir)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := i.store.ReplaceDataset(ctx, ds); err != nil {
		return nil, fmt.Errorf("store dataset: %w", err)
	}

	stats.Users = len(ds.Users)
	stats.Items = len(ds.Items)
	stats.Ratings = len(ds.Ratings)
	stats.EndTime = time.Now()

	logger.Info().
		Int("users", stats.Users).
		Int("items", stats.Items).
		Int("ratings", stats.Ratings).
		Dur("duration", stats.Duration()).
		Msg("Dataset import complete")
	return stats, nil
}
