// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

// Package config loads the Reco configuration from defaults, an optional
// YAML file and environment variables (in that order of precedence, lowest
// first) and validates the result.
package config

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tomtom215/reco/internal/validation"
)

// Config is the root configuration structure.
type Config struct {
	Database  DatabaseConfig  `koanf:"database"`
	Logging   LoggingConfig   `koanf:"logging"`
	Recommend RecommendConfig `koanf:"recommend"`
	Evaluate  EvaluateConfig  `koanf:"evaluate"`
	Schedule  ScheduleConfig  `koanf:"schedule"`
	Server    ServerConfig    `koanf:"server"`
}

// DatabaseConfig selects and tunes the storage backend.
type DatabaseConfig struct {
	// Driver is "duckdb" (default) or "sqlite".
	Driver string `koanf:"driver" validate:"oneof=duckdb sqlite"`

	// Path is the database file; ":memory:" opens a private in-memory database.
	Path string `koanf:"path" validate:"required"`

	// MaxMemory and Threads apply to DuckDB only. Threads 0 uses runtime.NumCPU().
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads" validate:"gte=0"`

	// QueryTimeout bounds each read query. Batch writes use the caller's context.
	QueryTimeout time.Duration `koanf:"query_timeout" validate:"gt=0"`
}

// LoggingConfig mirrors logging.Config for the file and env layers.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// RecommendConfig holds the batch recompute parameters.
//
// The first group mirrors the recompute command line; the second group are
// the pruning bounds of candidate generation and neighbor selection. The
// defaults size a catalog of tens of thousands of items with a few hundred
// thousand ratings comfortably in memory.
type RecommendConfig struct {
	NPerUser    int    `koanf:"n_per_user" validate:"gte=1"`
	KNeighbors  int    `koanf:"k_neighbors" validate:"gte=0"`
	AlgoVersion string `koanf:"algo_version" validate:"required"`

	PopTopP            int     `koanf:"pop_top_p" validate:"gte=0"`
	NeighborPool       int     `koanf:"neighbor_pool" validate:"gte=1"`
	MaxSeedItems       int     `koanf:"max_seed_items" validate:"gte=1"`
	MaxRatersPerItem   int     `koanf:"max_raters_per_item" validate:"gte=1"`
	MaxRatersPerItemCF int     `koanf:"max_raters_per_item_cf" validate:"gte=1"`
	MaxCandidatesCF    int     `koanf:"max_candidates_cf" validate:"gte=0"`
	RatingThreshold    float64 `koanf:"rating_threshold" validate:"gte=0"`
	AlphaMax           float64 `koanf:"alpha_max" validate:"gte=0,lte=1"`
	PopularityQuantile float64 `koanf:"popularity_quantile" validate:"gt=0,lt=1"`
	RegItem            float64 `koanf:"reg_item" validate:"gte=0"`
	RegUser            float64 `koanf:"reg_user" validate:"gte=0"`

	// Workers is the number of goroutines scoring users. 0 uses runtime.NumCPU().
	Workers int `koanf:"workers" validate:"gte=0"`

	// SimCacheCapacity bounds each worker's similarity cache. 0 means unbounded.
	SimCacheCapacity int `koanf:"sim_cache_capacity" validate:"gte=0"`
}

// EvaluateConfig holds the defaults of the offline evaluation command.
type EvaluateConfig struct {
	Split     string  `koanf:"split" validate:"oneof=loo ratio"`
	TestRatio float64 `koanf:"test_ratio" validate:"gt=0,lt=1"`
	Liked     float64 `koanf:"liked" validate:"gte=0"`
	K         int     `koanf:"k" validate:"gte=1"`
	N         int     `koanf:"n" validate:"gte=1"`
	Neighbors int     `koanf:"neighbors" validate:"gte=0"`
	Seed      int64   `koanf:"seed"`
	PopTopP   int     `koanf:"pop_top_p" validate:"gte=0"`
	Algo      string  `koanf:"algo" validate:"required"`
}

// ScheduleConfig drives the supervised recompute service of `reco serve`.
type ScheduleConfig struct {
	Enabled      bool   `koanf:"enabled"`
	Cron         string `koanf:"cron" validate:"required"`
	RunOnStartup bool   `koanf:"run_on_startup"`

	// Timeout bounds a single recompute run.
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	// BreakerFailures consecutive failed runs open the circuit for BreakerCooldown.
	BreakerFailures uint32        `koanf:"breaker_failures" validate:"gte=1"`
	BreakerCooldown time.Duration `koanf:"breaker_cooldown" validate:"gt=0"`
}

// ServerConfig configures the HTTP read surface.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"gte=0"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
}

// Addr returns the listen address.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads the configuration. See LoadWithKoanf for the layering rules.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// Validate checks struct tags first, then the rules that span fields.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}
	if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
		return fmt.Errorf("schedule.cron %q is not a valid cron expression: %w", c.Schedule.Cron, err)
	}
	if c.Schedule.Enabled && c.Schedule.Timeout < time.Second {
		return fmt.Errorf("schedule.timeout must be at least 1s, got %v", c.Schedule.Timeout)
	}
	return nil
}
