// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/reco/config.yaml",
	"/etc/reco/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:       "duckdb",
			Path:         "/data/reco.duckdb",
			MaxMemory:    "2GB",
			Threads:      0,
			QueryTimeout: 2 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Recommend: RecommendConfig{
			NPerUser:           20,
			KNeighbors:         20,
			AlgoVersion:        "hybrid_usercf_pop",
			PopTopP:            300,
			NeighborPool:       30,
			MaxSeedItems:       20,
			MaxRatersPerItem:   30,
			MaxRatersPerItemCF: 200,
			MaxCandidatesCF:    600,
			RatingThreshold:    4.0,
			AlphaMax:           0.9,
			PopularityQuantile: 0.8,
			RegItem:            10,
			RegUser:            15,
			Workers:            0,
			SimCacheCapacity:   0,
		},
		Evaluate: EvaluateConfig{
			Split:     "loo",
			TestRatio: 0.2,
			Liked:     4.0,
			K:         10,
			N:         50,
			Neighbors: 50,
			Seed:      42,
			PopTopP:   500,
			Algo:      "hybrid_usercf_pop",
		},
		Schedule: ScheduleConfig{
			Enabled:         true,
			Cron:            "0 3 * * *", // nightly, after the ratings import window
			RunOnStartup:    false,
			Timeout:         30 * time.Minute,
			BreakerFailures: 3,
			BreakerCooldown: 15 * time.Minute,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
	}
}

// LoadWithKoanf loads configuration with layered sources:
//  1. Defaults from defaultConfig
//  2. Optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment variables listed in envMappings
//
// The merged result is validated before it is returned.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	"db_driver":        "database.driver",
	"db_path":          "database.path",
	"db_max_memory":    "database.max_memory",
	"db_threads":       "database.threads",
	"db_query_timeout": "database.query_timeout",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"reco_n_per_user":             "recommend.n_per_user",
	"reco_k_neighbors":            "recommend.k_neighbors",
	"reco_algo_version":           "recommend.algo_version",
	"reco_pop_top_p":              "recommend.pop_top_p",
	"reco_neighbor_pool":          "recommend.neighbor_pool",
	"reco_max_seed_items":         "recommend.max_seed_items",
	"reco_max_raters_per_item":    "recommend.max_raters_per_item",
	"reco_max_raters_per_item_cf": "recommend.max_raters_per_item_cf",
	"reco_max_candidates_cf":      "recommend.max_candidates_cf",
	"reco_rating_threshold":       "recommend.rating_threshold",
	"reco_alpha_max":              "recommend.alpha_max",
	"reco_popularity_quantile":    "recommend.popularity_quantile",
	"reco_reg_item":               "recommend.reg_item",
	"reco_reg_user":               "recommend.reg_user",
	"reco_workers":                "recommend.workers",
	"reco_sim_cache_capacity":     "recommend.sim_cache_capacity",

	"eval_split":      "evaluate.split",
	"eval_test_ratio": "evaluate.test_ratio",
	"eval_liked":      "evaluate.liked",
	"eval_k":          "evaluate.k",
	"eval_n":          "evaluate.n",
	"eval_neighbors":  "evaluate.neighbors",
	"eval_seed":       "evaluate.seed",
	"eval_pop_top_p":  "evaluate.pop_top_p",
	"eval_algo":       "evaluate.algo",

	"schedule_enabled":          "schedule.enabled",
	"schedule_cron":             "schedule.cron",
	"schedule_run_on_startup":   "schedule.run_on_startup",
	"schedule_timeout":          "schedule.timeout",
	"schedule_breaker_failures": "schedule.breaker_failures",
	"schedule_breaker_cooldown": "schedule.breaker_cooldown",

	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"cors_origins":          "server.cors_origins",
	"rate_limit_requests":   "server.rate_limit_reqs",
	"rate_limit_window":     "server.rate_limit_window",
}

// envTransformFunc maps DB_PATH to database.path and so on. Unknown
// variables map to "" so koanf skips them.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
