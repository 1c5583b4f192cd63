// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/tomtom215/reco/internal/api"
	"github.com/tomtom215/reco/internal/config"
	"github.com/tomtom215/reco/internal/logging"
	"github.com/tomtom215/reco/internal/recommend"
	"github.com/tomtom215/reco/internal/supervisor"
	"github.com/tomtom215/reco/internal/supervisor/services"
)

// runServe runs the supervisor tree: the scheduled recompute on the batch
// layer and the HTTP server on the api layer. It returns when ctx is
// cancelled.
func runServe(ctx context.Context, cfg *config.Config, args []string, _, stderr io.Writer) error {
	fs := newFlagSet("serve", stderr)
	if help, err := parseFlags(fs, args); help || err != nil {
		return err
	}

	rcfg := recommendConfig(&cfg.Recommend)
	if err := rcfg.Validate(); err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), treeCfg)
	if err != nil {
		return err
	}

	// scheduler stays a nil interface when scheduling is disabled so the
	// admin endpoints can report it.
	var scheduler api.Scheduler
	if cfg.Schedule.Enabled {
		svc, err := services.NewRecomputeService(
			recommend.NewBatch(db, db, rcfg),
			services.RecomputeServiceConfig{
				Schedule:        cfg.Schedule.Cron,
				RunOnStartup:    cfg.Schedule.RunOnStartup,
				Timeout:         cfg.Schedule.Timeout,
				BreakerFailures: cfg.Schedule.BreakerFailures,
				BreakerCooldown: cfg.Schedule.BreakerCooldown,
				Options:         recomputeOptions(&cfg.Recommend),
			},
			logging.WithComponent("scheduler"),
		)
		if err != nil {
			return err
		}
		tree.AddBatchService(svc)
		scheduler = svc
	} else {
		logging.Warn().Msg("Scheduled recompute disabled (SCHEDULE_ENABLED=false)")
	}

	handler := api.NewHandler(db, scheduler, cfg.Database.QueryTimeout)
	catalog := api.NewCatalogHandler(db, cfg.Database.QueryTimeout)
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(handler, catalog, api.NewChiMiddleware(api.ChiMiddlewareConfigFromServer(&cfg.Server))),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.ReadTimeout + cfg.Database.QueryTimeout,
		IdleTimeout:       2 * time.Minute,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	logging.Info().
		Str("addr", server.Addr).
		Bool("schedule", cfg.Schedule.Enabled).
		Str("cron", cfg.Schedule.Cron).
		Msg("Starting reco server")

	err = tree.Serve(ctx)

	if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within the shutdown timeout")
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info().Msg("Server stopped")
	return nil
}
