// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

/*
Package supervisor provides process supervision for `reco serve` using suture v4.

# Overview

The supervisor tree organizes services into two layers for failure isolation:

	RootSupervisor ("reco")
	├── BatchSupervisor ("batch-layer")
	│   └── RecomputeService (if schedule.enabled)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A crash in the scheduled recompute does not take the read API down; the
API keeps serving the last persisted recommendations while the batch layer
restarts.

# Usage Example

	logger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(logger, supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddBatchService(recomputeSvc)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return tree.Serve(ctx)

Supervisor events (restarts, backoff, timeouts) are logged through the
sutureslog adapter, which writes into zerolog via logging.NewSlogLogger.
*/
package supervisor
