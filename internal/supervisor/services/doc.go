// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

/*
Package services provides suture.Service wrappers for the long-running parts
of `reco serve`.

# Available Services

RecomputeService:
  - Runs recommend.Batch.RecomputeAll on a cron schedule
  - Optional run on startup and on-demand runs through Trigger
  - Every run is bounded by a timeout and guarded by a circuit breaker
  - Exposes the status of the last run

HTTPServerService:
  - Wraps *http.Server with graceful shutdown
  - Converts the ListenAndServe pattern to Serve

Each wrapper implements fmt.Stringer so suture can name it in its events.
*/
package services
