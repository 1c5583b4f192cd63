// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

/*
Package api serves persisted recommendations over HTTP using the chi router.

# Endpoints

	GET  /healthz                                  database connectivity and uptime
	GET  /metrics                                  Prometheus exposition
	GET  /api/v1/users/{userID}/recommendations    ?limit=20&algo=
	POST /api/v1/users/{userID}/recommendations/recompute  202, queues a full run
	GET  /api/v1/admin/recommendations             ?limit=10
	POST /api/v1/admin/recommendations/recompute   202, queues a batch run
	GET  /api/v1/admin/recommendations/status      last batch run

Catalog endpoints, mounted when a CatalogHandler is supplied:

	GET  /api/v1/users                  ?limit=50
	POST /api/v1/users                  {"username":"..."}, 201
	GET  /api/v1/users/{userID}
	GET  /api/v1/users/{userID}/ratings ?limit=50
	GET  /api/v1/items                  ?limit=50
	POST /api/v1/items                  {"title":"...","genres":[...]}, 201
	GET  /api/v1/items/{itemID}
	GET  /api/v1/items/{itemID}/ratings ?limit=50
	GET  /api/v1/ratings                ?limit=50
	GET  /api/v1/ratings/{id}
	POST /api/v1/ratings/{itemID}       {"user_id":1,"rating":4}, 201
	PUT  /api/v1/ratings/{id}           ?rating=3

Unknown ids answer 404 NOT_FOUND; a taken username or a second rating of
the same item answers 409 CONFLICT. New ratings only reach recommendations
on the next recompute.

Limits are clamped to [1, 50]; catalog lists treat a missing or
non-positive limit as 50. Every JSON body uses the models.APIResponse
envelope:

	{"status":"success","data":[...],"metadata":{"timestamp":"...","query_time_ms":2}}

# Middleware

Applied globally: request id, real IP, panic recovery, CORS (go-chi/cors)
and response compression. The /api/v1 group adds per-IP rate limiting
(go-chi/httprate) and Prometheus request metrics.

The API never computes recommendations itself. It reads what the last
batch wrote and, for the recompute endpoint, asks the scheduled recompute
service to run.
*/
package api
