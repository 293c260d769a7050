// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

/*
Package api provides the HTTP layer of Loglens.

Routes (all under /api/v1 except /metrics):

	GET  /health                  liveness and search engine status
	GET  /me                      caller identity and effective features
	GET  /indices                 index options the caller may query
	GET  /fields/{indexPattern}   field discovery
	POST /search/{indexPattern}   guarded, rewritten, cached and masked search
	POST /export/estimate         export size estimate
	POST /export/{format}         gzip JSON-lines or CSV download
	GET  /admin/policy            policy snapshot (PUT replaces it)
	POST /admin/cache/clear       drop cached search responses
	GET  /admin/usage             daily usage and activity feed
	GET  /admin/errors            durable error log
	GET  /admin/alerts/rules      alert rules (PUT replaces them; editor role)
	POST /admin/alerts/evaluate   run one alert evaluation (editor role)

Search, estimate and export answer with the engine's shapes and report
failures as {error, detail}. The other endpoints use the APIResponse
envelope.

Middleware order: request ID, real IP, panic recovery, CORS, Prometheus
metrics and gzip compression apply to every route. API routes add security
headers, per-IP rate limiting, authentication (auth.Resolver) and role
checks (authz.Middleware). Index allow-lists and feature toggles are
enforced by the handlers against the current policy snapshot.
*/
package api
