// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

/*
Package main is the entry point for the Loglens server.

Loglens sits between log viewers and an OpenSearch-compatible engine. Every
search and export passes through an admin-managed policy that restricts
index patterns per team and user, applies feature toggles, limits callers to
recent data and masks PII fields in the results.

# Application Architecture

Components are wired in this order:

 1. Configuration: Koanf v2 (defaults, config.yaml, environment)
 2. Logging: zerolog with JSON or console output
 3. State: policy, usage metrics and alert rules load in parallel
 4. Error log: BadgerDB store for server-side failures
 5. Search client: HTTP client with a gobreaker circuit breaker
 6. Alerting: scheduler with SMTP or log-only delivery
 7. Authentication and authorization: JWT or none, Casbin roles
 8. HTTP: Chi router with CORS, rate limiting and Prometheus metrics
 9. Supervisor tree: suture v4

	RootSupervisor ("loglens")
	├── storage-layer:    usage snapshotter, error log GC
	├── background-layer: alert scheduler
	└── api-layer:        HTTP server

# Configuration

Priority: environment variables > config file > defaults.

	HTTP_PORT=8080
	SEARCH_URL=https://opensearch:9200
	SEARCH_USERNAME=loglens
	SEARCH_PASSWORD=<password>
	DATA_DIR=/data                 # policy.json, alert-rules.json, metrics.json, errors/
	AUTH_MODE=jwt                  # jwt or none
	JWT_SECRET=<32+ chars>
	CACHE_TTL=30s                  # 0 disables the response cache
	EXPORT_MAX_SIZE=100000         # used until the policy sets maxExportSize
	SMTP_HOST=smtp.example.com     # unset: fired alerts are only logged
	SMTP_FROM=loglens@example.com
	ALERTS_DEFAULT_RECIPIENT=ops@example.com
	LOG_LEVEL=info
	LOG_FORMAT=json

# Signal Handling

SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains open
requests for SHUTDOWN_TIMEOUT, the usage snapshot is written and the error
log is closed.
*/
package main
