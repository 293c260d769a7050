// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered on the default registry through promauto and
exposed at /metrics in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

API Metrics:
  - api_requests_total: requests by method, endpoint, status_code
  - api_request_duration_seconds: request latency by method, endpoint
  - api_active_requests: in-flight requests
  - api_rate_limit_hits_total: rate limit rejections by endpoint

Search Engine Metrics:
  - search_upstream_request_duration_seconds: latency by operation
  - search_upstream_errors_total: failures by operation, status_code
  - circuit_breaker_state, circuit_breaker_requests_total,
    circuit_breaker_state_transitions_total

Pipeline Metrics:
  - searches_total: proxied searches by cached, masked
  - policy_violations_total: 403 rejections by kind
  - exports_total, export_rows, export_duration_seconds
  - policy_version: active policy snapshot version
  - cache_hits_total, cache_misses_total, cache_entries, cache_evictions_total

Background Metrics:
  - alert_evaluations_total, alerts_fired_total
  - usage_snapshots_total
  - error_log_entries_total

System Metrics:
  - app_info, app_uptime_seconds

# Usage

	start := time.Now()
	resp, err := client.Search(ctx, index, body)
	metrics.RecordUpstream("search", time.Since(start), status, err)

# Thread Safety

All collectors are safe for concurrent use.
*/
package metrics
