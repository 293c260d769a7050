// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package metrics

import (
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Search engine (upstream) metrics
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_upstream_request_duration_seconds",
			Help:    "Duration of calls to the search engine",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "search", "scroll", "clear_scroll", "field_caps", "ping"
	)

	UpstreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_upstream_errors_total",
			Help: "Total number of failed calls to the search engine",
		},
		[]string{"operation", "status_code"},
	)

	// Pipeline metrics
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "searches_total",
			Help: "Total number of proxied searches",
		},
		[]string{"cached", "masked"},
	)

	PolicyViolations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_violations_total",
			Help: "Requests rejected by index access or feature policy",
		},
		[]string{"kind"}, // "index", "feature"
	)

	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exports_total",
			Help: "Total number of exports by format and final state",
		},
		[]string{"format", "state"},
	)

	ExportRows = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "export_rows",
			Help:    "Rows written per completed export",
			Buckets: []float64{0, 10, 100, 1000, 10000, 100000, 1000000},
		},
	)

	ExportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "export_duration_seconds",
			Help:    "Wall-clock duration of export streams",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
		},
		[]string{"format"},
	)

	PolicyVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "policy_version",
			Help: "Version number of the active policy snapshot",
		},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions",
		},
		[]string{"cache_type", "reason"}, // reason: "expired", "capacity", "manual"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Alerting
	AlertEvaluations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alert_evaluations_total",
			Help: "Total number of alert evaluation cycles",
		},
	)

	AlertsFired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_fired_total",
			Help: "Alert notifications by outcome",
		},
		[]string{"result"}, // "sent", "failed", "suppressed"
	)

	// Durable error log
	ErrorLogEntries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "error_log_entries_total",
			Help: "Route-boundary failures appended to the error log",
		},
		[]string{"route", "status_code"},
	)

	UsageSnapshots = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usage_snapshots_total",
			Help: "Usage store snapshot writes",
		},
		[]string{"result"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Seconds since the process started",
		},
		func() float64 { return time.Since(startedAt).Seconds() },
	)
)

var startedAt = time.Now()

// SetBuildInfo publishes the running version as app_info.
func SetBuildInfo(version string) {
	AppInfo.Reset()
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordUpstream records one search engine call. status is 0 for
// transport failures.
func RecordUpstream(operation string, duration time.Duration, status int, err error) {
	UpstreamRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		code := "transport"
		if status > 0 {
			code = strconv.Itoa(status)
		}
		UpstreamErrors.WithLabelValues(operation, code).Inc()
	}
}

// RecordSearch counts a proxied search.
func RecordSearch(cached, masked bool) {
	SearchesTotal.WithLabelValues(strconv.FormatBool(cached), strconv.FormatBool(masked)).Inc()
}

// RecordExport records the outcome of an export stream.
func RecordExport(format, state string, rows int, duration time.Duration) {
	ExportsTotal.WithLabelValues(format, state).Inc()
	ExportDuration.WithLabelValues(format).Observe(duration.Seconds())
	if state == "completed" {
		ExportRows.Observe(float64(rows))
	}
}

// RecordPolicyViolation counts a rejected request.
func RecordPolicyViolation(kind string) {
	PolicyViolations.WithLabelValues(kind).Inc()
}

// RecordAlert records a fired, failed or suppressed alert.
func RecordAlert(result string) {
	AlertsFired.WithLabelValues(result).Inc()
}

// RecordErrorLogEntry counts an entry appended to the durable error log.
func RecordErrorLogEntry(route string, status int) {
	ErrorLogEntries.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// RecordUsageSnapshot counts a usage snapshot write.
func RecordUsageSnapshot(err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	UsageSnapshots.WithLabelValues(result).Inc()
}
