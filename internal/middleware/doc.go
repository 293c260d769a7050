// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

/*
Package middleware provides HTTP middleware shared by every route.

Key Components:

  - RequestID: reuses X-Request-ID from a proxy or generates a UUID, and
    stores it in the logging context
  - PrometheusMetrics: request count, latency and in-flight gauge labelled
    by chi route pattern
  - Compression: gzip for JSON responses; export downloads, which are
    already gzip files, are passed through

All three are func(http.Handler) http.Handler and plug into chi:

	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.Compression)

The wrappers implement http.Flusher so streamed exports are not held back.
*/
package middleware
