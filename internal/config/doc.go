// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

/*
Package config provides centralized configuration management for Loglens.

Configuration is loaded in three layers with Koanf v2, later layers winning:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file (config.yaml, or the path in CONFIG_PATH)
 3. Environment variables, mapped explicitly onto koanf paths

# Environment Variables

Server:
  - HTTP_HOST, HTTP_PORT, HTTP_TIMEOUT, SHUTDOWN_TIMEOUT, ENVIRONMENT

Search engine:
  - SEARCH_URL: base URL of the OpenSearch-compatible engine (required)
  - SEARCH_USERNAME, SEARCH_PASSWORD: optional basic auth
  - SEARCH_TIMEOUT: per-call timeout (default: 30s)
  - SEARCH_SCROLL_KEEPALIVE: scroll context lifetime (default: 1m)
  - SEARCH_INSECURE_SKIP_VERIFY: skip TLS verification (default: false)

Cache:
  - CACHE_TTL: response cache TTL, 0 disables caching (default: 30s)
  - CACHE_MAX_ENTRIES: bounded size (default: 500)

Export:
  - EXPORT_PAGE_SIZE: scroll batch size, capped at 1000
  - EXPORT_MAX_SIZE: default maxExportSize when the policy has none

Data files:
  - DATA_DIR, POLICY_PATH, ALERT_RULES_PATH, ALERT_STATE_PATH, METRICS_PATH,
    ERROR_LOG_DIR, ERROR_LOG_RETENTION

Security:
  - AUTH_MODE: none or jwt (default: none)
  - JWT_SECRET: HS256 secret, at least 32 characters when AUTH_MODE=jwt
  - CORS_ORIGINS: comma-separated origins
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT

Alerts:
  - ALERTS_ENABLED, ALERTS_INTERVAL, ALERTS_DEFAULT_RECIPIENT
  - SMTP_HOST, SMTP_PORT, SMTP_USERNAME, SMTP_PASSWORD, SMTP_FROM, SMTP_STARTTLS

Usage metrics:
  - USAGE_SNAPSHOT_INTERVAL, USAGE_DAILY_RETENTION, USAGE_HOURLY_RETENTION

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

Config is immutable after Load and safe for concurrent reads.
*/
package config
