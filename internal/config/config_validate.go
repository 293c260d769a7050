// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateSearch,
		c.validateCache,
		c.validateExport,
		c.validateData,
		c.validateSecurity,
		c.validateAlerts,
		c.validateUsage,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

// validateSearch validates the search engine connection settings
func (c *Config) validateSearch() error {
	if c.Search.URL == "" {
		return fmt.Errorf("SEARCH_URL is required")
	}
	if err := validateHTTPURL(c.Search.URL, "SEARCH_URL"); err != nil {
		return err
	}
	if c.Search.Timeout <= 0 {
		return fmt.Errorf("SEARCH_TIMEOUT must be positive")
	}
	if c.Search.ScrollKeepAlive < time.Second {
		return fmt.Errorf("SEARCH_SCROLL_KEEPALIVE must be at least 1s")
	}
	if c.Search.BreakerFailureRatio <= 0 || c.Search.BreakerFailureRatio > 1 {
		return fmt.Errorf("SEARCH_BREAKER_FAILURE_RATIO must be in (0, 1]")
	}
	if (c.Search.Username == "") != (c.Search.Password == "") {
		return fmt.Errorf("SEARCH_USERNAME and SEARCH_PASSWORD must be set together")
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.TTL < 0 {
		return fmt.Errorf("CACHE_TTL must not be negative")
	}
	if c.Cache.TTL > 0 && c.Cache.MaxEntries < 1 {
		return fmt.Errorf("CACHE_MAX_ENTRIES must be at least 1 when caching is enabled")
	}
	return nil
}

// maxScrollPageSize is the largest batch the export loop will request.
const maxScrollPageSize = 1000

func (c *Config) validateExport() error {
	if c.Export.PageSize < 1 || c.Export.PageSize > maxScrollPageSize {
		return fmt.Errorf("EXPORT_PAGE_SIZE must be between 1 and %d", maxScrollPageSize)
	}
	if c.Export.DefaultMaxSize < 1 {
		return fmt.Errorf("EXPORT_MAX_SIZE must be positive")
	}
	if c.Export.SampleSize < 1 {
		return fmt.Errorf("EXPORT_SAMPLE_SIZE must be positive")
	}
	return nil
}

func (c *Config) validateData() error {
	paths := map[string]string{
		"POLICY_PATH":      c.Data.PolicyPath,
		"ALERT_RULES_PATH": c.Data.AlertRulesPath,
		"ALERT_STATE_PATH": c.Data.AlertStatePath,
		"METRICS_PATH":     c.Data.MetricsPath,
	}
	for name, p := range paths {
		if p == "" {
			return fmt.Errorf("%s is required", name)
		}
	}
	if c.Data.ErrorLogRetention < time.Hour {
		return fmt.Errorf("ERROR_LOG_RETENTION must be at least 1h")
	}
	return nil
}

// validAuthModes defines the allowed authentication modes
var validAuthModes = map[string]bool{
	"none": true,
	"jwt":  true,
}

// Rate limit constants
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

// validateSecurity validates security configuration
func (c *Config) validateSecurity() error {
	if !validAuthModes[c.Security.AuthMode] {
		return fmt.Errorf("AUTH_MODE must be one of: none, jwt")
	}
	if c.Security.AuthMode == "none" && c.IsProduction() {
		return fmt.Errorf("AUTH_MODE=none is not allowed when ENVIRONMENT=production")
	}
	if c.Security.AuthMode == "jwt" {
		if err := c.validateJWTSecret(); err != nil {
			return err
		}
	}
	if c.Security.AuthMode != "none" && c.hasWildcardCORS() && c.IsProduction() {
		return fmt.Errorf("CORS_ORIGINS=* (wildcard) is not allowed in production with authentication enabled")
	}
	return c.validateRateLimits()
}

// validateJWTSecret validates the JWT secret configuration
func (c *Config) validateJWTSecret() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_MODE is jwt")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters for security")
	}
	if containsPlaceholder(c.Security.JWTSecret) {
		return fmt.Errorf("JWT_SECRET contains a placeholder value - generate a secure secret with: openssl rand -base64 32")
	}
	return nil
}

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// hasWildcardCORS checks if CORS is configured with wildcard origins
func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// ShouldWarnAboutCORS returns true if CORS configuration has security concerns
// that should be logged at startup
func (c *Config) ShouldWarnAboutCORS() bool {
	return c.Security.AuthMode != "none" && c.hasWildcardCORS()
}

// validateAlerts only checks SMTP settings when the scheduler is enabled and
// a host is configured; without a host alerts are evaluated and logged only.
func (c *Config) validateAlerts() error {
	if !c.Alerts.Enabled {
		return nil
	}
	if c.Alerts.Interval < time.Minute {
		return fmt.Errorf("ALERTS_INTERVAL must be at least 1m")
	}
	if c.Alerts.SendsPerMinute < 1 {
		return fmt.Errorf("ALERTS_SENDS_PER_MINUTE must be positive")
	}
	if c.Alerts.SMTP.Host == "" {
		return nil
	}
	if c.Alerts.SMTP.Port < 1 || c.Alerts.SMTP.Port > 65535 {
		return fmt.Errorf("SMTP_PORT must be between 1 and 65535")
	}
	if c.Alerts.SMTP.From == "" {
		return fmt.Errorf("SMTP_FROM is required when SMTP_HOST is set")
	}
	return nil
}

func (c *Config) validateUsage() error {
	if c.Usage.SnapshotInterval < time.Second {
		return fmt.Errorf("USAGE_SNAPSHOT_INTERVAL must be at least 1s")
	}
	if c.Usage.DailyRetention < 1 || c.Usage.HourlyRetention < 1 || c.Usage.ActivityLimit < 1 {
		return fmt.Errorf("usage retention settings must be positive")
	}
	return nil
}

// IsProduction returns true if the application is running in production mode.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

// validLogLevels defines the allowed log levels
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats defines the allowed log formats
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// placeholderPatterns indicate the operator forgot to set a real value.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"PLACEHOLDER",
	"EXAMPLE",
}

func containsPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upper, pattern) {
			return true
		}
	}
	return false
}
