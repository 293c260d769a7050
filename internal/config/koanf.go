// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/loglens/config.yaml",
	"/etc/loglens/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Search: SearchConfig{
			URL:                 "http://localhost:9200",
			Timeout:             30 * time.Second,
			ScrollKeepAlive:     time.Minute,
			BreakerMinRequests:  10,
			BreakerFailureRatio: 0.6,
			BreakerInterval:     time.Minute,
			BreakerTimeout:      30 * time.Second,
		},
		Cache: CacheConfig{
			TTL:        30 * time.Second,
			MaxEntries: 500,
		},
		Export: ExportConfig{
			PageSize:       1000,
			DefaultMaxSize: 100000,
			SampleSize:     10,
		},
		Data: DataConfig{
			Dir:               "/data",
			PolicyPath:        "policy.json",
			AlertRulesPath:    "alert-rules.json",
			AlertStatePath:    "alert-state.json",
			MetricsPath:       "metrics.json",
			ErrorLogDir:       "errors",
			ErrorLogRetention: 14 * 24 * time.Hour,
		},
		Security: SecurityConfig{
			AuthMode:        "none",
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   300,
			RateLimitWindow: time.Minute,
		},
		Alerts: AlertsConfig{
			Enabled:        true,
			Interval:       5 * time.Minute,
			SendsPerMinute: 30,
			SMTP: SMTPConfig{
				Port:     587,
				StartTLS: true,
				Timeout:  15 * time.Second,
			},
		},
		Usage: UsageConfig{
			SnapshotInterval: time.Minute,
			DailyRetention:   30,
			HourlyRetention:  168,
			ActivityLimit:    500,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults
//  2. Config file (optional)
//  3. Environment variables
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file found, or "" if none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths defines which config paths are parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices.
// Env vars arrive as strings while YAML already yields slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
// Unlisted variables are ignored so the process environment cannot leak
// arbitrary keys into the configuration.
var envMappings = map[string]string{
	"http_port":        "server.port",
	"http_host":        "server.host",
	"http_timeout":     "server.timeout",
	"shutdown_timeout": "server.shutdown_timeout",
	"environment":      "server.environment",

	"search_url":                   "search.url",
	"search_username":              "search.username",
	"search_password":              "search.password",
	"search_timeout":               "search.timeout",
	"search_scroll_keepalive":      "search.scroll_keepalive",
	"search_insecure_skip_verify":  "search.insecure_skip_verify",
	"search_breaker_min_requests":  "search.breaker_min_requests",
	"search_breaker_failure_ratio": "search.breaker_failure_ratio",
	"search_breaker_interval":      "search.breaker_interval",
	"search_breaker_timeout":       "search.breaker_timeout",

	"cache_ttl":         "cache.ttl",
	"cache_max_entries": "cache.max_entries",

	"export_page_size":   "export.page_size",
	"export_max_size":    "export.default_max_size",
	"export_sample_size": "export.sample_size",

	"data_dir":            "data.dir",
	"policy_path":         "data.policy_path",
	"alert_rules_path":    "data.alert_rules_path",
	"alert_state_path":    "data.alert_state_path",
	"metrics_path":        "data.metrics_path",
	"error_log_dir":       "data.error_log_dir",
	"error_log_retention": "data.error_log_retention",

	"auth_mode":           "security.auth_mode",
	"jwt_secret":          "security.jwt_secret",
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	"alerts_enabled":           "alerts.enabled",
	"alerts_interval":          "alerts.interval",
	"alerts_default_recipient": "alerts.default_recipient",
	"alerts_sends_per_minute":  "alerts.sends_per_minute",
	"smtp_host":                "alerts.smtp.host",
	"smtp_port":                "alerts.smtp.port",
	"smtp_username":            "alerts.smtp.username",
	"smtp_password":            "alerts.smtp.password",
	"smtp_from":                "alerts.smtp.from",
	"smtp_starttls":            "alerts.smtp.starttls",
	"smtp_timeout":             "alerts.smtp.timeout",

	"usage_snapshot_interval": "usage.snapshot_interval",
	"usage_daily_retention":   "usage.daily_retention",
	"usage_hourly_retention":  "usage.hourly_retention",
	"usage_activity_limit":    "usage.activity_limit",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - SEARCH_URL -> search.url
//   - SMTP_HOST -> alerts.smtp.host
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
