// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package config

import (
	"fmt"
	"path/filepath"
	"time"
)

// Config holds all application configuration.
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to load configuration")
//	}
//	client, err := search.NewClient(cfg.Search)
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Search   SearchConfig   `koanf:"search"`
	Cache    CacheConfig    `koanf:"cache"`
	Export   ExportConfig   `koanf:"export"`
	Data     DataConfig     `koanf:"data"`
	Security SecurityConfig `koanf:"security"`
	Alerts   AlertsConfig   `koanf:"alerts"`
	Usage    UsageConfig    `koanf:"usage"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging, production
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SearchConfig describes how to reach the OpenSearch-compatible engine.
type SearchConfig struct {
	URL                string        `koanf:"url"`
	Username           string        `koanf:"username"`
	Password           string        `koanf:"password"`
	Timeout            time.Duration `koanf:"timeout"`
	ScrollKeepAlive    time.Duration `koanf:"scroll_keepalive"`
	InsecureSkipVerify bool          `koanf:"insecure_skip_verify"`

	// Circuit breaker tuning. The breaker trips when at least
	// BreakerMinRequests calls were made in BreakerInterval and the failure
	// ratio reaches BreakerFailureRatio.
	BreakerMinRequests  uint32        `koanf:"breaker_min_requests"`
	BreakerFailureRatio float64       `koanf:"breaker_failure_ratio"`
	BreakerInterval     time.Duration `koanf:"breaker_interval"`
	BreakerTimeout      time.Duration `koanf:"breaker_timeout"`
}

// CacheConfig holds response cache settings. A zero TTL disables caching.
type CacheConfig struct {
	TTL        time.Duration `koanf:"ttl"`
	MaxEntries int           `koanf:"max_entries"`
}

// ExportConfig holds export streaming settings
type ExportConfig struct {
	PageSize       int `koanf:"page_size"`
	DefaultMaxSize int `koanf:"default_max_size"`
	SampleSize     int `koanf:"sample_size"`
}

// DataConfig locates the JSON state files and the error log directory.
// Relative paths are resolved against Dir.
type DataConfig struct {
	Dir               string        `koanf:"dir"`
	PolicyPath        string        `koanf:"policy_path"`
	AlertRulesPath    string        `koanf:"alert_rules_path"`
	AlertStatePath    string        `koanf:"alert_state_path"`
	MetricsPath       string        `koanf:"metrics_path"`
	ErrorLogDir       string        `koanf:"error_log_dir"`
	ErrorLogRetention time.Duration `koanf:"error_log_retention"`
}

// Resolve returns p joined onto Dir unless p is empty or absolute.
func (d DataConfig) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || d.Dir == "" {
		return p
	}
	return filepath.Join(d.Dir, p)
}

// SecurityConfig holds authentication and request limiting settings
type SecurityConfig struct {
	AuthMode          string        `koanf:"auth_mode"`
	JWTSecret         string        `koanf:"jwt_secret"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// AlertsConfig holds the alert scheduler and mail transport settings
type AlertsConfig struct {
	Enabled          bool          `koanf:"enabled"`
	Interval         time.Duration `koanf:"interval"`
	DefaultRecipient string        `koanf:"default_recipient"`
	SendsPerMinute   int           `koanf:"sends_per_minute"`
	SMTP             SMTPConfig    `koanf:"smtp"`
}

// SMTPConfig holds outbound mail settings
type SMTPConfig struct {
	Host     string        `koanf:"host"`
	Port     int           `koanf:"port"`
	Username string        `koanf:"username"`
	Password string        `koanf:"password"`
	From     string        `koanf:"from"`
	StartTLS bool          `koanf:"starttls"`
	Timeout  time.Duration `koanf:"timeout"`
}

// UsageConfig holds usage metrics retention and snapshot settings
type UsageConfig struct {
	SnapshotInterval time.Duration `koanf:"snapshot_interval"`
	DailyRetention   int           `koanf:"daily_retention"`
	HourlyRetention  int           `koanf:"hourly_retention"`
	ActivityLimit    int           `koanf:"activity_limit"`
}

// LoggingConfig holds logging configuration.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false - include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, the optional config file and the
// environment, then validates it. See LoadWithKoanf.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
