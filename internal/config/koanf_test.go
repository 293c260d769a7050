// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Search.URL != "http://localhost:9200" {
		t.Errorf("Search.URL = %q, want http://localhost:9200", cfg.Search.URL)
	}
	if cfg.Export.PageSize != 1000 {
		t.Errorf("Export.PageSize = %d, want 1000", cfg.Export.PageSize)
	}
	if cfg.Alerts.Interval != 5*time.Minute {
		t.Errorf("Alerts.Interval = %v, want 5m", cfg.Alerts.Interval)
	}
	if cfg.Usage.ActivityLimit != 500 {
		t.Errorf("Usage.ActivityLimit = %d, want 500", cfg.Usage.ActivityLimit)
	}
	if cfg.Usage.HourlyRetention != 168 {
		t.Errorf("Usage.HourlyRetention = %d, want 168", cfg.Usage.HourlyRetention)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

// TestEnvTransformFunc verifies environment variable name transformations
func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"SEARCH_URL", "search.url"},
		{"SEARCH_SCROLL_KEEPALIVE", "search.scroll_keepalive"},
		{"CACHE_TTL", "cache.ttl"},
		{"EXPORT_MAX_SIZE", "export.default_max_size"},
		{"SMTP_HOST", "alerts.smtp.host"},
		{"HTTP_PORT", "server.port"},
		{"log_level", "logging.level"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := envTransformFunc(tt.input); got != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoadWithKoanf_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9000
search:
  url: http://search.internal:9200
cache:
  ttl: 1m
  max_entries: 10
data:
  dir: /var/lib/loglens
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "9100")
	t.Setenv("CORS_ORIGINS", "https://a.example.org, https://b.example.org")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf: %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("env should win over file: port = %d", cfg.Server.Port)
	}
	if cfg.Search.URL != "http://search.internal:9200" {
		t.Errorf("Search.URL = %q", cfg.Search.URL)
	}
	if cfg.Cache.TTL != time.Minute || cfg.Cache.MaxEntries != 10 {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://b.example.org" {
		t.Errorf("CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
	if got := cfg.Data.Resolve(cfg.Data.PolicyPath); got != filepath.Join("/var/lib/loglens", "policy.json") {
		t.Errorf("Resolve(policy) = %q", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"missing search url", func(c *Config) { c.Search.URL = "" }, "SEARCH_URL is required"},
		{"search url with query", func(c *Config) { c.Search.URL = "http://h:9200/?x=1" }, "query parameters"},
		{"half basic auth", func(c *Config) { c.Search.Username = "u" }, "set together"},
		{"page size too large", func(c *Config) { c.Export.PageSize = 5000 }, "EXPORT_PAGE_SIZE"},
		{"jwt without secret", func(c *Config) { c.Security.AuthMode = "jwt" }, "JWT_SECRET is required"},
		{"jwt placeholder", func(c *Config) {
			c.Security.AuthMode = "jwt"
			c.Security.JWTSecret = strings.Repeat("x", 24) + "CHANGEME"
		}, "placeholder"},
		{"unknown auth mode", func(c *Config) { c.Security.AuthMode = "basic" }, "AUTH_MODE"},
		{"none in production", func(c *Config) { c.Server.Environment = "production" }, "AUTH_MODE=none"},
		{"smtp without from", func(c *Config) { c.Alerts.SMTP.Host = "mail" }, "SMTP_FROM"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "LOG_LEVEL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_CacheDisabled(t *testing.T) {
	cfg := defaultConfig()
	cfg.Cache.TTL = 0
	cfg.Cache.MaxEntries = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("zero TTL disables the cache and should validate: %v", err)
	}
}
