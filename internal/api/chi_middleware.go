// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/loglens/internal/auth"
	"github.com/tomtom215/loglens/internal/config"
	"github.com/tomtom215/loglens/internal/metrics"
)

// ErrCodeRateLimited is the envelope code of a 429.
const ErrCodeRateLimited = "RATE_LIMITED"

// ChiMiddlewareConfig configures CORS and the general API rate limit.
// CORS origins default to none; they must be configured explicitly.
type ChiMiddlewareConfig struct {
	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSExposedHeaders   []string
	CORSAllowCredentials bool
	CORSMaxAge           int // seconds

	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
}

func DefaultChiMiddlewareConfig() *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{},
		CORSAllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		CORSAllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		// Browsers need Content-Disposition to name export downloads.
		CORSExposedHeaders: []string{"Content-Disposition", "X-Request-ID"},
		CORSMaxAge:         86400,

		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
	}
}

// ChiMiddlewareConfigFromSecurity applies SecurityConfig over the
// defaults. Zero limits keep the default.
func ChiMiddlewareConfigFromSecurity(sec *config.SecurityConfig) *ChiMiddlewareConfig {
	cfg := DefaultChiMiddlewareConfig()
	if sec == nil {
		return cfg
	}
	cfg.CORSAllowedOrigins = sec.CORSOrigins
	cfg.RateLimitDisabled = sec.RateLimitDisabled
	if sec.RateLimitReqs > 0 {
		cfg.RateLimitRequests = sec.RateLimitReqs
	}
	if sec.RateLimitWindow > 0 {
		cfg.RateLimitWindow = sec.RateLimitWindow
	}
	return cfg
}

// ChiMiddleware builds the CORS handler and the per-route limiters.
type ChiMiddleware struct {
	config *ChiMiddlewareConfig
	cors   func(http.Handler) http.Handler
}

func NewChiMiddleware(cfg *ChiMiddlewareConfig) *ChiMiddleware {
	if cfg == nil {
		cfg = DefaultChiMiddlewareConfig()
	}
	return &ChiMiddleware{
		config: cfg,
		cors: cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   cfg.CORSAllowedMethods,
			AllowedHeaders:   cfg.CORSAllowedHeaders,
			ExposedHeaders:   cfg.CORSExposedHeaders,
			AllowCredentials: cfg.CORSAllowCredentials,
			MaxAge:           cfg.CORSMaxAge,
		}),
	}
}

func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimitConfig is a request budget per window.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

var (
	// RateLimitExport is tight because every export holds a scroll
	// cursor open on the engine.
	RateLimitExport = RateLimitConfig{Requests: 10, Window: time.Minute}
	RateLimitAdmin  = RateLimitConfig{Requests: 30, Window: time.Minute}
	RateLimitHealth = RateLimitConfig{Requests: 1000, Window: time.Minute}
)

// RateLimit is the general API budget. It runs before the identity is
// resolved, so clients are keyed by IP.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	return m.limiter("api", RateLimitConfig{m.config.RateLimitRequests, m.config.RateLimitWindow}, httprate.KeyByIP)
}

// RateLimitExport and RateLimitAdmin run after authentication and key by
// username, so users sharing a NAT address do not share a budget.
func (m *ChiMiddleware) RateLimitExport() func(http.Handler) http.Handler {
	return m.limiter("export", RateLimitExport, keyByCaller)
}

func (m *ChiMiddleware) RateLimitAdmin() func(http.Handler) http.Handler {
	return m.limiter("admin", RateLimitAdmin, keyByCaller)
}

func (m *ChiMiddleware) RateLimitHealth() func(http.Handler) http.Handler {
	return m.limiter("health", RateLimitHealth, httprate.KeyByIP)
}

func (m *ChiMiddleware) limiter(name string, rl RateLimitConfig, key httprate.KeyFunc) func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(rl.Requests, rl.Window,
		httprate.WithKeyFuncs(key),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.APIRateLimitHits.WithLabelValues(name).Inc()
			WriteError(w, r, http.StatusTooManyRequests, ErrCodeRateLimited, "Too many requests, retry later")
		}),
	)
}

// keyByCaller falls back to the client IP for anonymous requests.
func keyByCaller(r *http.Request) (string, error) {
	if c := auth.CallerFromContext(r.Context()); c != nil && c.Username != "" {
		return "user:" + c.Username, nil
	}
	return httprate.KeyByIP(r)
}

// APISecurityHeaders sets nosniff, frame denial and a referrer policy.
// HSTS is added only when the request came over TLS, directly or through
// a terminating proxy.
func APISecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}
