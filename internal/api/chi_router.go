// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/loglens/internal/auth"
	"github.com/tomtom215/loglens/internal/authz"
	"github.com/tomtom215/loglens/internal/middleware"
)

// Router sets up HTTP routes using the Chi router.
type Router struct {
	handler       *Handler
	resolver      *auth.Resolver
	authz         *authz.Middleware
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. A nil chiMiddleware uses the defaults.
func NewRouter(handler *Handler, resolver *auth.Resolver, authzMiddleware *authz.Middleware, chiMiddleware *ChiMiddleware) *Router {
	if chiMiddleware == nil {
		chiMiddleware = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		resolver:      resolver,
		authz:         authzMiddleware,
		chiMiddleware: chiMiddleware,
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.Compression) // skips the already gzip-encoded export stream

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(APISecurityHeaders())

		r.With(router.chiMiddleware.RateLimitHealth()).Get("/health", h.Health)

		// Everything below requires an identity when auth is enabled.
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.Use(router.resolver.Middleware)

			r.Get("/me", h.Me)

			r.Group(func(r chi.Router) {
				r.Use(router.authz.Require(authz.ResourceSearch, authz.ActionRead))
				r.Get("/indices", h.Indices)
				r.Get("/fields/{indexPattern}", h.Fields)
				r.Post("/search/{indexPattern}", h.Search)
			})

			r.Route("/export", func(r chi.Router) {
				r.Use(router.authz.Require(authz.ResourceExport, authz.ActionRead))
				r.Post("/estimate", h.EstimateExport)
				r.With(router.chiMiddleware.RateLimitExport()).Post("/{format}", h.Export)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(router.chiMiddleware.RateLimitAdmin())

				// Alert rules are managed by editors.
				r.Group(func(r chi.Router) {
					r.Use(router.authz.RequireMethod(authz.ResourceAlerts))
					r.Get("/alerts/rules", h.GetAlertRules)
					r.Put("/alerts/rules", h.PutAlertRules)
					r.Post("/alerts/evaluate", h.EvaluateAlerts)
				})

				r.Group(func(r chi.Router) {
					r.Use(router.authz.RequireMethod(authz.ResourceAdmin))
					r.Get("/policy", h.GetPolicy)
					r.Put("/policy", h.PutPolicy)
					r.Post("/cache/clear", h.ClearCache)
					r.Get("/usage", h.Usage)
					r.Get("/errors", h.Errors)
				})
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		WriteError(w, req, http.StatusNotFound, ErrCodeNotFound, "Not found")
	})

	return r
}
