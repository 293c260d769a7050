// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/loglens/internal/auth"
	"github.com/tomtom215/loglens/internal/models"
	"github.com/tomtom215/loglens/internal/policy"
)

// pingTimeout bounds the engine probe made by the health endpoint.
const pingTimeout = 3 * time.Second

// HealthStatus is the body of the health endpoint.
type HealthStatus struct {
	Status        string  `json:"status"`
	SearchEngine  bool    `json:"search_engine"`
	BreakerState  string  `json:"breaker_state"`
	CacheEntries  int     `json:"cache_entries"`
	CacheHitRate  float64 `json:"cache_hit_rate"`
	AlertsRunning bool    `json:"alerts_running"`
	Uptime        float64 `json:"uptime"`
}

// Identity is the body of the /me endpoint.
type Identity struct {
	User     *models.Caller  `json:"user"`
	Features models.Features `json:"features"`
	AuthMode string          `json:"auth_mode"`
}

// IndexOptions is the body of the /indices endpoint.
type IndexOptions struct {
	IndexOptions        []string `json:"indexOptions"`
	DefaultIndexPattern string   `json:"defaultIndexPattern"`
}

// Health reports liveness and whether the search engine answers.
// The endpoint always returns 200; a failing engine reports "degraded".
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	engineUp := h.search.Ping(ctx) == nil

	status := "healthy"
	if !engineUp {
		status = "degraded"
	}

	health := HealthStatus{
		Status:       status,
		SearchEngine: engineUp,
		BreakerState: h.search.BreakerState(),
		Uptime:       time.Since(h.startTime).Seconds(),
	}
	if h.cache != nil {
		health.CacheEntries = h.cache.Len()
		health.CacheHitRate = h.cache.HitRate()
	}
	if h.scheduler != nil {
		health.AlertsRunning = h.scheduler.IsRunning()
	}

	WriteSuccess(w, r, health)
}

// Me returns the caller identity and the features its teams grant.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())
	mode := auth.ModeNone
	if h.config != nil {
		mode = h.config.Security.AuthMode
	}

	WriteSuccess(w, r, Identity{
		User:     caller,
		Features: policy.EffectiveFeatures(h.policies.Snapshot(), caller),
		AuthMode: mode,
	})
}

// Indices lists the configured index options the caller may query.
func (h *Handler) Indices(w http.ResponseWriter, r *http.Request) {
	p := h.policies.Snapshot()
	caller := auth.CallerFromContext(r.Context())

	options := policy.FilterOptions(p, caller, p.IndexOptions)
	if options == nil {
		options = []string{}
	}

	WriteSuccess(w, r, IndexOptions{
		IndexOptions:        options,
		DefaultIndexPattern: p.DefaultIndexPattern,
	})
}

// Fields lists the fields of an index pattern for the query builder.
func (h *Handler) Fields(w http.ResponseWriter, r *http.Request) {
	indexPattern := chi.URLParam(r, "indexPattern")
	caller := auth.CallerFromContext(r.Context())

	if err := policy.Guard(h.policies.Snapshot(), caller, indexPattern); err != nil {
		h.failEnvelope(w, r, "fields", err)
		return
	}

	fields, err := h.search.DiscoverFields(r.Context(), indexPattern)
	if err != nil {
		h.failEnvelope(w, r, "fields", err)
		return
	}

	NewResponseWriter(w, r).SuccessWithCount(fields, len(fields))
}
