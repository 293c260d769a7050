// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package api

import (
	"net/http"
	"strconv"

	"github.com/tomtom215/loglens/internal/cache"
	"github.com/tomtom215/loglens/internal/logging"
	"github.com/tomtom215/loglens/internal/models"
	"github.com/tomtom215/loglens/internal/pii"
	"github.com/tomtom215/loglens/internal/validation"
)

// Admin list defaults.
const (
	defaultUsageDays     = 7
	defaultActivityLimit = 50
	defaultErrorLimit    = 100
	maxListLimit         = 1000
)

// UsageReport is the body of the admin usage endpoint.
type UsageReport struct {
	Daily    []models.DailyUsage    `json:"daily"`
	Activity []models.ActivityEntry `json:"activity"`
}

// intParam parses a positive integer query parameter, clamped to max.
func intParam(r *http.Request, name string, def, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, badRequest(name + " must be a positive integer")
	}
	if n > max {
		n = max
	}
	return n, nil
}

// GetPolicy returns the current policy snapshot.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, h.policies.Snapshot())
}

// PutPolicy replaces the policy wholesale. Masking rules are compiled
// first so a bad pattern is rejected before anything is persisted.
func (h *Handler) PutPolicy(w http.ResponseWriter, r *http.Request) {
	var p models.Policy
	if err := decodeBody(r, &p); err != nil {
		h.failEnvelope(w, r, "admin-policy", err)
		return
	}
	if verr := validation.ValidateStruct(&p); verr != nil {
		h.failEnvelope(w, r, "admin-policy", verr)
		return
	}
	if _, err := pii.Compile(p.PiiFieldRules); err != nil {
		h.failEnvelope(w, r, "admin-policy", err)
		return
	}

	updated, err := h.policies.Replace(p)
	if err != nil {
		h.failEnvelope(w, r, "admin-policy", err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Int64("version", updated.Version).
		Int("pii_rules", len(updated.PiiFieldRules)).
		Msg("Policy replaced")
	WriteSuccess(w, r, updated)
}

// CacheClearResult is the body of the cache clear endpoint. Stats are
// taken just before the entries are dropped.
type CacheClearResult struct {
	Cleared int          `json:"cleared"`
	Stats   *cache.Stats `json:"stats,omitempty"`
}

// ClearCache drops every cached search response.
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	var result CacheClearResult
	if h.cache != nil {
		stats := h.cache.GetStats()
		result.Stats = &stats
		result.Cleared = h.cache.Len()
		h.cache.Clear()
	}
	logging.Ctx(r.Context()).Info().Int("entries", result.Cleared).Msg("Response cache cleared")
	WriteSuccess(w, r, result)
}

// Usage returns the daily aggregates and the recent activity feed.
func (h *Handler) Usage(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r, "days", defaultUsageDays, maxListLimit)
	if err != nil {
		h.failEnvelope(w, r, "admin-usage", err)
		return
	}
	limit, err := intParam(r, "limit", defaultActivityLimit, maxListLimit)
	if err != nil {
		h.failEnvelope(w, r, "admin-usage", err)
		return
	}

	WriteSuccess(w, r, UsageReport{
		Daily:    h.usage.Daily(days),
		Activity: h.usage.Activity(limit),
	})
}

// Errors returns the most recent error log entries.
func (h *Handler) Errors(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", defaultErrorLimit, maxListLimit)
	if err != nil {
		h.failEnvelope(w, r, "admin-errors", err)
		return
	}
	if h.errors == nil {
		NewResponseWriter(w, r).SuccessWithCount([]models.ErrorEntry{}, 0)
		return
	}

	entries, err := h.errors.List(r.Context(), limit)
	if err != nil {
		h.failEnvelope(w, r, "admin-errors", err)
		return
	}
	if entries == nil {
		entries = []models.ErrorEntry{}
	}
	NewResponseWriter(w, r).SuccessWithCount(entries, len(entries))
}

// GetAlertRules returns the configured alert rules.
func (h *Handler) GetAlertRules(w http.ResponseWriter, r *http.Request) {
	rules := h.rules.Rules()
	if rules == nil {
		rules = []models.AlertRule{}
	}
	WriteSuccess(w, r, models.AlertRuleSet{Rules: rules})
}

// PutAlertRules replaces the alert rule list.
func (h *Handler) PutAlertRules(w http.ResponseWriter, r *http.Request) {
	var set models.AlertRuleSet
	if err := decodeBody(r, &set); err != nil {
		h.failEnvelope(w, r, "admin-alert-rules", err)
		return
	}
	if verr := validation.ValidateStruct(&set); verr != nil {
		h.failEnvelope(w, r, "admin-alert-rules", verr)
		return
	}
	if err := h.rules.Replace(set.Rules); err != nil {
		h.failEnvelope(w, r, "admin-alert-rules", err)
		return
	}

	logging.Ctx(r.Context()).Info().Int("rules", len(set.Rules)).Msg("Alert rules replaced")
	h.GetAlertRules(w, r)
}

// EvaluateAlerts runs one evaluation immediately and lists the rules that fired.
func (h *Handler) EvaluateAlerts(w http.ResponseWriter, r *http.Request) {
	fired := h.scheduler.Evaluate(r.Context())
	if fired == nil {
		fired = []string{}
	}
	WriteSuccess(w, r, map[string][]string{"fired": fired})
}
