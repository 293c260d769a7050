// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/loglens/internal/auth"
	"github.com/tomtom215/loglens/internal/cache"
	"github.com/tomtom215/loglens/internal/logging"
	"github.com/tomtom215/loglens/internal/metrics"
	"github.com/tomtom215/loglens/internal/models"
	"github.com/tomtom215/loglens/internal/policy"
	"github.com/tomtom215/loglens/internal/query"
)

// parseTimeParam reads an optional RFC3339 query parameter.
func parseTimeParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, badRequest(name + " must be an RFC3339 timestamp")
	}
	return &t, nil
}

// Search proxies a query DSL body to the engine for one index pattern.
//
// Processing order is guard, rewrite, cache lookup, execute, mask, cache
// store. The guard and rewrite never reach the engine, so a rejected
// request costs nothing upstream. The response keeps the engine's shape.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	indexPattern := chi.URLParam(r, "indexPattern")
	caller := auth.CallerFromContext(ctx)
	p := h.policies.Snapshot()

	if err := policy.Guard(p, caller, indexPattern); err != nil {
		h.fail(w, r, "search", err)
		return
	}

	var body map[string]any
	if err := decodeBody(r, &body); err != nil {
		h.fail(w, r, "search", err)
		return
	}
	start, err := parseTimeParam(r, "start")
	if err != nil {
		h.fail(w, r, "search", err)
		return
	}
	end, err := parseTimeParam(r, "end")
	if err != nil {
		h.fail(w, r, "search", err)
		return
	}

	features := policy.EffectiveFeatures(p, caller)
	rewritten := h.rewriter.Rewrite(body, query.Options{
		LimitTo7Days: features.LimitTo7Days,
		Start:        start,
		End:          end,
		Setting:      indexSetting(p, indexPattern),
	})

	masker, fingerprint, err := h.maskers.get(p)
	if err != nil {
		h.fail(w, r, "search", err)
		return
	}
	masked := !features.PiiUnmasked && masker.Enabled()

	key := cache.Key(cache.KeyParts{
		Op:                "search",
		Scope:             caller.Scope(),
		Index:             indexPattern,
		Unmasked:          features.PiiUnmasked,
		PolicyFingerprint: fingerprint,
		Body:              rewritten,
	})

	var result map[string]any
	cached := false
	if v, ok := h.cache.Get(key); ok {
		result, cached = v.(map[string]any)
	}
	if !cached {
		result, err = h.search.Search(ctx, indexPattern, rewritten)
		if err != nil {
			h.fail(w, r, "search", err)
			return
		}
		if masked {
			result = masker.MaskHits(result)
		}
		h.cache.Set(key, result)
	}

	h.usage.RecordSearch(query.QueryText(body), clientIP(r), models.ActivityMeta{
		User:   caller.Name(),
		Index:  indexPattern,
		Cached: cached,
	})
	metrics.RecordSearch(cached, masked)

	logging.Ctx(ctx).Debug().
		Str("index", indexPattern).
		Bool("cached", cached).
		Bool("masked", masked).
		Msg("Search served")

	writeJSON(w, r, http.StatusOK, result)
}
