// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/loglens/internal/auth"
	"github.com/tomtom215/loglens/internal/export"
	"github.com/tomtom215/loglens/internal/logging"
	"github.com/tomtom215/loglens/internal/metrics"
	"github.com/tomtom215/loglens/internal/models"
	"github.com/tomtom215/loglens/internal/pii"
	"github.com/tomtom215/loglens/internal/policy"
	"github.com/tomtom215/loglens/internal/query"
	"github.com/tomtom215/loglens/internal/validation"
)

// ExportRequest is the body of the export and estimate endpoints.
// An empty IndexPattern selects the policy default.
type ExportRequest struct {
	Query        map[string]any `json:"query"`
	IndexPattern string         `json:"indexPattern" validate:"omitempty,indexpattern"`
	Size         int            `json:"size" validate:"gte=0"`
}

// exportPlan is a checked export request, ready to run.
type exportPlan struct {
	index  string
	query  map[string]any
	text   string
	masker *pii.Masker
}

// planExport runs every check that must pass before the engine is called:
// validation, the index guard, the exports feature and the query rewrite.
func (h *Handler) planExport(r *http.Request, req *ExportRequest) (*exportPlan, error) {
	if err := decodeBody(r, req); err != nil {
		return nil, err
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		return nil, verr
	}

	p := h.policies.Snapshot()
	caller := auth.CallerFromContext(r.Context())

	index := req.IndexPattern
	if index == "" {
		index = p.DefaultIndexPattern
	}
	if err := policy.Guard(p, caller, index); err != nil {
		return nil, err
	}

	features := policy.EffectiveFeatures(p, caller)
	if !features.Exports {
		return nil, policy.ErrFeatureDisabled
	}

	original := map[string]any{}
	if req.Query != nil {
		original["query"] = req.Query
	}
	rewritten := h.rewriter.Rewrite(original, query.Options{
		LimitTo7Days: features.LimitTo7Days,
		Setting:      indexSetting(p, index),
	})
	q, _ := rewritten["query"].(map[string]any)

	plan := &exportPlan{
		index: index,
		query: q,
		text:  query.QueryText(original),
	}
	if !features.PiiUnmasked {
		masker, _, err := h.maskers.get(p)
		if err != nil {
			return nil, err
		}
		plan.masker = masker
	}
	return plan, nil
}

// EstimateExport samples the first hits of an export query and predicts
// the size of the full download.
func (h *Handler) EstimateExport(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	plan, err := h.planExport(r, &req)
	if err != nil {
		h.fail(w, r, "export-estimate", err)
		return
	}

	sample := export.DefaultSampleSize
	if h.config != nil && h.config.Export.SampleSize > 0 {
		sample = h.config.Export.SampleSize
	}

	est, err := export.EstimateSize(r.Context(), h.search, plan.index, plan.query, sample, h.policies.MaxExportSize(), plan.masker)
	if err != nil {
		h.fail(w, r, "export-estimate", err)
		return
	}
	writeJSON(w, r, http.StatusOK, est)
}

// Export streams every matching document as a gzip-compressed JSON-lines
// or CSV attachment.
//
// The size ceiling is enforced before any upstream call. Once headers are
// sent the status cannot change, so a failure during streaming is written
// into the file as an error object.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	begin := time.Now()

	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		h.fail(w, r, "export", badRequest(err.Error()))
		return
	}

	var req ExportRequest
	plan, err := h.planExport(r, &req)
	if err != nil {
		h.fail(w, r, "export", err)
		return
	}

	size, err := export.ResolveSize(req.Size, h.policies.MaxExportSize())
	if err != nil {
		h.fail(w, r, "export", err)
		return
	}

	filename := fmt.Sprintf("export-%s.%s.gz", begin.UTC().Format("20060102T150405Z"), format.Extension())
	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	res := h.streamer.Stream(ctx, w, export.Request{
		Index:  plan.index,
		Query:  plan.query,
		Size:   size,
		Format: format,
		Masker: plan.masker,
	})
	metrics.RecordExport(string(format), string(res.State), res.Rows, time.Since(begin))

	caller := auth.CallerFromContext(ctx)
	if res.State != export.StateCompleted {
		// Headers are committed; only the error log and metrics remain.
		h.record(r, "export", http.StatusInternalServerError, res.Err, export.ErrorDetail(res.Err))
		return
	}

	h.usage.RecordExport(string(format), plan.text, clientIP(r), models.ActivityMeta{
		User:  caller.Name(),
		Index: plan.index,
		Size:  size,
		Rows:  res.Rows,
	})
	logging.Ctx(ctx).Info().
		Str("index", plan.index).
		Str("format", string(format)).
		Int("rows", res.Rows).
		Dur("duration", time.Since(begin)).
		Msg("Export completed")
}
