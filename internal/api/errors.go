// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/loglens/internal/alerting"
	"github.com/tomtom215/loglens/internal/auth"
	"github.com/tomtom215/loglens/internal/export"
	"github.com/tomtom215/loglens/internal/logging"
	"github.com/tomtom215/loglens/internal/metrics"
	"github.com/tomtom215/loglens/internal/models"
	"github.com/tomtom215/loglens/internal/pii"
	"github.com/tomtom215/loglens/internal/policy"
	"github.com/tomtom215/loglens/internal/search"
	"github.com/tomtom215/loglens/internal/validation"
)

// errorLogTimeout bounds the durable error-log write at a route boundary.
const errorLogTimeout = 2 * time.Second

// badRequestError marks a malformed request detected by a handler.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequest(msg string) error {
	return &badRequestError{msg: msg}
}

// failure is the body of a failed search, estimate or export request.
type failure struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// classify maps an error to the status and body a client may see.
// Policy violations never name the indices that exist; internal errors
// carry no detail.
func classify(err error) (int, failure) {
	var (
		rule     *pii.RuleError
		size     *export.SizeError
		pv       *policy.ValidationError
		reqErr   *validation.RequestValidationError
		bad      *badRequestError
		upstream *search.UpstreamError
	)

	switch {
	case errors.Is(err, policy.ErrIndexNotAllowed):
		return http.StatusForbidden, failure{Error: policy.ErrIndexNotAllowed.Error()}
	case errors.Is(err, policy.ErrFeatureDisabled):
		return http.StatusForbidden, failure{Error: policy.ErrFeatureDisabled.Error()}
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, failure{Error: "invalid request", Detail: reqErr.Error()}
	case errors.As(err, &size), errors.As(err, &rule), errors.As(err, &pv), errors.As(err, &bad):
		return http.StatusBadRequest, failure{Error: "invalid request", Detail: err.Error()}
	case errors.Is(err, alerting.ErrDuplicateRule):
		return http.StatusBadRequest, failure{Error: "invalid request", Detail: err.Error()}
	case errors.As(err, &upstream):
		return upstream.StatusCode(), failure{Error: "search engine request failed", Detail: upstream.Detail}
	default:
		return http.StatusInternalServerError, failure{Error: "internal error"}
	}
}

// fail writes err as a {error, detail} body. Server-side failures are
// also appended to the durable error log.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, route string, err error) {
	status, body := classify(err)
	h.record(r, route, status, err, body.Detail)
	writeJSON(w, r, status, body)
}

// failEnvelope is fail for endpoints answering with APIResponse.
func (h *Handler) failEnvelope(w http.ResponseWriter, r *http.Request, route string, err error) {
	status, body := classify(err)
	h.record(r, route, status, err, body.Detail)

	rw := NewResponseWriter(w, r)
	switch {
	case status == http.StatusForbidden:
		rw.Forbidden(body.Error)
	case status == http.StatusBadRequest:
		var reqErr *validation.RequestValidationError
		if errors.As(err, &reqErr) {
			apiErr := reqErr.ToAPIError()
			rw.ValidationError(apiErr.Message, apiErr.Details)
			return
		}
		rw.ValidationError(body.Detail, nil)
	case status >= http.StatusInternalServerError && body.Detail != "":
		rw.ErrorWithDetails(status, ErrCodeUpstreamFailed, body.Error, body.Detail)
	default:
		rw.Error(status, ErrCodeInternalError, body.Error)
	}
}

func (h *Handler) record(r *http.Request, route string, status int, err error, detail string) {
	ctx := r.Context()
	logger := logging.Ctx(ctx)

	if status < http.StatusInternalServerError {
		if status == http.StatusForbidden {
			metrics.RecordPolicyViolation("index")
		}
		logger.Warn().Err(err).Str("route", route).Int("status", status).Msg("Request rejected")
		return
	}

	logger.Error().Err(err).Str("route", route).Int("status", status).Msg("Request failed")
	if h.errors == nil {
		return
	}

	// The request context may already be cancelled by a disconnecting client.
	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), errorLogTimeout)
	defer cancel()

	if detail == "" {
		detail = export.ErrorDetail(err)
	}
	entry := models.ErrorEntry{
		Route:     route,
		Status:    status,
		Message:   err.Error(),
		Detail:    detail,
		User:      auth.CallerFromContext(ctx).Name(),
		RequestID: logging.RequestIDFromContext(ctx),
	}
	if _, appendErr := h.errors.Append(logCtx, entry); appendErr != nil {
		logger.Warn().Err(appendErr).Msg("Failed to append error log entry")
	}
}
