// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package authz

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/loglens/internal/auth"
	"github.com/tomtom215/loglens/internal/logging"
	"github.com/tomtom215/loglens/internal/metrics"
)

// Middleware provides authorization middleware using Casbin.
type Middleware struct {
	enforcer *Enforcer
}

// NewMiddleware creates a new authorization middleware.
func NewMiddleware(enforcer *Enforcer) *Middleware {
	return &Middleware{enforcer: enforcer}
}

// Require returns chi-compatible middleware that lets a request through
// only if its caller may perform action on object.
func (m *Middleware) Require(object, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := auth.CallerFromContext(r.Context())

			allowed, err := m.enforcer.Allowed(caller, object, action)
			if err != nil {
				logging.Ctx(r.Context()).Error().Err(err).Msg("Authorization error")
				writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
				return
			}
			if !allowed {
				metrics.RecordPolicyViolation("role")
				logging.Ctx(r.Context()).Warn().
					Str("role", caller.Role).
					Str("object", object).
					Str("action", action).
					Msg("Role not permitted")
				writeError(w, r, http.StatusForbidden, "FORBIDDEN", "Forbidden: insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireMethod applies Require(object, ActionRead) to safe methods and
// Require(object, ActionWrite) otherwise.
func (m *Middleware) RequireMethod(object string) func(http.Handler) http.Handler {
	read := m.Require(object, ActionRead)
	write := m.Require(object, ActionWrite)
	return func(next http.Handler) http.Handler {
		r, w := read(next), write(next)
		return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				r.ServeHTTP(rw, req)
			default:
				w.ServeHTTP(rw, req)
			}
		})
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // Response already committed
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error": map[string]string{
			"code":       code,
			"message":    message,
			"request_id": logging.RequestIDFromContext(r.Context()),
		},
	})
}
