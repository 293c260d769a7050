// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/loglens/internal/logging"
	"github.com/tomtom215/loglens/internal/models"
)

// Authentication modes.
const (
	ModeNone = "none"
	ModeJWT  = "jwt"
)

type contextKey string

// CallerContextKey holds the *models.Caller of an authenticated request.
const CallerContextKey contextKey = "caller"

// WithCaller returns a context carrying caller.
func WithCaller(ctx context.Context, caller *models.Caller) context.Context {
	return context.WithValue(ctx, CallerContextKey, caller)
}

// CallerFromContext returns the request identity, or nil for anonymous
// requests.
func CallerFromContext(ctx context.Context) *models.Caller {
	caller, _ := ctx.Value(CallerContextKey).(*models.Caller)
	return caller
}

// Resolver attaches the caller identity to requests.
type Resolver struct {
	mode       string
	jwtManager *JWTManager
}

// NewResolver creates a resolver. jwtManager may be nil when mode is none.
func NewResolver(mode string, jwtManager *JWTManager) *Resolver {
	if mode == "" {
		mode = ModeNone
	}
	return &Resolver{mode: mode, jwtManager: jwtManager}
}

// Mode returns the configured authentication mode.
func (r *Resolver) Mode() string {
	return r.mode
}

// Middleware authenticates the request and stores the caller in the
// request context.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if r.mode == ModeNone {
			next.ServeHTTP(w, req)
			return
		}

		token, err := extractBearerToken(req.Header.Get("Authorization"))
		if err != nil {
			writeUnauthorized(w, req, err.Error())
			return
		}

		claims, err := r.jwtManager.ValidateToken(token)
		if err != nil {
			logging.Ctx(req.Context()).Warn().Err(err).Msg("Token validation failed")
			writeUnauthorized(w, req, "invalid token")
			return
		}

		ctx := WithCaller(req.Context(), claims.Caller())
		ctx = logging.ContextWithCaller(ctx, claims.Username)
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

// extractBearerToken extracts the token from an Authorization header.
func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", fmt.Errorf("missing token")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", fmt.Errorf("invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="loglens"`)
	w.WriteHeader(http.StatusUnauthorized)
	//nolint:errcheck // Response already committed
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error": map[string]string{
			"code":       "UNAUTHORIZED",
			"message":    "Unauthorized: " + message,
			"request_id": logging.RequestIDFromContext(r.Context()),
		},
	})
}
