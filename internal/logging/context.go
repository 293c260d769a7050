// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	callerKey
)

// ContextWithRequestID stores the id set by the RequestID middleware.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the stored request id, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// ContextWithCaller stores the authenticated username. Anonymous
// requests never call it, so their lines carry no user field.
func ContextWithCaller(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, callerKey, username)
}

func CallerFromContext(ctx context.Context) string {
	u, _ := ctx.Value(callerKey).(string)
	return u
}

// Ctx returns the global logger with request_id and user attached when
// ctx carries them.
//
//	logging.Ctx(ctx).Info().Str("index", pattern).Msg("Search served from cache")
func Ctx(ctx context.Context) *zerolog.Logger {
	lc := global.Load().With()
	if id := RequestIDFromContext(ctx); id != "" {
		lc = lc.Str("request_id", id)
	}
	if u := CallerFromContext(ctx); u != "" {
		lc = lc.Str("user", u)
	}
	l := lc.Logger()
	return &l
}
