// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

/*
Package auth resolves the caller identity attached to every request.

Authentication Modes (configured via AUTH_MODE):

 1. none: every request is anonymous. Handlers see a nil *models.Caller,
    which the policy layer treats as unrestricted.

 2. jwt: requests carry "Authorization: Bearer <token>", an HS256 JWT
    issued by the identity provider in front of Loglens. Claims:

    sub       caller id
    username  display and audit name
    role      viewer | editor | admin
    teams     team names used for index access and feature toggles

    A missing, expired or tampered token is rejected with 401.

Usage Example:

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
	    return err
	}
	resolver := auth.NewResolver(cfg.Security.AuthMode, jwtManager)
	r.Use(resolver.Middleware)

	// In a handler
	caller := auth.CallerFromContext(r.Context())
*/
package auth
