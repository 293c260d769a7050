// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

/*
Package authz provides role-based authorization using Casbin.

Role Hierarchy:

	admin  -> admin resources, inherits editor
	editor -> alert rule management, inherits viewer
	viewer -> search and export

The model and policy are built in; roles come from the caller's token.
Index-level access and feature toggles are decided by the policy package,
not here.

Usage:

	enforcer, err := authz.NewEnforcer()
	mw := authz.NewMiddleware(enforcer)
	r.With(mw.Require(authz.ResourceAdmin, authz.ActionWrite)).Put("/policy", h.PutPolicy)
*/
package authz
