// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

/*
rbac.go - Caller identity and roles

Role Hierarchy:
  - viewer: search and export on permitted indices
  - editor: viewer plus alert rule management
  - admin: everything, bypasses index allow-lists and PII masking

A nil *Caller means authentication is disabled; it is treated like an admin
by the policy layer and scoped as "public" by the response cache.
*/

package models

// Role constants define the standard roles in the system.
const (
	RoleViewer = "viewer"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

// ValidRoles contains all valid role names for validation.
var ValidRoles = []string{RoleViewer, RoleEditor, RoleAdmin}

// IsValidRole checks if a role name is valid.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// PublicScope is the cache scope used for anonymous callers.
const PublicScope = "public"

// Caller is the identity attached to a request.
type Caller struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Role     string   `json:"role"`
	Teams    []string `json:"teams"`
}

// IsAdmin reports whether the caller has the admin role.
// A nil caller is not an admin; callers check for nil separately.
func (c *Caller) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}

// Scope returns the identifier used to partition cached responses.
func (c *Caller) Scope() string {
	if c == nil {
		return PublicScope
	}
	if c.ID != "" {
		return c.ID
	}
	return "user:" + c.Username
}

// Name returns the username, or "anonymous" for a nil caller.
func (c *Caller) Name() string {
	if c == nil {
		return "anonymous"
	}
	return c.Username
}
