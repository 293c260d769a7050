// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package authz

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/tomtom215/loglens/internal/models"
)

// Resources guarded by role.
const (
	ResourceSearch = "search"
	ResourceExport = "export"
	ResourceAlerts = "alerts"
	ResourceAdmin  = "admin"
)

// Actions on a resource.
const (
	ActionRead  = "read"
	ActionWrite = "write"
)

// rbacModel is a hierarchical RBAC model. A "*" action grants every action.
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && (r.act == p.act || p.act == "*")
`

// defaultPolicies grant each role its own resources; the grouping rules
// make admin inherit editor and editor inherit viewer.
var defaultPolicies = [][]string{
	{models.RoleViewer, ResourceSearch, "*"},
	{models.RoleViewer, ResourceExport, "*"},
	{models.RoleEditor, ResourceAlerts, "*"},
	{models.RoleAdmin, ResourceAdmin, "*"},
}

var defaultGroupings = [][]string{
	{models.RoleEditor, models.RoleViewer},
	{models.RoleAdmin, models.RoleEditor},
}

// Enforcer decides whether a role may act on a resource.
type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer builds an enforcer with the built-in role hierarchy.
func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	if _, err := enforcer.AddPolicies(defaultPolicies); err != nil {
		return nil, fmt.Errorf("failed to add policies: %w", err)
	}
	if _, err := enforcer.AddGroupingPolicies(defaultGroupings); err != nil {
		return nil, fmt.Errorf("failed to add role hierarchy: %w", err)
	}

	return &Enforcer{enforcer: enforcer}, nil
}

// Enforce checks if role can perform action on object.
func (e *Enforcer) Enforce(role, object, action string) (bool, error) {
	allowed, err := e.enforcer.Enforce(role, object, action)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}
	return allowed, nil
}

// Allowed checks a caller. Anonymous callers exist only when
// authentication is disabled and are always allowed.
func (e *Enforcer) Allowed(caller *models.Caller, object, action string) (bool, error) {
	if caller == nil {
		return true, nil
	}
	return e.Enforce(caller.Role, object, action)
}

// ImplicitRoles returns the role and every role it inherits.
func (e *Enforcer) ImplicitRoles(role string) ([]string, error) {
	inherited, err := e.enforcer.GetImplicitRolesForUser(role)
	if err != nil {
		return nil, err
	}
	return append([]string{role}, inherited...), nil
}
