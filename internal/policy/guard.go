// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package policy

import (
	"errors"
	"sort"
	"strings"

	"github.com/tomtom215/loglens/internal/models"
)

var (
	// ErrIndexNotAllowed is returned when the caller may not query an index pattern.
	ErrIndexNotAllowed = errors.New("index pattern not allowed")

	// ErrFeatureDisabled is returned when the caller's teams do not grant a feature.
	ErrFeatureDisabled = errors.New("feature disabled for your team")
)

// AllowedPatterns resolves the caller's allow-list: personal patterns when
// any are configured, otherwise the union of all team patterns. A nil result
// means no restriction applies.
func AllowedPatterns(p *models.Policy, c *models.Caller) []string {
	if c == nil || c.IsAdmin() || p == nil {
		return nil
	}

	if personal := userPatterns(p, c); len(personal) > 0 {
		return personal
	}

	seen := make(map[string]struct{})
	var union []string
	for _, team := range c.Teams {
		for _, pattern := range p.TeamIndexAccess[team] {
			if _, ok := seen[pattern]; ok {
				continue
			}
			seen[pattern] = struct{}{}
			union = append(union, pattern)
		}
	}
	sort.Strings(union)
	return union
}

func userPatterns(p *models.Policy, c *models.Caller) []string {
	if patterns := p.UserIndexAccess[c.Username]; len(patterns) > 0 {
		return patterns
	}
	if c.ID != "" {
		return p.UserIndexAccess[c.ID]
	}
	return nil
}

// IsAllowed decides whether the caller may query indexPattern.
//
// Admins and anonymous callers are always allowed. An empty allow-list
// allows everything. A comma-separated multi-index pattern is allowed only
// when every component is allowed.
func IsAllowed(p *models.Policy, c *models.Caller, indexPattern string) bool {
	if c == nil || c.IsAdmin() {
		return true
	}

	allowed := AllowedPatterns(p, c)
	if len(allowed) == 0 {
		return true
	}

	parts := strings.Split(indexPattern, ",")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" || !MatchAny(allowed, part) {
			return false
		}
	}
	return true
}

// Guard returns ErrIndexNotAllowed when IsAllowed is false.
func Guard(p *models.Policy, c *models.Caller, indexPattern string) error {
	if !IsAllowed(p, c, indexPattern) {
		return ErrIndexNotAllowed
	}
	return nil
}

// FilterOptions keeps the options the caller may query, preserving order.
func FilterOptions(p *models.Policy, c *models.Caller, options []string) []string {
	if c == nil || c.IsAdmin() {
		return options
	}

	out := make([]string, 0, len(options))
	for _, opt := range options {
		if IsAllowed(p, c, opt) {
			out = append(out, opt)
		}
	}
	return out
}
