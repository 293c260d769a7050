// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package policy

import "github.com/tomtom215/loglens/internal/models"

// AllFeatures is the all-permissive set given to admins and anonymous callers.
func AllFeatures() models.Features {
	return models.Features{
		Exports:         true,
		Bookmarks:       true,
		Rules:           true,
		QueryBuilder:    true,
		LimitTo7Days:    false,
		PiiUnmasked:     true,
		ShowFullResults: true,
	}
}

// DefaultFeatures applies to callers whose teams have no toggles configured.
func DefaultFeatures() models.Features {
	return models.Features{
		Exports:         true,
		Bookmarks:       true,
		Rules:           true,
		QueryBuilder:    true,
		ShowFullResults: true,
	}
}

// EffectiveFeatures OR-combines the toggles of every team the caller belongs
// to. Teams without toggles contribute nothing.
//
// LimitTo7Days is OR-combined like every other flag, so one restricting team
// restricts the caller even when another team does not.
func EffectiveFeatures(p *models.Policy, c *models.Caller) models.Features {
	if c == nil || c.IsAdmin() {
		return AllFeatures()
	}
	if p == nil {
		return DefaultFeatures()
	}

	var eff models.Features
	matched := false
	for _, team := range c.Teams {
		t, ok := p.FeatureToggles[team]
		if !ok {
			continue
		}
		matched = true
		eff.Exports = eff.Exports || t.Exports
		eff.Bookmarks = eff.Bookmarks || t.Bookmarks
		eff.Rules = eff.Rules || t.Rules
		eff.QueryBuilder = eff.QueryBuilder || t.QueryBuilder
		eff.LimitTo7Days = eff.LimitTo7Days || t.LimitTo7Days
		eff.PiiUnmasked = eff.PiiUnmasked || t.PiiUnmasked
		eff.ShowFullResults = eff.ShowFullResults || t.ShowFullResults
	}

	if !matched {
		return DefaultFeatures()
	}
	return eff
}
