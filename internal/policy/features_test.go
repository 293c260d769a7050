// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package policy

import (
	"testing"

	"github.com/tomtom215/loglens/internal/models"
)

func TestEffectiveFeatures_AdminAndAnonymous(t *testing.T) {
	p := &models.Policy{FeatureToggles: map[string]models.Features{"ops": {LimitTo7Days: true}}}

	for name, c := range map[string]*models.Caller{
		"anonymous": nil,
		"admin":     {Username: "root", Role: models.RoleAdmin, Teams: []string{"ops"}},
	} {
		got := EffectiveFeatures(p, c)
		if got != AllFeatures() {
			t.Errorf("%s: got %+v, want all features", name, got)
		}
		if got.LimitTo7Days {
			t.Errorf("%s: should never be limited", name)
		}
	}
}

func TestEffectiveFeatures_ORAcrossTeams(t *testing.T) {
	p := &models.Policy{FeatureToggles: map[string]models.Features{
		"ops": {Exports: true},
		"sec": {PiiUnmasked: true},
	}}
	c := &models.Caller{Username: "bob", Role: models.RoleViewer, Teams: []string{"ops", "sec"}}

	got := EffectiveFeatures(p, c)
	if !got.Exports || !got.PiiUnmasked {
		t.Errorf("expected permissive flags from both teams, got %+v", got)
	}
	if got.Bookmarks || got.Rules {
		t.Errorf("flags no team grants must stay off, got %+v", got)
	}
}

// A restrictive flag is OR-combined like the others: a second, unrestricted
// team does not lift the limit.
func TestEffectiveFeatures_LimitTo7DaysIsORed(t *testing.T) {
	p := &models.Policy{FeatureToggles: map[string]models.Features{
		"restricted": {Exports: true, LimitTo7Days: true},
		"open":       {Exports: true, LimitTo7Days: false},
	}}
	c := &models.Caller{Username: "bob", Role: models.RoleViewer, Teams: []string{"open", "restricted"}}

	if !EffectiveFeatures(p, c).LimitTo7Days {
		t.Error("membership in one restricted team should impose the limit")
	}
}

func TestEffectiveFeatures_NoToggles(t *testing.T) {
	p := &models.Policy{FeatureToggles: map[string]models.Features{"other": {}}}
	c := &models.Caller{Username: "bob", Role: models.RoleViewer, Teams: []string{"ops"}}

	if got := EffectiveFeatures(p, c); got != DefaultFeatures() {
		t.Errorf("got %+v, want defaults", got)
	}
	if DefaultFeatures().PiiUnmasked || DefaultFeatures().LimitTo7Days {
		t.Error("defaults must keep PII masked and be unlimited")
	}
}
