// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/tomtom215/loglens/internal/models"
)

func TestAdmin_RoleChecks(t *testing.T) {
	a := newTestAPI(t, basePolicy())

	tests := []struct {
		name   string
		method string
		path   string
		caller *models.Caller
		status int
	}{
		{"viewer policy", http.MethodGet, "/api/v1/admin/policy", viewer, http.StatusForbidden},
		{"editor policy", http.MethodGet, "/api/v1/admin/policy", editor, http.StatusForbidden},
		{"admin policy", http.MethodGet, "/api/v1/admin/policy", admin, http.StatusOK},
		{"viewer rules", http.MethodGet, "/api/v1/admin/alerts/rules", viewer, http.StatusForbidden},
		{"editor rules", http.MethodGet, "/api/v1/admin/alerts/rules", editor, http.StatusOK},
		{"admin rules", http.MethodGet, "/api/v1/admin/alerts/rules", admin, http.StatusOK},
		{"editor usage", http.MethodGet, "/api/v1/admin/usage", editor, http.StatusForbidden},
		{"anonymous", http.MethodGet, "/api/v1/admin/usage", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(tt.method, tt.path, tt.caller, nil)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.status, w.Body.String())
			}
		})
	}
}

func TestAdmin_PutPolicy(t *testing.T) {
	a := newTestAPI(t, basePolicy())
	before := a.policies.Snapshot().Version

	// Prime the response cache so the replace can be seen clearing it.
	a.do(http.MethodPost, "/api/v1/search/logs-app", viewer, searchBody("x"))
	if a.cache.Len() != 1 {
		t.Fatalf("cache entries = %d, want 1", a.cache.Len())
	}

	p := basePolicy()
	p.PiiFieldRules = append(p.PiiFieldRules, models.PiiRule{Pattern: "user.name", Action: models.PiiPartial})
	w := a.do(http.MethodPut, "/api/v1/admin/policy", admin, p)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data models.Policy `json:"data"`
	}
	decodeJSON(t, w, &resp)
	if resp.Data.Version != before+1 || len(resp.Data.PiiFieldRules) != 2 {
		t.Errorf("replaced policy = %+v", resp.Data)
	}
	if a.cache.Len() != 0 {
		t.Errorf("cache entries after replace = %d, want 0", a.cache.Len())
	}

	// The new rule applies to the next search.
	w = a.do(http.MethodPost, "/api/v1/search/logs-app", viewer, searchBody("x"))
	if !strings.Contains(w.Body.String(), `"name":"B***b"`) {
		t.Errorf("partial rule was not applied after replace: %s", w.Body.String())
	}
}

func TestAdmin_PutPolicyRejectsBadRules(t *testing.T) {
	a := newTestAPI(t, basePolicy())
	before := a.policies.Snapshot()

	tests := []struct {
		name   string
		mutate func(p *models.Policy)
	}{
		{"unknown action", func(p *models.Policy) {
			p.PiiFieldRules = []models.PiiRule{{Pattern: "user.email", Action: "scramble"}}
		}},
		{"empty pattern", func(p *models.Policy) {
			p.PiiFieldRules = []models.PiiRule{{Pattern: "", Action: models.PiiMask}}
		}},
		{"negative max export", func(p *models.Policy) {
			p.MaxExportSize = -5
		}},
		{"bad search mode", func(p *models.Policy) {
			p.IndexPatternSettings = []models.IndexPatternSetting{{Pattern: "logs-app", SearchMode: "xor"}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := basePolicy()
			tt.mutate(&p)
			w := a.do(http.MethodPut, "/api/v1/admin/policy", admin, p)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (body %s)", w.Code, w.Body.String())
			}
		})
	}

	if a.policies.Snapshot() != before {
		t.Error("rejected replace changed the snapshot")
	}
}

func TestAdmin_ClearCache(t *testing.T) {
	a := newTestAPI(t, basePolicy())
	a.do(http.MethodPost, "/api/v1/search/logs-app", sre, searchBody("x"))
	a.do(http.MethodPost, "/api/v1/search/logs-app", sre, searchBody("x"))

	w := a.do(http.MethodPost, "/api/v1/admin/cache/clear", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Data CacheClearResult `json:"data"`
	}
	decodeJSON(t, w, &resp)
	if resp.Data.Cleared != 1 || a.cache.Len() != 0 {
		t.Errorf("cleared = %d, remaining = %d", resp.Data.Cleared, a.cache.Len())
	}
	if resp.Data.Stats == nil {
		t.Fatal("missing cache stats")
	}
	if resp.Data.Stats.Hits != 1 || resp.Data.Stats.Misses != 1 || resp.Data.Stats.TotalKeys != 1 {
		t.Errorf("stats = %+v, want 1 hit, 1 miss, 1 key", *resp.Data.Stats)
	}
}

func TestAdmin_Usage(t *testing.T) {
	a := newTestAPI(t, basePolicy())
	a.do(http.MethodPost, "/api/v1/search/logs-app", sre, searchBody("timeout"))
	a.do(http.MethodPost, "/api/v1/search/logs-app", viewer, searchBody("timeout"))

	w := a.do(http.MethodGet, "/api/v1/admin/usage?days=1&limit=1", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data UsageReport `json:"data"`
	}
	decodeJSON(t, w, &resp)
	if len(resp.Data.Daily) != 1 || resp.Data.Daily[0].Searches != 2 {
		t.Errorf("daily = %+v", resp.Data.Daily)
	}
	if len(resp.Data.Activity) != 1 || resp.Data.Activity[0].User != "vera" {
		t.Errorf("activity = %+v", resp.Data.Activity)
	}

	w = a.do(http.MethodGet, "/api/v1/admin/usage?days=zero", admin, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad days status = %d, want 400", w.Code)
	}
}

func TestAdmin_ErrorsEmpty(t *testing.T) {
	a := newTestAPI(t, basePolicy())

	w := a.do(http.MethodGet, "/api/v1/admin/errors", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Data []models.ErrorEntry `json:"data"`
	}
	decodeJSON(t, w, &resp)
	if resp.Data == nil || len(resp.Data) != 0 {
		t.Errorf("body = %s, want an empty list", w.Body.String())
	}
}

func TestAlertRules_ReplaceAndEvaluate(t *testing.T) {
	a := newTestAPI(t, basePolicy())

	set := models.AlertRuleSet{Rules: []models.AlertRule{
		{ID: "timeouts", Name: "Timeout spike", Query: "timeout", Threshold: 1, WindowMinutes: 60},
		{ID: "quiet", Name: "Never", Query: "nothing", Threshold: 5, WindowMinutes: 60, Email: "team@example.com"},
	}}
	w := a.do(http.MethodPut, "/api/v1/admin/alerts/rules", editor, set)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if got := len(a.rules.Rules()); got != 2 {
		t.Fatalf("stored rules = %d, want 2", got)
	}

	a.do(http.MethodPost, "/api/v1/search/logs-app", sre, searchBody("timeout"))
	a.do(http.MethodPost, "/api/v1/search/logs-app", sre, searchBody(" timeout "))

	w = a.do(http.MethodPost, "/api/v1/admin/alerts/evaluate", editor, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("evaluate status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data map[string][]string `json:"data"`
	}
	decodeJSON(t, w, &resp)
	if fired := resp.Data["fired"]; len(fired) != 1 || fired[0] != "timeouts" {
		t.Errorf("fired = %v, want [timeouts]", fired)
	}
	if len(a.sender.sent) != 1 || a.sender.sent[0].To != "ops@example.com" {
		t.Errorf("sent = %+v", a.sender.sent)
	}

	// A second evaluation inside the window is suppressed.
	decodeJSON(t, a.do(http.MethodPost, "/api/v1/admin/alerts/evaluate", editor, nil), &resp)
	if len(resp.Data["fired"]) != 0 {
		t.Errorf("second evaluation fired %v", resp.Data["fired"])
	}
}

func TestAlertRules_Invalid(t *testing.T) {
	a := newTestAPI(t, basePolicy())

	tests := []struct {
		name string
		set  models.AlertRuleSet
	}{
		{"missing name", models.AlertRuleSet{Rules: []models.AlertRule{{ID: "a", Query: "x", WindowMinutes: 60}}}},
		{"zero window", models.AlertRuleSet{Rules: []models.AlertRule{{ID: "a", Name: "A", Query: "x"}}}},
		{"bad email", models.AlertRuleSet{Rules: []models.AlertRule{{ID: "a", Name: "A", Query: "x", WindowMinutes: 5, Email: "not-mail"}}}},
		{"duplicate id", models.AlertRuleSet{Rules: []models.AlertRule{
			{ID: "a", Name: "A", Query: "x", WindowMinutes: 5},
			{ID: "a", Name: "B", Query: "y", WindowMinutes: 5},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(http.MethodPut, "/api/v1/admin/alerts/rules", editor, tt.set)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (body %s)", w.Code, w.Body.String())
			}
		})
	}
	if len(a.rules.Rules()) != 0 {
		t.Error("invalid rules were stored")
	}
}

func TestNotFound(t *testing.T) {
	a := newTestAPI(t, basePolicy())

	w := a.do(http.MethodGet, "/api/v1/nope", admin, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	a := newTestAPI(t, basePolicy())
	a.do(http.MethodPost, "/api/v1/search/logs-app", sre, searchBody("x"))

	w := a.do(http.MethodGet, "/metrics", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	for _, name := range []string{"api_requests_total", "searches_total"} {
		if !strings.Contains(w.Body.String(), name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}
