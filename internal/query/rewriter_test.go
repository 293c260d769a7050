// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package query

import (
	"reflect"
	"testing"
	"time"

	"github.com/tomtom215/loglens/internal/models"
)

var fixedNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func TestRecentOnlyFilter_Bounds(t *testing.T) {
	f := RecentOnlyFilter([]string{"ts"}, fixedNow)

	want := map[string]any{"range": map[string]any{"ts": map[string]any{"gte": "2026-03-08T11:55:00.000Z"}}}
	if !reflect.DeepEqual(f, want) {
		t.Errorf("filter = %#v, want %#v", f, want)
	}
}

func TestRecentOnlyFilter_DefaultFieldsAreORed(t *testing.T) {
	f := RecentOnlyFilter(TimeFields(nil), fixedNow)

	b, ok := f["bool"].(map[string]any)
	if !ok {
		t.Fatalf("expected bool clause, got %#v", f)
	}
	should, _ := b["should"].([]any)
	if len(should) != 2 {
		t.Fatalf("expected should over two fields, got %#v", b)
	}
	if b["minimum_should_match"] != 1 {
		t.Errorf("minimum_should_match = %v", b["minimum_should_match"])
	}
}

func TestTimeFields(t *testing.T) {
	if got := TimeFields(&models.IndexPatternSetting{Pattern: "x", TimeField: "event.time"}); !reflect.DeepEqual(got, []string{"event.time"}) {
		t.Errorf("override: %v", got)
	}
	if got := TimeFields(&models.IndexPatternSetting{Pattern: "x"}); !reflect.DeepEqual(got, []string{"timestamp", "@timestamp"}) {
		t.Errorf("default: %v", got)
	}
}

func TestMergeFilter(t *testing.T) {
	recent := map[string]any{"range": map[string]any{"ts": map[string]any{"gte": "x"}}}
	term := map[string]any{"term": map[string]any{"level": "error"}}
	bob := map[string]any{"match": map[string]any{"user": "bob"}}
	alice := map[string]any{"match": map[string]any{"user": "alice"}}

	tests := []struct {
		name  string
		query any
		want  map[string]any
	}{
		{
			name:  "no query",
			query: nil,
			want:  map[string]any{"bool": map[string]any{"filter": []any{recent}}},
		},
		{
			name:  "bool with filter array",
			query: map[string]any{"bool": map[string]any{"filter": []any{term}}},
			want:  map[string]any{"bool": map[string]any{"filter": []any{term, recent}}},
		},
		{
			name:  "bool with scalar filter",
			query: map[string]any{"bool": map[string]any{"filter": term}},
			want:  map[string]any{"bool": map[string]any{"filter": []any{term, recent}}},
		},
		{
			name:  "bool without filter",
			query: map[string]any{"bool": map[string]any{"must": []any{term}}},
			want: map[string]any{"bool": map[string]any{
				"must":   []any{map[string]any{"bool": map[string]any{"must": []any{term}}}},
				"filter": []any{recent},
			}},
		},
		{
			name:  "should-only bool stays required",
			query: map[string]any{"bool": map[string]any{"should": []any{bob, alice}}},
			want: map[string]any{"bool": map[string]any{
				"must":   []any{map[string]any{"bool": map[string]any{"should": []any{bob, alice}}}},
				"filter": []any{recent},
			}},
		},
		{
			name:  "plain query",
			query: map[string]any{"match_all": map[string]any{}},
			want: map[string]any{"bool": map[string]any{
				"must":   []any{map[string]any{"match_all": map[string]any{}}},
				"filter": []any{recent},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeFilter(tt.query, recent)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MergeFilter = %#v\nwant %#v", got, tt.want)
			}
		})
	}
}

// Re-applying the filter to a query that already has a filter array keeps
// every original clause and adds exactly one.
func TestApplyRecentOnlyFilter_AppendsAndDoesNotMutate(t *testing.T) {
	r := NewRewriterWithClock(func() time.Time { return fixedNow })
	original := map[string]any{
		"size": 20,
		"query": map[string]any{"bool": map[string]any{"filter": []any{
			map[string]any{"term": map[string]any{"a": 1}},
			map[string]any{"term": map[string]any{"b": 2}},
		}}},
	}
	snapshot := Clone(original)

	out := r.ApplyRecentOnlyFilter(original, &models.IndexPatternSetting{Pattern: "logs-*", TimeField: "ts"})

	filters := out["query"].(map[string]any)["bool"].(map[string]any)["filter"].([]any)
	if len(filters) != 3 {
		t.Fatalf("expected 3 filters (2 original + recent), got %d", len(filters))
	}
	if !reflect.DeepEqual(original, snapshot) {
		t.Error("input body was mutated")
	}
	if out["size"] != 20 {
		t.Errorf("non-query keys must be preserved, got %v", out["size"])
	}
}

func TestRewrite_TimeRangeAndLimit(t *testing.T) {
	r := NewRewriterWithClock(func() time.Time { return fixedNow })
	start := fixedNow.Add(-time.Hour)
	end := fixedNow

	out := r.Rewrite(map[string]any{}, Options{
		LimitTo7Days: true,
		Start:        &start,
		End:          &end,
		Setting:      &models.IndexPatternSetting{Pattern: "logs-*", TimeField: "ts"},
	})

	filters := out["query"].(map[string]any)["bool"].(map[string]any)["filter"].([]any)
	if len(filters) != 2 {
		t.Fatalf("expected range + recent filters, got %#v", filters)
	}
	rng := filters[0].(map[string]any)["range"].(map[string]any)["ts"].(map[string]any)
	if rng["gte"] != "2026-03-15T11:00:00.000Z" || rng["lte"] != "2026-03-15T12:00:00.000Z" {
		t.Errorf("range bounds = %#v", rng)
	}
}

func TestRewrite_NoOptionsIsCopy(t *testing.T) {
	r := NewRewriter()
	in := map[string]any{"query": map[string]any{"match_all": map[string]any{}}}
	out := r.Rewrite(in, Options{})
	if !reflect.DeepEqual(in, out) {
		t.Errorf("expected identical copy, got %#v", out)
	}
	out["query"] = nil
	if in["query"] == nil {
		t.Error("output must not alias the input")
	}
}

func TestApplyFieldDefaults(t *testing.T) {
	setting := models.IndexPatternSetting{Pattern: "logs-*", SearchFields: []string{"message", "host"}, SearchMode: "and"}

	q := map[string]any{"bool": map[string]any{"must": []any{
		map[string]any{"query_string": map[string]any{"query": "timeout"}},
		map[string]any{"query_string": map[string]any{"query": "x", "default_field": "msg", "default_operator": "or"}},
	}}}

	ApplyFieldDefaults(q, setting)

	must := q["bool"].(map[string]any)["must"].([]any)
	first := must[0].(map[string]any)["query_string"].(map[string]any)
	if !reflect.DeepEqual(first["fields"], []any{"message", "host"}) {
		t.Errorf("fields = %#v", first["fields"])
	}
	if first["default_operator"] != "and" {
		t.Errorf("default_operator = %v", first["default_operator"])
	}

	second := must[1].(map[string]any)["query_string"].(map[string]any)
	if _, ok := second["fields"]; ok {
		t.Error("clause with default_field must not get fields")
	}
	if second["default_operator"] != "or" {
		t.Error("explicit default_operator must be kept")
	}
}

func TestQueryText(t *testing.T) {
	tests := []struct {
		body map[string]any
		want string
	}{
		{map[string]any{"query": map[string]any{"query_string": map[string]any{"query": "level:error"}}}, "level:error"},
		{map[string]any{"query": map[string]any{"match": map[string]any{"message": "timeout"}}}, "timeout"},
		{map[string]any{"query": map[string]any{"match": map[string]any{"message": map[string]any{"query": "disk"}}}}, "disk"},
		{map[string]any{}, "*"},
	}
	for _, tt := range tests {
		if got := QueryText(tt.body); got != tt.want {
			t.Errorf("QueryText(%v) = %q, want %q", tt.body, got, tt.want)
		}
	}
}
