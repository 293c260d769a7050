// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

// Package query shapes caller-supplied search bodies before they reach the
// search engine.
//
// The rewriter adds the mandatory recent-window filter for limited callers,
// explicit time-range filters and query_string field defaults. It never
// mutates its input: Rewrite deep-copies the body first and returns the copy.
package query

import (
	"time"

	"github.com/tomtom215/loglens/internal/models"
)

// Default time fields checked when an index pattern has no override.
var defaultTimeFields = []string{"timestamp", "@timestamp"}

const (
	// RecentWindow is the look-back allowed to callers limited to recent data.
	RecentWindow = 7 * 24 * time.Hour

	// RecentGrace widens the window so requests issued right at the boundary
	// do not flap between results.
	RecentGrace = 5 * time.Minute

	// isoLayout is a strict ISO-8601 UTC timestamp with milliseconds.
	isoLayout = "2006-01-02T15:04:05.000Z"
)

// Options control a single rewrite.
type Options struct {
	// LimitTo7Days adds the recent-only filter.
	LimitTo7Days bool

	// Start and End bound an explicit time range; either may be nil.
	Start *time.Time
	End   *time.Time

	// Setting is the exact-match index pattern setting, if any.
	Setting *models.IndexPatternSetting
}

// Rewriter applies policy transformations to search bodies.
type Rewriter struct {
	now func() time.Time
}

// NewRewriter creates a rewriter using the wall clock.
func NewRewriter() *Rewriter {
	return &Rewriter{now: time.Now}
}

// NewRewriterWithClock creates a rewriter with an injected clock.
func NewRewriterWithClock(now func() time.Time) *Rewriter {
	return &Rewriter{now: now}
}

// TimeFields returns the time field(s) for an index pattern: the configured
// override for an exact pattern match, otherwise timestamp and @timestamp.
func TimeFields(setting *models.IndexPatternSetting) []string {
	if setting != nil && setting.TimeField != "" {
		return []string{setting.TimeField}
	}
	return defaultTimeFields
}

// Rewrite returns a new body with every applicable transformation applied.
func (r *Rewriter) Rewrite(body map[string]any, opts Options) map[string]any {
	out := Clone(body)
	if out == nil {
		out = map[string]any{}
	}

	fields := TimeFields(opts.Setting)

	if opts.Setting != nil {
		if q, ok := out["query"]; ok {
			out["query"] = ApplyFieldDefaults(q, *opts.Setting)
		}
	}

	if opts.Start != nil || opts.End != nil {
		out["query"] = MergeFilter(out["query"], BuildTimeRangeFilter(fields, opts.Start, opts.End))
	}

	if opts.LimitTo7Days {
		out["query"] = MergeFilter(out["query"], RecentOnlyFilter(fields, r.now()))
	}

	return out
}

// ApplyRecentOnlyFilter returns a copy of body whose query carries the
// recent-only filter.
func (r *Rewriter) ApplyRecentOnlyFilter(body map[string]any, setting *models.IndexPatternSetting) map[string]any {
	return r.Rewrite(body, Options{LimitTo7Days: true, Setting: setting})
}

// RecentOnlyFilter builds the lower-bounded range filter for limited callers.
// The bound is now minus RecentWindow minus RecentGrace; there is no upper bound.
func RecentOnlyFilter(fields []string, now time.Time) map[string]any {
	lower := now.Add(-RecentWindow - RecentGrace).UTC().Format(isoLayout)
	return anyField(fields, func(field string) map[string]any {
		return map[string]any{"range": map[string]any{field: map[string]any{"gte": lower}}}
	})
}

// BuildTimeRangeFilter builds a range filter between start and end
// (inclusive); nil bounds are omitted.
func BuildTimeRangeFilter(fields []string, start, end *time.Time) map[string]any {
	bounds := map[string]any{}
	if start != nil {
		bounds["gte"] = start.UTC().Format(isoLayout)
	}
	if end != nil {
		bounds["lte"] = end.UTC().Format(isoLayout)
	}
	return anyField(fields, func(field string) map[string]any {
		b := make(map[string]any, len(bounds))
		for k, v := range bounds {
			b[k] = v
		}
		return map[string]any{"range": map[string]any{field: b}}
	})
}

// anyField returns the single clause for one field or a should-OR across
// several fields, so documents indexed under either name match.
func anyField(fields []string, clause func(string) map[string]any) map[string]any {
	if len(fields) == 1 {
		return clause(fields[0])
	}
	should := make([]any, 0, len(fields))
	for _, f := range fields {
		should = append(should, clause(f))
	}
	return map[string]any{
		"bool": map[string]any{
			"should":               should,
			"minimum_should_match": 1,
		},
	}
}
