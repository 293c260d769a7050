// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package query

import "github.com/tomtom215/loglens/internal/models"

// MergeFilter adds filter to query without dropping any existing clause:
//
//   - no query: {bool: {filter: [filter]}}
//   - bool with an array filter: the filter is appended
//   - bool with a single filter object: converted to an array, then appended
//   - any other query, including a bool without filter:
//     {bool: {must: [query], filter: [filter]}}
//
// A bool without filter is wrapped rather than extended: adding a filter
// next to should-only clauses would make them optional.
//
// The query value is expected to be owned by the caller (see Clone).
func MergeFilter(query any, filter map[string]any) map[string]any {
	q, ok := query.(map[string]any)
	if !ok || len(q) == 0 {
		return map[string]any{"bool": map[string]any{"filter": []any{filter}}}
	}

	if b, ok := q["bool"].(map[string]any); ok && len(q) == 1 && b["filter"] != nil {
		if existing, ok := b["filter"].([]any); ok {
			b["filter"] = append(existing, filter)
		} else {
			b["filter"] = []any{b["filter"], filter}
		}
		return q
	}

	return map[string]any{
		"bool": map[string]any{
			"must":   []any{q},
			"filter": []any{filter},
		},
	}
}

// ApplyFieldDefaults fills query_string and simple_query_string clauses that
// name neither fields nor default_field with the pattern's search fields,
// and sets default_operator from the search mode when absent.
func ApplyFieldDefaults(query any, setting models.IndexPatternSetting) any {
	if len(setting.SearchFields) == 0 && setting.SearchMode == "" {
		return query
	}
	walk(query, func(node map[string]any) {
		for _, key := range []string{"query_string", "simple_query_string"} {
			qs, ok := node[key].(map[string]any)
			if !ok {
				continue
			}
			_, hasFields := qs["fields"]
			_, hasDefault := qs["default_field"]
			if !hasFields && !hasDefault && len(setting.SearchFields) > 0 {
				fields := make([]any, len(setting.SearchFields))
				for i, f := range setting.SearchFields {
					fields[i] = f
				}
				qs["fields"] = fields
			}
			if _, ok := qs["default_operator"]; !ok && setting.SearchMode != "" {
				qs["default_operator"] = setting.SearchMode
			}
		}
	})
	return query
}

// walk visits every object in a decoded JSON tree.
func walk(v any, fn func(map[string]any)) {
	switch t := v.(type) {
	case map[string]any:
		fn(t)
		for _, child := range t {
			walk(child, fn)
		}
	case []any:
		for _, child := range t {
			walk(child, fn)
		}
	}
}

// Clone deep-copies a decoded JSON object.
func Clone(body map[string]any) map[string]any {
	if body == nil {
		return nil
	}
	return cloneValue(body).(map[string]any)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = cloneValue(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = cloneValue(child)
		}
		return out
	default:
		return v
	}
}

// QueryText extracts a human-readable query string for usage metrics and
// alert matching: the first query_string/simple_query_string query found,
// else the first match/match_phrase value, else "*".
func QueryText(body map[string]any) string {
	var text string
	walk(body["query"], func(node map[string]any) {
		if text != "" {
			return
		}
		for _, key := range []string{"query_string", "simple_query_string"} {
			if qs, ok := node[key].(map[string]any); ok {
				if s, ok := qs["query"].(string); ok && s != "" {
					text = s
					return
				}
			}
		}
		for _, key := range []string{"match", "match_phrase"} {
			m, ok := node[key].(map[string]any)
			if !ok {
				continue
			}
			for _, fv := range m {
				switch val := fv.(type) {
				case string:
					text = val
				case map[string]any:
					if s, ok := val["query"].(string); ok {
						text = s
					}
				}
				if text != "" {
					return
				}
			}
		}
	})
	if text == "" {
		return "*"
	}
	return text
}
