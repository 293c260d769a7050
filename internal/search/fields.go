// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package search

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/tomtom215/loglens/internal/logging"
)

// Field describes one searchable field of an index pattern.
type Field struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Searchable   bool   `json:"searchable"`
	Aggregatable bool   `json:"aggregatable"`
}

// fieldSampleSize is the number of documents read when field capabilities
// are unavailable.
const fieldSampleSize = 20

// FieldCaps asks the engine for the mapped fields of index.
func (c *Client) FieldCaps(ctx context.Context, index string) ([]Field, error) {
	query := url.Values{"fields": {"*"}}
	data, err := c.do(ctx, "field_caps", http.MethodGet, "/"+escapeIndex(index)+"/_field_caps", query, nil)
	if err != nil {
		return nil, err
	}
	result, err := decodeObject(data)
	if err != nil {
		return nil, err
	}

	fieldsObj, _ := result["fields"].(map[string]any)
	fields := make([]Field, 0, len(fieldsObj))
	for name, raw := range fieldsObj {
		if strings.HasPrefix(name, "_") {
			continue
		}
		byType, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		f := Field{Name: name}
		types := make([]string, 0, len(byType))
		for typ, capsRaw := range byType {
			if typ == "object" || typ == "nested" {
				continue
			}
			types = append(types, typ)
			caps, _ := capsRaw.(map[string]any)
			if s, _ := caps["searchable"].(bool); s {
				f.Searchable = true
			}
			if a, _ := caps["aggregatable"].(bool); a {
				f.Aggregatable = true
			}
		}
		if len(types) == 0 {
			continue
		}
		sort.Strings(types)
		f.Type = strings.Join(types, ",")
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
	return fields, nil
}

// DiscoverFields returns the fields of index. Field capabilities are tried
// first; if that call fails, a small sample of documents is read and the
// flattened _source key names are reported instead.
func (c *Client) DiscoverFields(ctx context.Context, index string) ([]Field, error) {
	fields, err := c.FieldCaps(ctx, index)
	if err == nil {
		return fields, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	logging.Ctx(ctx).Debug().Err(err).Str("index", index).Msg("field caps failed, sampling documents")

	result, err := c.Search(ctx, index, map[string]any{
		"size":  fieldSampleSize,
		"query": map[string]any{"match_all": map[string]any{}},
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, hit := range Hits(result) {
		h, ok := hit.(map[string]any)
		if !ok {
			continue
		}
		FlattenKeys(h["_source"], "", seen)
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Field, len(names))
	for i, name := range names {
		out[i] = Field{Name: name, Type: "unknown", Searchable: true}
	}
	return out, nil
}

// FlattenKeys collects the dotted leaf paths of a decoded document into
// seen. Arrays contribute the paths of their object elements without an
// index segment.
func FlattenKeys(v any, prefix string, seen map[string]struct{}) {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			name := k
			if prefix != "" {
				name = prefix + "." + k
			}
			FlattenKeys(child, name, seen)
		}
	case []any:
		objects := false
		for _, child := range t {
			if _, ok := child.(map[string]any); ok {
				objects = true
				FlattenKeys(child, prefix, seen)
			}
		}
		if !objects && prefix != "" {
			seen[prefix] = struct{}{}
		}
	default:
		if prefix != "" {
			seen[prefix] = struct{}{}
		}
	}
}
