// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package search

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// ScrollPage is one batch of a scroll cursor.
type ScrollPage struct {
	ScrollID string
	Hits     []any
	Total    int64
}

// OpenScroll runs the initial search of a scroll export.
func (c *Client) OpenScroll(ctx context.Context, index string, body map[string]any) (*ScrollPage, error) {
	query := url.Values{"scroll": {keepAlive(c.scrollKeepAlive)}}
	data, err := c.do(ctx, "search", http.MethodPost, "/"+escapeIndex(index)+"/_search", query, body)
	if err != nil {
		return nil, err
	}
	return decodePage(data)
}

// NextScroll fetches the batch following scrollID.
func (c *Client) NextScroll(ctx context.Context, scrollID string) (*ScrollPage, error) {
	body := map[string]any{
		"scroll":    keepAlive(c.scrollKeepAlive),
		"scroll_id": scrollID,
	}
	data, err := c.do(ctx, "scroll", http.MethodPost, "/_search/scroll", nil, body)
	if err != nil {
		return nil, err
	}
	return decodePage(data)
}

// ClearScroll releases a server-side cursor.
func (c *Client) ClearScroll(ctx context.Context, scrollID string) error {
	if scrollID == "" {
		return nil
	}
	body := map[string]any{"scroll_id": []string{scrollID}}
	_, err := c.do(ctx, "clear_scroll", http.MethodDelete, "/_search/scroll", nil, body)
	return err
}

func decodePage(data []byte) (*ScrollPage, error) {
	result, err := decodeObject(data)
	if err != nil {
		return nil, err
	}
	page := &ScrollPage{
		Hits:  Hits(result),
		Total: TotalHits(result),
	}
	page.ScrollID, _ = result["_scroll_id"].(string)
	return page, nil
}

// keepAlive formats a duration in the engine's time unit syntax.
func keepAlive(d time.Duration) string {
	if d%time.Minute == 0 {
		return strconv.FormatInt(int64(d/time.Minute), 10) + "m"
	}
	return strconv.FormatInt(int64(d/time.Second), 10) + "s"
}

// Hits returns hits.hits of a search response, or nil.
func Hits(result map[string]any) []any {
	outer, ok := result["hits"].(map[string]any)
	if !ok {
		return nil
	}
	list, _ := outer["hits"].([]any)
	return list
}

// TotalHits reads hits.total, which engines report either as a number or
// as {"value": n, "relation": "eq"}.
func TotalHits(result map[string]any) int64 {
	outer, ok := result["hits"].(map[string]any)
	if !ok {
		return 0
	}
	switch t := outer["total"].(type) {
	case map[string]any:
		return toInt64(t["value"])
	default:
		return toInt64(t)
	}
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, _ := n.Float64()
			return int64(f)
		}
		return i
	case float64:
		return int64(n)
	case int:
		return int64(n)
	case int64:
		return n
	default:
		return 0
	}
}
