// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package export

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/tomtom215/loglens/internal/pii"
	"github.com/tomtom215/loglens/internal/search"
)

// DefaultSampleSize is the number of hits sampled by an estimate.
const DefaultSampleSize = 10

// Searcher runs a single search.
type Searcher interface {
	Search(ctx context.Context, index string, body map[string]any) (map[string]any, error)
}

// Estimate predicts the size of an export.
type Estimate struct {
	TotalHits      int64 `json:"totalHits"`
	SampleSize     int   `json:"sampleSize"`
	AvgBytes       int64 `json:"avgBytes"`
	EstimatedBytes int64 `json:"estimatedBytes"`
	MaxExportSize  int   `json:"maxExportSize"`
}

// EstimateSize samples the first hits of query and extrapolates the
// uncompressed size of exporting every match, capped at maxExportSize rows.
func EstimateSize(ctx context.Context, client Searcher, index string, query map[string]any, sampleSize, maxExportSize int, masker *pii.Masker) (*Estimate, error) {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	if query == nil {
		query = map[string]any{"match_all": map[string]any{}}
	}

	result, err := client.Search(ctx, index, map[string]any{
		"query":            query,
		"size":             sampleSize,
		"track_total_hits": true,
		"sort":             SortNewestFirst(),
	})
	if err != nil {
		return nil, err
	}

	hits := search.Hits(result)
	est := &Estimate{
		TotalHits:     search.TotalHits(result),
		SampleSize:    len(hits),
		MaxExportSize: maxExportSize,
	}
	if len(hits) == 0 {
		return est, nil
	}

	var total int64
	for _, hit := range hits {
		if masker.Enabled() {
			hit = masker.MaskHit(hit)
		}
		h, _ := hit.(map[string]any)
		data, err := json.Marshal(h["_source"])
		if err != nil {
			continue
		}
		total += int64(len(data))
	}
	est.AvgBytes = total / int64(len(hits))

	rows := est.TotalHits
	if maxExportSize > 0 && rows > int64(maxExportSize) {
		rows = int64(maxExportSize)
	}
	est.EstimatedBytes = est.AvgBytes * rows
	return est, nil
}
