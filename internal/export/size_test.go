// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package export

import (
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/loglens/internal/models"
	"github.com/tomtom215/loglens/internal/pii"
)

func TestResolveSize(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		max       int
		want      int
		wantErr   bool
	}{
		{"default to max", 0, 1000, 1000, false},
		{"negative means max", -5, 1000, 1000, false},
		{"within max", 500, 1000, 500, false},
		{"equal to max", 1000, 1000, 1000, false},
		{"over max", 1001, 1000, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveSize(tt.requested, tt.max)
			var sizeErr *SizeError
			if tt.wantErr != errors.As(err, &sizeErr) {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("size = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	for _, ok := range []string{"json", "csv"} {
		if _, err := ParseFormat(ok); err != nil {
			t.Errorf("ParseFormat(%s): %v", ok, err)
		}
	}
	if _, err := ParseFormat("xlsx"); err == nil {
		t.Error("xlsx should be rejected")
	}
	if FormatCSV.Extension() != "csv" || FormatJSON.Extension() != "jsonl" {
		t.Error("unexpected extensions")
	}
}

type fakeSearcher struct {
	body   map[string]any
	result map[string]any
	err    error
}

func (f *fakeSearcher) Search(_ context.Context, _ string, body map[string]any) (map[string]any, error) {
	f.body = body
	return f.result, f.err
}

func TestEstimateSize(t *testing.T) {
	srcA := map[string]any{"msg": "aaaa"}      // {"msg":"aaaa"} = 14 bytes
	srcB := map[string]any{"msg": "aaaaaaaaaa"} // {"msg":"aaaaaaaaaa"} = 20 bytes
	fs := &fakeSearcher{result: map[string]any{
		"hits": map[string]any{
			"total": map[string]any{"value": json.Number("5000")},
			"hits":  []any{map[string]any{"_source": srcA}, map[string]any{"_source": srcB}},
		},
	}}

	est, err := EstimateSize(context.Background(), fs, "logs-*", nil, 10, 1000, nil)
	if err != nil {
		t.Fatal(err)
	}
	if fs.body["size"] != 10 || fs.body["track_total_hits"] != true {
		t.Errorf("estimate body = %v", fs.body)
	}
	want := Estimate{TotalHits: 5000, SampleSize: 2, AvgBytes: 17, EstimatedBytes: 17000, MaxExportSize: 1000}
	if *est != want {
		t.Errorf("estimate = %+v, want %+v", *est, want)
	}
}

func TestEstimateSize_MaskedSample(t *testing.T) {
	m, _ := pii.Compile([]models.PiiRule{{Pattern: "secret", Action: models.PiiHide}})
	fs := &fakeSearcher{result: map[string]any{
		"hits": map[string]any{
			"total": json.Number("1"),
			"hits":  []any{map[string]any{"_source": map[string]any{"secret": "xxxxxxxxxxxxxxxxxxxx"}}},
		},
	}}

	est, err := EstimateSize(context.Background(), fs, "logs-*", nil, 0, 0, m)
	if err != nil {
		t.Fatal(err)
	}
	if est.AvgBytes != 2 { // {}
		t.Errorf("AvgBytes = %d, want 2 for a fully hidden document", est.AvgBytes)
	}
	if est.EstimatedBytes != 2 {
		t.Errorf("EstimatedBytes = %d", est.EstimatedBytes)
	}
}

func TestEstimateSize_NoHits(t *testing.T) {
	fs := &fakeSearcher{result: map[string]any{"hits": map[string]any{"total": map[string]any{"value": json.Number("0")}, "hits": []any{}}}}
	est, err := EstimateSize(context.Background(), fs, "logs-*", nil, 10, 100, nil)
	if err != nil {
		t.Fatal(err)
	}
	if est.TotalHits != 0 || est.SampleSize != 0 || est.EstimatedBytes != 0 {
		t.Errorf("estimate = %+v", est)
	}
}
