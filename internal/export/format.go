// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/goccy/go-json"
)

// Format is an export file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// emptyMessage is the placeholder written when nothing matched.
const emptyMessage = "No logs found"

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatCSV:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// Extension is the file extension used in the attachment name.
func (f Format) Extension() string {
	if f == FormatCSV {
		return "csv"
	}
	return "jsonl"
}

// rowWriter serializes hits in one format.
type rowWriter interface {
	WriteHits(hits []any) error
	WriteEmpty() error
	Flush() error
}

func newRowWriter(f Format, w io.Writer) rowWriter {
	if f == FormatCSV {
		return &csvWriter{w: csv.NewWriter(w)}
	}
	return &jsonLinesWriter{enc: json.NewEncoder(w)}
}

// jsonLinesWriter writes one {"_index","_id","_source"} object per line.
type jsonLinesWriter struct {
	enc *json.Encoder
}

type jsonLine struct {
	Index  any `json:"_index"`
	ID     any `json:"_id"`
	Source any `json:"_source"`
}

func (j *jsonLinesWriter) WriteHits(hits []any) error {
	for _, hit := range hits {
		h, _ := hit.(map[string]any)
		if err := j.enc.Encode(jsonLine{Index: h["_index"], ID: h["_id"], Source: h["_source"]}); err != nil {
			return err
		}
	}
	return nil
}

func (j *jsonLinesWriter) WriteEmpty() error {
	return j.enc.Encode(map[string]string{"message": emptyMessage})
}

func (j *jsonLinesWriter) Flush() error { return nil }

// csvWriter derives its columns from the first hit it sees. Fields that
// only appear in later hits are not added.
type csvWriter struct {
	w       *csv.Writer
	columns []string
}

func (c *csvWriter) WriteHits(hits []any) error {
	for _, hit := range hits {
		h, _ := hit.(map[string]any)
		row := make(map[string]any)
		flattenRow(h["_source"], "", row)

		if c.columns == nil {
			c.columns = make([]string, 0, len(row))
			for k := range row {
				c.columns = append(c.columns, k)
			}
			sort.Strings(c.columns)
			if err := c.w.Write(c.columns); err != nil {
				return err
			}
		}

		record := make([]string, len(c.columns))
		for i, col := range c.columns {
			record[i] = cellValue(row[col])
		}
		if err := c.w.Write(record); err != nil {
			return err
		}
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *csvWriter) WriteEmpty() error {
	if err := c.w.Write([]string{"message"}); err != nil {
		return err
	}
	if err := c.w.Write([]string{emptyMessage}); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *csvWriter) Flush() error {
	c.w.Flush()
	return c.w.Error()
}

// flattenRow maps dotted object paths to leaf values. Arrays are leaves.
func flattenRow(v any, prefix string, out map[string]any) {
	m, ok := v.(map[string]any)
	if !ok {
		if prefix != "" {
			out[prefix] = v
		}
		return
	}
	for k, child := range m {
		name := k
		if prefix != "" {
			name = prefix + "." + k
		}
		flattenRow(child, name, out)
	}
}

func cellValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	}
}
