// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"

	"github.com/tomtom215/loglens/internal/pii"
	"github.com/tomtom215/loglens/internal/search"
)

// State is a step of the export state machine. Size estimation is served
// by EstimateSize on its own endpoint and is not a step of a run.
type State string

const (
	StateInitialSearch State = "initial-search"
	StateStreaming     State = "streaming-batches"
	StateDraining      State = "draining-cursor"
	StateCompleted     State = "completed"
	StateFailed        State = "failed"
)

// MaxPageSize caps the documents fetched per scroll page.
const MaxPageSize = 1000

// clearScrollTimeout bounds the best-effort cursor cleanup.
const clearScrollTimeout = 5 * time.Second

// Scroller is the part of the search client an export needs.
type Scroller interface {
	OpenScroll(ctx context.Context, index string, body map[string]any) (*search.ScrollPage, error)
	NextScroll(ctx context.Context, scrollID string) (*search.ScrollPage, error)
	ClearScroll(ctx context.Context, scrollID string) error
}

// Request describes one export. Query is the already rewritten query
// clause; Size is the validated row limit.
type Request struct {
	Index  string
	Query  map[string]any
	Size   int
	Format Format
	Masker *pii.Masker
}

// Result is the final state of an export.
type Result struct {
	State State
	Rows  int
	Err   error
}

// Streamer runs exports against a Scroller.
type Streamer struct {
	client   Scroller
	pageSize int
	logger   zerolog.Logger

	// onState is called on every transition. Used by tests.
	onState func(State)
}

// NewStreamer creates a streamer. pageSize is clamped to MaxPageSize.
func NewStreamer(client Scroller, pageSize int, logger zerolog.Logger) *Streamer {
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return &Streamer{
		client:   client,
		pageSize: pageSize,
		logger:   logger.With().Str("component", "export").Logger(),
	}
}

// errorPayload is written into the body when an export fails mid-stream.
type errorPayload struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// Stream runs req and writes the gzip-compressed file to w. The caller
// must have sent response headers already; Stream never returns an error
// separately from the Result.
func (s *Streamer) Stream(ctx context.Context, w io.Writer, req Request) Result {
	gz := gzip.NewWriter(w)
	rows := newRowWriter(req.Format, gz)

	res := s.run(ctx, rows, req)

	if res.State == StateFailed {
		s.writeError(gz, rows, res.Err)
	}
	if err := gz.Close(); err != nil && res.State == StateCompleted {
		res = Result{State: StateFailed, Rows: res.Rows, Err: fmt.Errorf("finish gzip stream: %w", err)}
	}
	return res
}

func (s *Streamer) run(ctx context.Context, rows rowWriter, req Request) Result {
	written := 0
	fail := func(err error) Result {
		s.transition(StateFailed)
		return Result{State: StateFailed, Rows: written, Err: err}
	}

	s.transition(StateInitialSearch)
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	page, err := s.client.OpenScroll(ctx, req.Index, s.scrollBody(req))
	if err != nil {
		return fail(err)
	}

	scrollID := page.ScrollID
	defer func() {
		s.clearScroll(ctx, scrollID)
	}()

	if len(page.Hits) == 0 {
		if err := rows.WriteEmpty(); err != nil {
			return fail(err)
		}
		s.transition(StateCompleted)
		return Result{State: StateCompleted}
	}

	s.transition(StateStreaming)
	n, err := s.writeBatch(rows, page.Hits, req, written)
	written += n
	if err != nil {
		return fail(err)
	}

	s.transition(StateDraining)
	for written < req.Size {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		if scrollID == "" {
			break
		}
		page, err = s.client.NextScroll(ctx, scrollID)
		if err != nil {
			return fail(err)
		}
		if page.ScrollID != "" {
			scrollID = page.ScrollID
		}
		if len(page.Hits) == 0 {
			break
		}
		n, err := s.writeBatch(rows, page.Hits, req, written)
		written += n
		if err != nil {
			return fail(err)
		}
	}

	if err := rows.Flush(); err != nil {
		return fail(err)
	}
	s.transition(StateCompleted)
	return Result{State: StateCompleted, Rows: written}
}

// writeBatch masks and writes hits, truncated to the remaining quota.
func (s *Streamer) writeBatch(rows rowWriter, hits []any, req Request, written int) (int, error) {
	if remaining := req.Size - written; len(hits) > remaining {
		hits = hits[:remaining]
	}
	if req.Masker.Enabled() {
		masked := make([]any, len(hits))
		for i, h := range hits {
			masked[i] = req.Masker.MaskHit(h)
		}
		hits = masked
	}
	if err := rows.WriteHits(hits); err != nil {
		return 0, err
	}
	return len(hits), nil
}

func (s *Streamer) scrollBody(req Request) map[string]any {
	query := req.Query
	if query == nil {
		query = map[string]any{"match_all": map[string]any{}}
	}
	pageSize := s.pageSize
	if req.Size > 0 && req.Size < pageSize {
		pageSize = req.Size
	}
	return map[string]any{
		"query": query,
		"size":  pageSize,
		"sort":  SortNewestFirst(),
	}
}

// SortNewestFirst sorts by timestamp, then @timestamp, both descending.
// unmapped_type keeps indices that lack one of the fields from failing.
func SortNewestFirst() []any {
	return []any{
		map[string]any{"timestamp": map[string]any{"order": "desc", "unmapped_type": "date"}},
		map[string]any{"@timestamp": map[string]any{"order": "desc", "unmapped_type": "date"}},
	}
}

// clearScroll releases the cursor. Failure is logged and ignored; cursors
// expire on their own.
func (s *Streamer) clearScroll(ctx context.Context, scrollID string) {
	if scrollID == "" {
		return
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), clearScrollTimeout)
	defer cancel()
	if err := s.client.ClearScroll(cctx, scrollID); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to clear scroll cursor")
	}
}

func (s *Streamer) writeError(w io.Writer, rows rowWriter, cause error) {
	_ = rows.Flush()

	payload := errorPayload{Error: "export failed", Detail: ErrorDetail(cause)}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		s.logger.Debug().Err(err).Msg("Could not write export error payload")
	}
}

// ErrorDetail is the user-facing description of an export failure.
func ErrorDetail(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "export cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "export timed out"
	}
	if ue, ok := search.AsUpstream(err); ok {
		return ue.Detail
	}
	return "internal error"
}

func (s *Streamer) transition(st State) {
	if s.onState != nil {
		s.onState(st)
	}
}
