// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

/*
Package search is the client for the OpenSearch-compatible engine behind the
proxy.

Every call carries a bounded timeout and goes through a circuit breaker.
Failures surface as *UpstreamError with the engine's status and a detail
string extracted from its error envelope. The client never retries: heavy
queries are not repeated behind the caller's back.

Responses are decoded with UseNumber so numeric values in documents pass
through unchanged.
*/
package search

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/loglens/internal/config"
	"github.com/tomtom215/loglens/internal/logging"
	"github.com/tomtom215/loglens/internal/metrics"
)

const breakerName = "search-engine"

// Client talks to the search engine over its REST API.
type Client struct {
	baseURL         string
	username        string
	password        string
	timeout         time.Duration
	scrollKeepAlive time.Duration
	httpClient      *http.Client
	cb              *gobreaker.CircuitBreaker[[]byte]
}

// NewClient creates a client from configuration.
func NewClient(cfg *config.SearchConfig) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed dev clusters
	}

	c := &Client{
		baseURL:         strings.TrimRight(cfg.URL, "/"),
		username:        cfg.Username,
		password:        cfg.Password,
		timeout:         cfg.Timeout,
		scrollKeepAlive: cfg.ScrollKeepAlive,
		httpClient:      &http.Client{Transport: transport},
	}
	if c.scrollKeepAlive <= 0 {
		c.scrollKeepAlive = time.Minute
	}

	minRequests := cfg.BreakerMinRequests
	if minRequests == 0 {
		minRequests = 10
	}
	ratio := cfg.BreakerFailureRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 0.6
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	c.cb = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= ratio
			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},
		// Client mistakes (bad query DSL, missing index) say nothing about
		// engine health.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			if errors.Is(err, context.Canceled) {
				return true
			}
			if ue, ok := AsUpstream(err); ok {
				return ue.Status >= 400 && ue.Status < 500
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)
			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return c
}

// BreakerState returns the circuit breaker state as a string.
func (c *Client) BreakerState() string {
	return stateToString(c.cb.State())
}

// ScrollKeepAlive is the cursor lifetime requested from the engine.
func (c *Client) ScrollKeepAlive() time.Duration {
	return c.scrollKeepAlive
}

// Search runs a query against an index pattern and returns the decoded
// response.
func (c *Client) Search(ctx context.Context, index string, body map[string]any) (map[string]any, error) {
	data, err := c.do(ctx, "search", http.MethodPost, "/"+escapeIndex(index)+"/_search", nil, body)
	if err != nil {
		return nil, err
	}
	return decodeObject(data)
}

// Ping checks that the engine answers its root endpoint.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, "ping", http.MethodGet, "/", nil, nil)
	return err
}

// do runs one request through the breaker and returns the raw body of a
// 2xx response.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body any) ([]byte, error) {
	start := time.Now()
	status := 0

	data, err := c.cb.Execute(func() ([]byte, error) {
		var s int
		b, e := c.roundTrip(ctx, method, path, query, body, &s)
		status = s
		return b, e
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
			logging.Warn().Err(err).Str("operation", op).Msg("[CIRCUIT BREAKER] Request rejected")
			err = &UpstreamError{Status: http.StatusServiceUnavailable, Detail: "search engine unavailable", Err: err}
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
		}
		metrics.RecordUpstream(op, time.Since(start), status, err)
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
	metrics.RecordUpstream(op, time.Since(start), status, nil)
	return data, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body any, status *int) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer resp.Body.Close()
	*status = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, &UpstreamError{Status: resp.StatusCode, Detail: extractDetail(resp.StatusCode, errBody)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	return data, nil
}

// transportError maps a failed round trip to an UpstreamError. A caller
// that went away gets its own context error back unchanged.
func transportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &UpstreamError{Status: http.StatusGatewayTimeout, Detail: "search engine timed out", Err: err}
	}
	return &UpstreamError{Status: http.StatusBadGateway, Detail: err.Error(), Err: err}
}

func decodeObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, &UpstreamError{Status: http.StatusBadGateway, Detail: "invalid response from search engine", Err: err}
	}
	return out, nil
}

// escapeIndex escapes an index pattern for use as a path segment. Commas
// and wildcards stay literal.
func escapeIndex(index string) string {
	return indexUnescaper.Replace(url.PathEscape(index))
}

var indexUnescaper = strings.NewReplacer("%2A", "*", "%2C", ",")

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
