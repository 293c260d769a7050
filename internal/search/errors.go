// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package search

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

// UpstreamError is returned for any failed call to the search engine.
// Status is the engine's HTTP status, or a gateway status chosen by the
// client when the engine could not be reached. Detail is safe to show to
// end users.
type UpstreamError struct {
	Status int
	Detail string
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("search engine error (status %d): %s", e.Status, e.Detail)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status to report to the client. Success codes
// can never escape as failures.
func (e *UpstreamError) StatusCode() int {
	if e.Status < 400 {
		return http.StatusBadGateway
	}
	return e.Status
}

// AsUpstream extracts an *UpstreamError from err.
func AsUpstream(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

// maxErrorBodySize limits how much of an error response is read
const maxErrorBodySize = 64 * 1024

// extractDetail pulls a human-readable reason out of an engine error
// envelope. Engines return one of:
//
//	{"error": {"root_cause": [{"reason": "..."}], "reason": "..."}}
//	{"error": "..."}
//	{"message": "..."}
//
// Anything else falls back to the trimmed body, then to the status text.
func extractDetail(status int, body []byte) string {
	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if len(envelope.Error) > 0 {
			var structured struct {
				Reason    string `json:"reason"`
				Type      string `json:"type"`
				RootCause []struct {
					Reason string `json:"reason"`
				} `json:"root_cause"`
			}
			if json.Unmarshal(envelope.Error, &structured) == nil {
				switch {
				case structured.Reason != "":
					return structured.Reason
				case len(structured.RootCause) > 0 && structured.RootCause[0].Reason != "":
					return structured.RootCause[0].Reason
				case structured.Type != "":
					return structured.Type
				}
			}
			var plain string
			if json.Unmarshal(envelope.Error, &plain) == nil && plain != "" {
				return plain
			}
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 512 && !strings.HasPrefix(text, "<") {
		return text
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("status %d", status)
}
