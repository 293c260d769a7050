// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package models

import "time"

// ErrorEntry is a route-boundary failure kept for admin review.
type ErrorEntry struct {
	ID        string    `json:"id"`
	Time      time.Time `json:"time"`
	Route     string    `json:"route"`
	Status    int       `json:"status"`
	Message   string    `json:"message"`
	Detail    string    `json:"detail,omitempty"`
	User      string    `json:"user,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
}
