// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package models

import "time"

// Activity kinds recorded in the feed.
const (
	ActivitySearch = "search"
	ActivityExport = "export"
)

// ActivityMeta carries the request details attached to a usage event.
type ActivityMeta struct {
	User   string `json:"user,omitempty"`
	Index  string `json:"index,omitempty"`
	Size   int    `json:"size,omitempty"`
	Rows   int    `json:"rows,omitempty"`
	Cached bool   `json:"cached,omitempty"`
}

// ActivityEntry is one row of the capped, most-recent-first activity feed.
type ActivityEntry struct {
	ID     string    `json:"id"`
	Time   time.Time `json:"time"`
	Kind   string    `json:"kind"`
	Query  string    `json:"query,omitempty"`
	Format string    `json:"format,omitempty"`
	IP     string    `json:"ip,omitempty"`
	ActivityMeta
}

// DayBucket aggregates one calendar day (UTC).
type DayBucket struct {
	Searches        int64            `json:"searches"`
	Exports         int64            `json:"exports"`
	Queries         map[string]int64 `json:"queries"`
	IPs             map[string]int64 `json:"ips"`
	Users           map[string]int64 `json:"users"`
	ExportsByFormat map[string]int64 `json:"exportsByFormat"`
}

// HourBucket aggregates one clock hour (UTC) for alert evaluation.
type HourBucket struct {
	Searches int64            `json:"searches"`
	Exports  int64            `json:"exports"`
	Queries  map[string]int64 `json:"queries"`
}

// UsageSnapshot is the persisted form of the usage store.
type UsageSnapshot struct {
	Daily    map[string]*DayBucket  `json:"daily"`
	Hourly   map[string]*HourBucket `json:"hourly"`
	Activity []ActivityEntry        `json:"activity"`
}

// DailyUsage is one day in the admin usage report.
type DailyUsage struct {
	Date string `json:"date"`
	DayBucket
}
