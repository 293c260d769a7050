// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

/*
Package models defines the data structures shared across Loglens.

Model Categories:

 1. Policy: the admin-configured snapshot evaluated on every request
    (index allow-lists, PII rules, per-team feature toggles, export ceiling).
 2. Identity: the Caller derived from a bearer token, and roles.
 3. Alerts: threshold rules and their last-fired state.
 4. Usage: per-day and per-hour counters plus the capped activity feed.
 5. Error log: entries recorded at the route boundary for admin review.

All JSON field names match the persisted files so the structures can be
loaded and saved without translation.
*/
package models
