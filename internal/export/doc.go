// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

/*
Package export streams large result sets out of the search engine as
gzip-compressed JSON lines or CSV.

An export walks through these states:

	initial-search -> streaming-batches -> draining-cursor -> completed
	                                                        \-> failed

The initial search opens a scroll cursor with a page of at most 1000
documents sorted newest first. Each page is masked, written, and dropped
before the next one is fetched, so memory holds a single page at a time.
Writes go straight through the gzip writer to the HTTP response, so a slow
client slows the scroll loop down with it.

Once the response has started, its status cannot change. Failures after
that point are written into the compressed body as a JSON object:

	{"error":"export failed","detail":"..."}

An export with no matching documents writes one placeholder row and
completes normally.
*/
package export
