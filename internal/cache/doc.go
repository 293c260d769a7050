// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

/*
Package cache provides the response cache for proxied searches.

Entries expire after a fixed TTL, checked on every read and swept in the
background. The cache is bounded: when an insert exceeds the configured
maximum, the oldest inserted entry still present is evicted. Reads do not
refresh position, so this is insertion order and not LRU.

A TTL of zero disables the cache. Get always misses and Set does nothing.

# Keys

Cached responses depend on who asked and under which policy. Key combines
every input that changes the output:

	key := cache.Key(cache.KeyParts{
	    Op:                "search",
	    Scope:             caller.Scope(),
	    Index:             indexPattern,
	    Unmasked:          features.PiiUnmasked,
	    PolicyFingerprint: cache.Fingerprint(snapshot.PiiFieldRules),
	    Body:              rewrittenBody,
	})

# Observability

Hits, misses, evictions (by reason) and size are exported as Prometheus
metrics with cache_type="response", and also kept locally in Stats.
*/
package cache
