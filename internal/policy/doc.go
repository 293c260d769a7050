// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

/*
Package policy owns the admin-configured policy snapshot and the decisions
derived from it.

# Snapshot

Store keeps the current *models.Policy behind an atomic pointer. Replace
validates a complete new policy, persists it with an atomic
write-then-rename, and only then publishes it, so concurrent readers always
see either the previous or the new snapshot in full. Snapshots are
read-only once published.

# Index access

IsAllowed resolves the caller's allow-list (personal patterns when present,
otherwise the union of their teams' patterns) and matches the requested
index pattern against it with anchored wildcard matching. Admins and
anonymous callers are always allowed, and an empty allow-list allows every
index.

# Effective features

EffectiveFeatures OR-combines the toggles of every team the caller belongs
to. The combination is applied uniformly, so a restrictive flag such as
LimitTo7Days is imposed when any one team sets it.
*/
package policy
