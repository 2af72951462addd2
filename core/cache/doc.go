// Package cache provides the key/value, set, and sorted-set store
// backing the metadata cache and the per-label indices.
//
// # Staleness vs. retention
//
// Entries carry a CachedAt timestamp and are judged stale against the
// threshold of their TTL class (SHORT = 1h, MEDIUM = 24h, LONG = 7d).
// Staleness is advisory: a stale entry is preferentially refreshed but
// remains readable, because a stale value beats no value when the
// upstream provider is down. Physical eviction happens only at the far
// longer retention horizon, or via ClearAll during maintenance.
//
// # Backends
//
// Two implementations of Store exist: Memory (in-process, used by
// tests and as a degraded mode) and Redis (shared instance, the
// production backend). Both resolve same-key concurrent writes
// last-writer-wins; cached values are idempotent projections of
// upstream truth, so the race is harmless.
package cache
