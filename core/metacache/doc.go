// Package metacache is the entity cache manager: per-entity-type
// get-or-fetch logic built on the cache store and the upstream client.
//
// The central resilience property is the three-tier lookup: a fresh
// cache entry, else a live fetch written through to the cache, else
// the stale cached copy tagged stale-fallback. A temporary provider
// outage therefore degrades freshness, never availability, for any
// entity that was cached at least once.
//
// Rate-limit discipline: when the provider reports a rate limit, the
// manager waits the provider-specified backoff (or a fixed default)
// and retries exactly once. Concurrent misses for the same key
// collapse into one upstream call via singleflight.
package metacache
