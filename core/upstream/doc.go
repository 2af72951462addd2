// Package upstream is the client adapter for the external
// music-metadata provider.
//
// It exposes one fetch method per entity kind plus a paginated search,
// each returning a single typed projection. The provider's variable
// response envelopes and field spellings are normalized in exactly one
// place, at this boundary, so the "try several field names" probing
// never leaks into callers.
//
// Failure surface: 404 maps to ErrNotFound, 429 to RateLimitedError
// carrying the provider's Retry-After, and 5xx or transport errors to
// TransientError. The entity cache manager builds its fallback and
// backoff discipline on those three types.
package upstream
