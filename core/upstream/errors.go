package upstream

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound reports that the provider has no entity for the given
// ID. A typed absent, distinct from a failure.
var ErrNotFound = errors.New("upstream: not found")

// RateLimitedError reports a 429 from the provider. Callers must wait
// RetryAfter before retrying; DefaultBackoff applies when the provider
// sends no Retry-After header.
type RateLimitedError struct {
	// RetryAfter is the provider-specified backoff duration.
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("upstream: rate limited, retry after %s", e.RetryAfter)
}

// DefaultBackoff is used when a rate-limit response carries no
// Retry-After header.
const DefaultBackoff = 3 * time.Second

// TransientError reports a provider-side failure (5xx, timeout,
// connection loss) worth treating as temporary.
type TransientError struct {
	// Status is the HTTP status, or 0 for transport-level failures.
	Status int
	// Err is the underlying cause.
	Err error
}

func (e *TransientError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("upstream: transient failure (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("upstream: transient failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}
