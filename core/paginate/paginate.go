// Package paginate drains offset/limit-paginated listing sources into
// one deduplicated collection. It bounds the worst case with a hard
// page cap and keeps partial results usable when a mid-run fetch fails,
// as long as callers check Complete before trusting totals.
package paginate

import "context"

const (
	// DefaultPageSize keeps individual requests small enough to stay
	// inside upstream timeouts.
	DefaultPageSize = 50
	// DefaultMaxPages bounds a run against a source that never
	// terminates its pagination.
	DefaultMaxPages = 20
)

// PageFunc fetches one page at the given offset. Implementations are
// expected to return fewer than limit items, or none, at the natural
// end of the data.
type PageFunc[T any] func(ctx context.Context, offset, limit int) ([]T, error)

// KeyFunc extracts the identity used for deduplication.
type KeyFunc[T any] func(item T) string

// Options tunes an accumulation run. Zero values fall back to the
// package defaults.
type Options struct {
	// PageSize is the limit passed to each page fetch.
	PageSize int
	// MaxPages caps the number of fetches in one run.
	MaxPages int
}

func (o Options) pageSize() int {
	if o.PageSize > 0 {
		return o.PageSize
	}
	return DefaultPageSize
}

func (o Options) maxPages() int {
	if o.MaxPages > 0 {
		return o.MaxPages
	}
	return DefaultMaxPages
}

// Result is the outcome of one accumulation run.
type Result[T any] struct {
	// Items is the deduplicated collection, in first-seen order.
	Items []T

	// Pages is how many page fetches were performed.
	Pages int

	// Complete reports whether the source was fully drained. False
	// when the run hit MaxPages or aborted on a fetch error; the
	// items are still usable but totals must not be trusted.
	Complete bool
}

// Accumulate requests pages sequentially until the source is drained
// or a stop rule fires. Sequential by design: each request depends on
// the previous page being non-terminal, and one in-flight request at a
// time is what a rate-limited upstream can bear.
//
// Stop rules: a short page or an empty page end the data naturally;
// MaxPages ends the run with Complete=false. A page-fetch error stops
// accumulation and returns the partial result alongside the error.
func Accumulate[T any](ctx context.Context, fetch PageFunc[T], key KeyFunc[T], opts Options) (Result[T], error) {
	pageSize := opts.pageSize()
	maxPages := opts.maxPages()

	result := Result[T]{Items: []T{}}
	seen := make(map[string]struct{})

	for page := 0; page < maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		items, err := fetch(ctx, page*pageSize, pageSize)
		if err != nil {
			return result, err
		}
		result.Pages++

		for _, item := range items {
			k := key(item)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			result.Items = append(result.Items, item)
		}

		if len(items) < pageSize {
			result.Complete = true
			return result, nil
		}
	}

	// MaxPages reached with the last page still full: the source may
	// hold more data.
	return result, nil
}
