package metacache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"catalog-manager/core/cache"
	"catalog-manager/core/upstream"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Source tags where a lookup's value came from.
type Source string

const (
	// SourceCache is a fresh cache hit.
	SourceCache Source = "cache"
	// SourceUpstream is a live fetch, written through to the cache.
	SourceUpstream Source = "upstream"
	// SourceStaleFallback is a stale cache entry served because the
	// live fetch failed. Degraded freshness, preserved availability.
	SourceStaleFallback Source = "stale-fallback"
)

// ErrNotAvailable reports that the fetch failed and no cached copy,
// stale or otherwise, exists.
var ErrNotAvailable = errors.New("metacache: entity not available")

// FetchFunc retrieves one entity from the upstream provider.
type FetchFunc func(ctx context.Context, id string) (any, error)

// Lookup is a cache-manager result: the serialized projection plus
// how it was obtained. Route and CLI layers use Source to tell "no
// data" apart from "service degraded".
type Lookup struct {
	Value    json.RawMessage `json:"value"`
	Source   Source          `json:"source"`
	CachedAt time.Time       `json:"cached_at,omitempty"`
}

// Outcome is the per-ID result of a batch lookup.
type Outcome struct {
	Lookup *Lookup
	Err    error
}

// Manager implements get-or-fetch-with-cache for every entity type.
// The contract is three-tiered: fresh cache, then live fetch with
// write-through, then stale fallback; a hard failure needs the fetch
// AND the fallback to come up empty.
type Manager struct {
	store cache.Store
	log   *zap.Logger
	sf    singleflight.Group

	// sleep is swapped out by tests to skip real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewManager creates a Manager over the given cache store.
func NewManager(store cache.Store, log *zap.Logger) *Manager {
	return &Manager{
		store: store,
		log:   log,
		sleep: sleepCtx,
	}
}

// Store exposes the underlying cache store for direct write-through
// by warmup and ingestion flows.
func (m *Manager) Store() cache.Store {
	return m.store
}

// Key builds the cache key for an entity. Keys for distinct entities
// are independent; no cross-key ordering is guaranteed or needed.
func Key(entityType, id string) string {
	return entityType + ":" + id
}

// GetOrFetch returns the entity, preferring a fresh cache entry, then
// a live fetch, then a stale cached copy. Concurrent misses for the
// same key are collapsed into a single upstream call.
func (m *Manager) GetOrFetch(ctx context.Context, entityType, id string, class cache.TTLClass, fetch FetchFunc) (*Lookup, error) {
	key := Key(entityType, id)

	entry, err := m.store.Get(ctx, key)
	if err != nil {
		// An unreachable store is a miss, not a caller-visible
		// failure.
		m.log.Warn("cache read failed, treating as miss",
			zap.String("key", key), zap.Error(err))
		entry = nil
	}

	if entry != nil && !entry.Stale(class) {
		return &Lookup{Value: entry.Value, Source: SourceCache, CachedAt: entry.CachedAt}, nil
	}

	result, fetchErr, _ := m.sf.Do(key, func() (any, error) {
		value, err := m.fetchWithBackoff(ctx, id, fetch)
		if err != nil {
			return nil, err
		}

		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", key, err)
		}

		// Write-through is best-effort; a dead cache must not turn a
		// successful fetch into a failure.
		if err := m.store.Put(ctx, key, raw, class); err != nil {
			m.log.Warn("cache write failed",
				zap.String("key", key), zap.Error(err))
		}

		return json.RawMessage(raw), nil
	})

	if fetchErr == nil {
		return &Lookup{Value: result.(json.RawMessage), Source: SourceUpstream, CachedAt: time.Now()}, nil
	}

	if entry != nil {
		m.log.Info("serving stale cache entry after fetch failure",
			zap.String("key", key),
			zap.Duration("age", entry.Age()),
			zap.Error(fetchErr))
		return &Lookup{Value: entry.Value, Source: SourceStaleFallback, CachedAt: entry.CachedAt}, nil
	}

	if errors.Is(fetchErr, upstream.ErrNotFound) {
		return nil, fetchErr
	}
	return nil, fmt.Errorf("%w: %s: %v", ErrNotAvailable, key, fetchErr)
}

// GetOrFetchMany resolves a batch of IDs, bounding concurrency. One
// ID's failure never fails the batch; each ID gets its own outcome.
func (m *Manager) GetOrFetchMany(ctx context.Context, entityType string, ids []string, class cache.TTLClass, fetch FetchFunc) map[string]Outcome {
	outcomes := make([]Outcome, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, id := range ids {
		g.Go(func() error {
			lookup, err := m.GetOrFetch(ctx, entityType, id, class, fetch)
			outcomes[i] = Outcome{Lookup: lookup, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	byID := make(map[string]Outcome, len(ids))
	for i, id := range ids {
		byID[id] = outcomes[i]
	}
	return byID
}

// fetchWithBackoff runs the fetch, honoring at most one rate-limit
// backoff cycle. No unbounded retry loops: a second rate-limit
// response is a failure.
func (m *Manager) fetchWithBackoff(ctx context.Context, id string, fetch FetchFunc) (any, error) {
	value, err := fetch(ctx, id)
	if err == nil {
		return value, nil
	}

	var limited *upstream.RateLimitedError
	if !errors.As(err, &limited) {
		return nil, err
	}

	wait := limited.RetryAfter
	if wait <= 0 {
		wait = upstream.DefaultBackoff
	}
	m.log.Info("rate limited by provider, backing off",
		zap.String("id", id), zap.Duration("retry_after", wait))

	if err := m.sleep(ctx, wait); err != nil {
		return nil, err
	}
	return fetch(ctx, id)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
