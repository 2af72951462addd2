package metacache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"catalog-manager/core/cache"
	"catalog-manager/core/upstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubStore is a controllable cache.Store for exercising the manager's
// fallback paths.
type stubStore struct {
	*cache.Memory
	entries  map[string]*cache.Entry
	getErr   error
	putErr   error
	puts     int
	lastPut  string
	lastView json.RawMessage
}

func newStubStore() *stubStore {
	return &stubStore{
		Memory:  cache.NewMemory(0),
		entries: make(map[string]*cache.Entry),
	}
}

func (s *stubStore) Get(_ context.Context, key string) (*cache.Entry, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.entries[key], nil
}

func (s *stubStore) Put(_ context.Context, key string, value json.RawMessage, _ cache.TTLClass) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.puts++
	s.lastPut = key
	s.lastView = value
	s.entries[key] = &cache.Entry{Key: key, Value: value, CachedAt: time.Now()}
	return nil
}

func (s *stubStore) seed(key string, value string, age time.Duration) {
	s.entries[key] = &cache.Entry{
		Key:      key,
		Value:    json.RawMessage(value),
		CachedAt: time.Now().Add(-age),
	}
}

func newTestManager(store cache.Store) (*Manager, *[]time.Duration) {
	m := NewManager(store, zap.NewNop())
	var waits []time.Duration
	m.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return m, &waits
}

func fetchValue(v any, err error, calls *int) FetchFunc {
	return func(context.Context, string) (any, error) {
		*calls++
		return v, err
	}
}

func TestGetOrFetch_FreshCacheHit(t *testing.T) {
	store := newStubStore()
	store.seed("track:t1", `{"id":"t1"}`, 10*time.Minute)
	m, _ := newTestManager(store)

	calls := 0
	lookup, err := m.GetOrFetch(context.Background(), "track", "t1", cache.TTLShort,
		fetchValue(nil, errors.New("must not be called"), &calls))

	require.NoError(t, err)
	assert.Equal(t, SourceCache, lookup.Source)
	assert.JSONEq(t, `{"id":"t1"}`, string(lookup.Value))
	assert.Zero(t, calls, "fresh hit never touches upstream")
}

func TestGetOrFetch_MissFetchesAndWritesThrough(t *testing.T) {
	store := newStubStore()
	m, _ := newTestManager(store)

	calls := 0
	lookup, err := m.GetOrFetch(context.Background(), "track", "t1", cache.TTLLong,
		fetchValue(map[string]string{"id": "t1", "title": "Deep Cut"}, nil, &calls))

	require.NoError(t, err)
	assert.Equal(t, SourceUpstream, lookup.Source)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, store.puts)
	assert.Equal(t, "track:t1", store.lastPut)
	assert.JSONEq(t, `{"id":"t1","title":"Deep Cut"}`, string(store.lastView))
}

func TestGetOrFetch_StaleEntryRefreshes(t *testing.T) {
	store := newStubStore()
	store.seed("artist:a1", `{"id":"a1","name":"Old Name"}`, 48*time.Hour)
	m, _ := newTestManager(store)

	calls := 0
	lookup, err := m.GetOrFetch(context.Background(), "artist", "a1", cache.TTLMedium,
		fetchValue(map[string]string{"id": "a1", "name": "New Name"}, nil, &calls))

	require.NoError(t, err)
	assert.Equal(t, SourceUpstream, lookup.Source)
	assert.Equal(t, 1, calls, "stale entries are preferentially refreshed")
}

func TestGetOrFetch_StaleFallbackOnFetchFailure(t *testing.T) {
	// The fallback property: once cached, a provider outage never
	// yields NotAvailable.
	store := newStubStore()
	store.seed("artist:a1", `{"id":"a1","name":"Cached Name"}`, 48*time.Hour)
	m, _ := newTestManager(store)

	calls := 0
	lookup, err := m.GetOrFetch(context.Background(), "artist", "a1", cache.TTLMedium,
		fetchValue(nil, &upstream.TransientError{Status: 502}, &calls))

	require.NoError(t, err)
	assert.Equal(t, SourceStaleFallback, lookup.Source)
	assert.JSONEq(t, `{"id":"a1","name":"Cached Name"}`, string(lookup.Value))
}

func TestGetOrFetch_NotAvailableWhenNothingCached(t *testing.T) {
	store := newStubStore()
	m, _ := newTestManager(store)

	calls := 0
	_, err := m.GetOrFetch(context.Background(), "artist", "a1", cache.TTLMedium,
		fetchValue(nil, &upstream.TransientError{Status: 502}, &calls))

	assert.ErrorIs(t, err, ErrNotAvailable)
}

func TestGetOrFetch_NotFoundPropagatesTyped(t *testing.T) {
	store := newStubStore()
	m, _ := newTestManager(store)

	calls := 0
	_, err := m.GetOrFetch(context.Background(), "track", "ghost", cache.TTLLong,
		fetchValue(nil, upstream.ErrNotFound, &calls))

	assert.ErrorIs(t, err, upstream.ErrNotFound,
		"a typed absent is distinct from NotAvailable")
}

func TestGetOrFetch_RateLimitBackoffRetriesOnce(t *testing.T) {
	store := newStubStore()
	m, waits := newTestManager(store)

	calls := 0
	fetch := func(context.Context, string) (any, error) {
		calls++
		if calls == 1 {
			return nil, &upstream.RateLimitedError{RetryAfter: 5 * time.Second}
		}
		return map[string]string{"id": "t1"}, nil
	}

	lookup, err := m.GetOrFetch(context.Background(), "track", "t1", cache.TTLLong, fetch)
	require.NoError(t, err)
	assert.Equal(t, SourceUpstream, lookup.Source)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []time.Duration{5 * time.Second}, *waits,
		"waits the provider-specified backoff")
}

func TestGetOrFetch_SecondRateLimitIsFailure(t *testing.T) {
	store := newStubStore()
	m, waits := newTestManager(store)

	calls := 0
	_, err := m.GetOrFetch(context.Background(), "track", "t1", cache.TTLLong,
		fetchValue(nil, &upstream.RateLimitedError{}, &calls))

	assert.ErrorIs(t, err, ErrNotAvailable)
	assert.Equal(t, 2, calls, "exactly one retry, no unbounded loop")
	assert.Equal(t, []time.Duration{upstream.DefaultBackoff}, *waits)
}

func TestGetOrFetch_CacheReadErrorIsAMiss(t *testing.T) {
	store := newStubStore()
	store.getErr = errors.New("store unreachable")
	m, _ := newTestManager(store)

	calls := 0
	lookup, err := m.GetOrFetch(context.Background(), "track", "t1", cache.TTLLong,
		fetchValue(map[string]string{"id": "t1"}, nil, &calls))

	require.NoError(t, err)
	assert.Equal(t, SourceUpstream, lookup.Source)
	assert.Equal(t, 1, calls)
}

func TestGetOrFetch_CacheWriteErrorIsBestEffort(t *testing.T) {
	store := newStubStore()
	store.putErr = errors.New("store unreachable")
	m, _ := newTestManager(store)

	calls := 0
	lookup, err := m.GetOrFetch(context.Background(), "track", "t1", cache.TTLLong,
		fetchValue(map[string]string{"id": "t1"}, nil, &calls))

	require.NoError(t, err, "a dead cache must not fail a successful fetch")
	assert.Equal(t, SourceUpstream, lookup.Source)
}

func TestGetOrFetchMany_PartialFailure(t *testing.T) {
	store := newStubStore()
	store.seed("artist:cached", `{"id":"cached"}`, time.Minute)
	m, _ := newTestManager(store)

	fetch := func(_ context.Context, id string) (any, error) {
		switch id {
		case "ok":
			return map[string]string{"id": "ok"}, nil
		case "ghost":
			return nil, upstream.ErrNotFound
		default:
			return nil, &upstream.TransientError{Status: 500}
		}
	}

	outcomes := m.GetOrFetchMany(context.Background(), "artist",
		[]string{"cached", "ok", "ghost", "down"}, cache.TTLMedium, fetch)

	require.Len(t, outcomes, 4)
	assert.Equal(t, SourceCache, outcomes["cached"].Lookup.Source)
	assert.Equal(t, SourceUpstream, outcomes["ok"].Lookup.Source)
	assert.ErrorIs(t, outcomes["ghost"].Err, upstream.ErrNotFound)
	assert.ErrorIs(t, outcomes["down"].Err, ErrNotAvailable)
}

func TestLabelIndex_AddMembersRecent(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemory(0)
	ix := NewLabelIndex(store)

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).Unix()
	for i, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, ix.Add(ctx, "2", KindRelease, id, float64(base+int64(i)*86400)))
	}
	// Re-adding is idempotent.
	require.NoError(t, ix.Add(ctx, "2", KindRelease, "r2", float64(base+86400)))

	members, err := ix.Members(ctx, "2", KindRelease)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"r1", "r2", "r3"}, members)

	recent, err := ix.Recent(ctx, "2", KindRelease, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"r3", "r2"}, recent)

	none, err := ix.Recent(ctx, "9", KindRelease, 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "track:t1", Key("track", "t1"))
	assert.Equal(t, fmt.Sprintf("release:%s", "r9"), Key("release", "r9"))
}
