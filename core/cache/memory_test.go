package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreshold(t *testing.T) {
	tests := []struct {
		name  string
		class TTLClass
		want  time.Duration
	}{
		{"Short", TTLShort, time.Hour},
		{"Medium", TTLMedium, 24 * time.Hour},
		{"Long", TTLLong, 7 * 24 * time.Hour},
		{"Unknown falls back to short", TTLClass("bogus"), time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Threshold(tt.class))
		})
	}
}

func TestMemory_StalenessWithSimulatedClock(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(30 * 24 * time.Hour)

	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Put(ctx, "track:t1", json.RawMessage(`{"id":"t1"}`), TTLShort))

	entry, err := store.Get(ctx, "track:t1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, now, entry.CachedAt)

	// Fresh immediately after the write.
	assert.False(t, time.Time.IsZero(entry.CachedAt))
	assert.False(t, now.Sub(entry.CachedAt) > Threshold(TTLShort))

	// Advance past the short threshold: stale but still readable.
	now = now.Add(time.Hour + time.Minute)
	entry, err = store.Get(ctx, "track:t1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.True(t, now.Sub(entry.CachedAt) > Threshold(TTLShort))
	assert.False(t, now.Sub(entry.CachedAt) > Threshold(TTLMedium))
}

func TestMemory_CachedAtMonotonic(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(0)

	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Put(ctx, "k", json.RawMessage(`1`), TTLLong))
	first, err := store.Get(ctx, "k")
	require.NoError(t, err)

	// Clock moves backwards (ntp step, test harness); the rewrite must
	// not back-date staleness.
	now = now.Add(-time.Minute)
	require.NoError(t, store.Put(ctx, "k", json.RawMessage(`2`), TTLLong))

	second, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, second.CachedAt.Before(first.CachedAt))
	assert.Equal(t, json.RawMessage(`2`), second.Value)
}

func TestMemory_RetentionEviction(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(48 * time.Hour)

	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Put(ctx, "k", json.RawMessage(`1`), TTLShort))

	now = now.Add(49 * time.Hour)
	entry, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, entry, "entries past retention are evicted, not served")
}

func TestMemory_Sets(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(0)

	require.NoError(t, store.AddToSet(ctx, "label:2:releases", "r1"))
	require.NoError(t, store.AddToSet(ctx, "label:2:releases", "r2"))
	require.NoError(t, store.AddToSet(ctx, "label:2:releases", "r1"))

	members, err := store.SetMembers(ctx, "label:2:releases")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"r1", "r2"}, members)

	empty, err := store.SetMembers(ctx, "label:9:releases")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemory_SortedSets(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(0)
	zkey := "label:2:releases:bydate"

	require.NoError(t, store.ZAdd(ctx, zkey, "r-old", 100))
	require.NoError(t, store.ZAdd(ctx, zkey, "r-mid", 200))
	require.NoError(t, store.ZAdd(ctx, zkey, "r-new", 300))

	asc, err := store.ZRange(ctx, zkey, 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"r-old", "r-mid", "r-new"}, asc)

	desc, err := store.ZRevRange(ctx, zkey, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"r-new", "r-mid"}, desc)

	// Rescoring moves the member, it does not duplicate it.
	require.NoError(t, store.ZAdd(ctx, zkey, "r-old", 400))
	desc, err = store.ZRevRange(ctx, zkey, 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"r-old", "r-new", "r-mid"}, desc)
}

func TestMemory_ClearAll(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(0)

	require.NoError(t, store.Put(ctx, "k", json.RawMessage(`1`), TTLShort))
	require.NoError(t, store.AddToSet(ctx, "s", "m"))
	require.NoError(t, store.ZAdd(ctx, "z", "m", 1))

	require.NoError(t, store.ClearAll(ctx))

	entry, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, entry)

	members, err := store.SetMembers(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New(Config{Backend: "memcached"})
	assert.Error(t, err)
}
