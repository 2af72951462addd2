package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisWithClient(client, "catalog", 30*24*time.Hour), mr
}

func TestRedis_PutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := setupRedis(t)

	miss, err := store.Get(ctx, "track:t1")
	require.NoError(t, err)
	assert.Nil(t, miss, "absent key is (nil, nil), not an error")

	require.NoError(t, store.Put(ctx, "track:t1", json.RawMessage(`{"id":"t1"}`), TTLLong))

	entry, err := store.Get(ctx, "track:t1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "track:t1", entry.Key)
	assert.JSONEq(t, `{"id":"t1"}`, string(entry.Value))
	assert.WithinDuration(t, time.Now(), entry.CachedAt, 5*time.Second)
}

func TestRedis_RetentionExpiry(t *testing.T) {
	ctx := context.Background()
	store, mr := setupRedis(t)

	require.NoError(t, store.Put(ctx, "track:t1", json.RawMessage(`{}`), TTLShort))

	// Well past the SHORT staleness threshold but inside retention:
	// the entry must survive to serve as a stale fallback.
	mr.FastForward(48 * time.Hour)
	entry, err := store.Get(ctx, "track:t1")
	require.NoError(t, err)
	assert.NotNil(t, entry)

	// Past retention it is genuinely gone.
	mr.FastForward(30 * 24 * time.Hour)
	entry, err = store.Get(ctx, "track:t1")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestRedis_SetsAndSortedSets(t *testing.T) {
	ctx := context.Background()
	store, _ := setupRedis(t)

	require.NoError(t, store.AddToSet(ctx, "label:2:artists", "a1"))
	require.NoError(t, store.AddToSet(ctx, "label:2:artists", "a2"))
	require.NoError(t, store.AddToSet(ctx, "label:2:artists", "a1"))

	members, err := store.SetMembers(ctx, "label:2:artists")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a1", "a2"}, members)

	zkey := "label:2:releases:bydate"
	require.NoError(t, store.ZAdd(ctx, zkey, "r1", 100))
	require.NoError(t, store.ZAdd(ctx, zkey, "r2", 300))
	require.NoError(t, store.ZAdd(ctx, zkey, "r3", 200))

	recent, err := store.ZRevRange(ctx, zkey, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"r2", "r3"}, recent)

	oldest, err := store.ZRange(ctx, zkey, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, oldest)
}

func TestRedis_ClearAllRespectsPrefix(t *testing.T) {
	ctx := context.Background()
	store, mr := setupRedis(t)

	require.NoError(t, store.Put(ctx, "track:t1", json.RawMessage(`{}`), TTLShort))
	require.NoError(t, store.AddToSet(ctx, "label:2:artists", "a1"))

	// A co-tenant key outside our prefix must be left alone.
	require.NoError(t, mr.Set("other-app:key", "value"))

	require.NoError(t, store.ClearAll(ctx))

	entry, err := store.Get(ctx, "track:t1")
	require.NoError(t, err)
	assert.Nil(t, entry)
	assert.True(t, mr.Exists("other-app:key"))
}

func TestRedis_UnreachableStoreReturnsError(t *testing.T) {
	ctx := context.Background()
	store, mr := setupRedis(t)
	mr.Close()

	_, err := store.Get(ctx, "track:t1")
	assert.Error(t, err, "unreachable store surfaces an error, never panics")

	err = store.Put(ctx, "track:t1", json.RawMessage(`{}`), TTLShort)
	assert.Error(t, err)
}
