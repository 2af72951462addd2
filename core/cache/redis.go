package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store backed by a shared Redis instance. Entries are
// stored as JSON envelopes carrying their own CachedAt stamp; the
// redis-side expiry is the long retention period, not the staleness
// threshold, so stale entries stay available as fallbacks.
type Redis struct {
	client    *redis.Client
	prefix    string
	retention time.Duration
}

// NewRedis connects to the configured Redis instance and verifies it
// is reachable.
func NewRedis(cfg Config) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}

	return &Redis{
		client:    client,
		prefix:    cfg.KeyPrefix,
		retention: cfg.Retention(),
	}, nil
}

// NewRedisWithClient wraps an existing client. Used by tests.
func NewRedisWithClient(client *redis.Client, prefix string, retention time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, retention: retention}
}

func (r *Redis) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}

// Get returns the entry for key, or (nil, nil) when absent.
func (r *Redis) Get(ctx context.Context, key string) (*Entry, error) {
	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		// A corrupt envelope is indistinguishable from a miss for
		// callers; surface it so the manager can log and refetch.
		return nil, fmt.Errorf("redis entry %s: decode: %w", key, err)
	}
	return &entry, nil
}

// Put overwrites the entry at key with the current timestamp.
func (r *Redis) Put(ctx context.Context, key string, value json.RawMessage, _ TTLClass) error {
	entry := Entry{
		Key:      key,
		Value:    value,
		CachedAt: time.Now().UTC(),
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("redis entry %s: encode: %w", key, err)
	}

	if err := r.client.Set(ctx, r.key(key), raw, r.retention).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// AddToSet adds member to the set at setKey.
func (r *Redis) AddToSet(ctx context.Context, setKey, member string) error {
	if err := r.client.SAdd(ctx, r.key(setKey), member).Err(); err != nil {
		return fmt.Errorf("redis sadd %s: %w", setKey, err)
	}
	return nil
}

// SetMembers returns all members of the set at setKey.
func (r *Redis) SetMembers(ctx context.Context, setKey string) ([]string, error) {
	members, err := r.client.SMembers(ctx, r.key(setKey)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers %s: %w", setKey, err)
	}
	return members, nil
}

// ZAdd adds or rescores member in the sorted set at zsetKey.
func (r *Redis) ZAdd(ctx context.Context, zsetKey, member string, score float64) error {
	err := r.client.ZAdd(ctx, r.key(zsetKey), redis.Z{Score: score, Member: member}).Err()
	if err != nil {
		return fmt.Errorf("redis zadd %s: %w", zsetKey, err)
	}
	return nil
}

// ZRange returns members ordered by ascending score over [start, stop].
func (r *Redis) ZRange(ctx context.Context, zsetKey string, start, stop int64) ([]string, error) {
	members, err := r.client.ZRange(ctx, r.key(zsetKey), start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("redis zrange %s: %w", zsetKey, err)
	}
	return members, nil
}

// ZRevRange returns members ordered by descending score over [start, stop].
func (r *Redis) ZRevRange(ctx context.Context, zsetKey string, start, stop int64) ([]string, error) {
	members, err := r.client.ZRevRange(ctx, r.key(zsetKey), start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("redis zrevrange %s: %w", zsetKey, err)
	}
	return members, nil
}

// ClearAll deletes every key under the configured prefix. It scans
// rather than flushing so a shared redis database is not wiped.
func (r *Redis) ClearAll(ctx context.Context) error {
	match := "*"
	if r.prefix != "" {
		match = r.prefix + ":*"
	}

	iter := r.client.Scan(ctx, 0, match, 200).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis del %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	return nil
}
