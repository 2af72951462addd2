package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// TTLClass groups cache entries by how quickly their upstream source churns.
type TTLClass string

const (
	// TTLShort is for volatile aggregates like search results.
	TTLShort TTLClass = "short"
	// TTLMedium is for entities that change occasionally (artist profiles).
	TTLMedium TTLClass = "medium"
	// TTLLong is for effectively immutable entities (a released track).
	TTLLong TTLClass = "long"
)

// Threshold returns the staleness threshold for a TTL class.
// Unknown classes fall back to the short threshold so a typo never
// extends an entry's freshness window.
func Threshold(class TTLClass) time.Duration {
	switch class {
	case TTLLong:
		return 7 * 24 * time.Hour
	case TTLMedium:
		return 24 * time.Hour
	default:
		return time.Hour
	}
}

// Entry is a cached projection of an upstream object.
type Entry struct {
	// Key is the full cache key this entry was stored under.
	Key string `json:"key"`

	// Value is the serialized projection.
	Value json.RawMessage `json:"value"`

	// CachedAt is when the value was written. Non-decreasing per key.
	CachedAt time.Time `json:"cached_at"`
}

// Age returns how long ago the entry was written.
func (e *Entry) Age() time.Duration {
	return time.Since(e.CachedAt)
}

// Stale reports whether the entry has outlived the threshold of the
// given TTL class. Stale entries remain readable; they are preferred
// over nothing when the upstream is unreachable.
func (e *Entry) Stale(class TTLClass) bool {
	return e.Age() > Threshold(class)
}

// Store is the key/value, set, and sorted-set surface backing the
// metadata cache and the per-label indices.
//
// Every method returns an error value rather than panicking when the
// backing store is unreachable. Callers treat read errors as a miss
// and write errors as best-effort.
type Store interface {
	// Get returns the entry for key, or (nil, nil) when absent.
	Get(ctx context.Context, key string) (*Entry, error)

	// Put overwrites any existing entry, stamping CachedAt with the
	// current time. Same-key concurrent writes are last-writer-wins.
	Put(ctx context.Context, key string, value json.RawMessage, class TTLClass) error

	// AddToSet adds member to the unordered set at setKey.
	AddToSet(ctx context.Context, setKey, member string) error

	// SetMembers returns all members of the set at setKey.
	SetMembers(ctx context.Context, setKey string) ([]string, error)

	// ZAdd adds member with score to the sorted set at zsetKey,
	// updating the score if the member already exists.
	ZAdd(ctx context.Context, zsetKey, member string, score float64) error

	// ZRange returns members of the sorted set ordered by ascending
	// score, over the inclusive index range [start, stop]. Negative
	// indices count from the end, redis-style.
	ZRange(ctx context.Context, zsetKey string, start, stop int64) ([]string, error)

	// ZRevRange is ZRange with descending score order. It backs
	// recency queries against the per-label release index.
	ZRevRange(ctx context.Context, zsetKey string, start, stop int64) ([]string, error)

	// ClearAll wipes the entire store. Maintenance flows only; request
	// paths never call this.
	ClearAll(ctx context.Context) error
}

// New builds a Store from configuration.
func New(cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendMemory:
		return NewMemory(cfg.Retention()), nil
	case BackendRedis:
		return NewRedis(cfg)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
