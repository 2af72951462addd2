package cache

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// Memory is an in-process Store. It serves tests and the degraded mode
// where no Redis instance is configured; a single logical instance is
// assumed either way, so no cross-process coordination is attempted.
type Memory struct {
	mu        sync.RWMutex
	entries   map[string]*Entry
	sets      map[string]map[string]struct{}
	zsets     map[string]map[string]float64
	retention time.Duration

	// now is swapped out by tests to simulate the clock.
	now func() time.Time
}

// NewMemory creates an empty in-memory store. Entries older than the
// retention period are evicted lazily on read.
func NewMemory(retention time.Duration) *Memory {
	return &Memory{
		entries:   make(map[string]*Entry),
		sets:      make(map[string]map[string]struct{}),
		zsets:     make(map[string]map[string]float64),
		retention: retention,
		now:       time.Now,
	}
}

// Get returns the entry for key, or (nil, nil) when absent or past
// retention.
func (m *Memory) Get(_ context.Context, key string) (*Entry, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, nil
	}

	if m.retention > 0 && m.now().Sub(entry.CachedAt) > m.retention {
		m.mu.Lock()
		// Re-check under the write lock; a concurrent Put may have
		// refreshed the entry.
		if cur, ok := m.entries[key]; ok && m.now().Sub(cur.CachedAt) > m.retention {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, nil
	}

	return entry, nil
}

// Put overwrites the entry at key. CachedAt never moves backwards for
// a key, even under a test clock that stalls.
func (m *Memory) Put(_ context.Context, key string, value json.RawMessage, _ TTLClass) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stamp := m.now()
	if prev, ok := m.entries[key]; ok && prev.CachedAt.After(stamp) {
		stamp = prev.CachedAt
	}

	m.entries[key] = &Entry{
		Key:      key,
		Value:    value,
		CachedAt: stamp,
	}
	return nil
}

// AddToSet adds member to the set at setKey.
func (m *Memory) AddToSet(_ context.Context, setKey, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.sets[setKey]
	if !ok {
		set = make(map[string]struct{})
		m.sets[setKey] = set
	}
	set[member] = struct{}{}
	return nil
}

// SetMembers returns all members of the set at setKey.
func (m *Memory) SetMembers(_ context.Context, setKey string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set := m.sets[setKey]
	members := make([]string, 0, len(set))
	for member := range set {
		members = append(members, member)
	}
	return members, nil
}

// ZAdd adds or rescores member in the sorted set at zsetKey.
func (m *Memory) ZAdd(_ context.Context, zsetKey, member string, score float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	zset, ok := m.zsets[zsetKey]
	if !ok {
		zset = make(map[string]float64)
		m.zsets[zsetKey] = zset
	}
	zset[member] = score
	return nil
}

// ZRange returns members ordered by ascending score over [start, stop].
func (m *Memory) ZRange(_ context.Context, zsetKey string, start, stop int64) ([]string, error) {
	return m.zrange(zsetKey, start, stop, false)
}

// ZRevRange returns members ordered by descending score over [start, stop].
func (m *Memory) ZRevRange(_ context.Context, zsetKey string, start, stop int64) ([]string, error) {
	return m.zrange(zsetKey, start, stop, true)
}

func (m *Memory) zrange(zsetKey string, start, stop int64, reverse bool) ([]string, error) {
	m.mu.RLock()
	zset := m.zsets[zsetKey]
	type scored struct {
		member string
		score  float64
	}
	all := make([]scored, 0, len(zset))
	for member, score := range zset {
		all = append(all, scored{member, score})
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			if reverse {
				return all[i].score > all[j].score
			}
			return all[i].score < all[j].score
		}
		// Equal scores order lexically, matching redis.
		if reverse {
			return all[i].member > all[j].member
		}
		return all[i].member < all[j].member
	})

	n := int64(len(all))
	start, stop = clampRange(start, stop, n)
	if start > stop {
		return []string{}, nil
	}

	members := make([]string, 0, stop-start+1)
	for _, s := range all[start : stop+1] {
		members = append(members, s.member)
	}
	return members, nil
}

// clampRange resolves redis-style negative indices against a set of
// size n and clamps the result to valid bounds.
func clampRange(start, stop, n int64) (int64, int64) {
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	return start, stop
}

// ClearAll wipes every entry, set, and sorted set.
func (m *Memory) ClearAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]*Entry)
	m.sets = make(map[string]map[string]struct{})
	m.zsets = make(map[string]map[string]float64)
	return nil
}
