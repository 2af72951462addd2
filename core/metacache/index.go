package metacache

import (
	"context"
	"fmt"

	"catalog-manager/core/cache"
)

// Entity kinds indexed per label.
const (
	KindRelease = "releases"
	KindArtist  = "artists"
	KindTrack   = "tracks"
)

// LabelIndex maintains the derived per-label structures: a membership
// set and a recency-sorted set per entity kind. Both are rebuilt
// incrementally as entities are cached, never hand-edited.
type LabelIndex struct {
	store cache.Store
}

// NewLabelIndex creates an index over the given store.
func NewLabelIndex(store cache.Store) *LabelIndex {
	return &LabelIndex{store: store}
}

func setKey(labelID, kind string) string {
	return fmt.Sprintf("label:%s:%s", labelID, kind)
}

func zsetKey(labelID, kind string) string {
	return fmt.Sprintf("label:%s:%s:bydate", labelID, kind)
}

// Add records an entity under a label. score orders the recency set,
// conventionally the release timestamp in unix seconds. Both writes
// are idempotent.
func (ix *LabelIndex) Add(ctx context.Context, labelID, kind, entityID string, score float64) error {
	if err := ix.store.AddToSet(ctx, setKey(labelID, kind), entityID); err != nil {
		return err
	}
	return ix.store.ZAdd(ctx, zsetKey(labelID, kind), entityID, score)
}

// Members returns all entity IDs of the given kind under the label.
func (ix *LabelIndex) Members(ctx context.Context, labelID, kind string) ([]string, error) {
	return ix.store.SetMembers(ctx, setKey(labelID, kind))
}

// Recent returns up to n entity IDs of the given kind under the
// label, most recent first.
func (ix *LabelIndex) Recent(ctx context.Context, labelID, kind string, n int64) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}
	return ix.store.ZRevRange(ctx, zsetKey(labelID, kind), 0, n-1)
}
