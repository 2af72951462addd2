package releases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"catalog-manager/core/cache"
	"catalog-manager/core/database"
	"catalog-manager/core/labels"
	"catalog-manager/core/metacache"
	"catalog-manager/core/paginate"
	"catalog-manager/core/storage"
	"catalog-manager/core/upstream"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// ErrLabelNotFound reports an unresolvable label reference.
var ErrLabelNotFound = errors.New("releases: label not found")

// ErrNoArtwork reports that a release has no stored cover art.
var ErrNoArtwork = errors.New("releases: no artwork")

// Service handles release lookups, label-scoped listings, and cover
// art.
type Service struct {
	manager *metacache.Manager
	index   *metacache.LabelIndex
	client  *upstream.Client
	repo    *database.Repository // nil when the database is down
	store   storage.Client
	bucket  string
	table   labels.Table
	engine  *labels.Engine
	logger  *zap.Logger
}

// NewService creates a new releases service.
func NewService(manager *metacache.Manager, index *metacache.LabelIndex, client *upstream.Client, repo *database.Repository, store storage.Client, bucket string, table labels.Table, engine *labels.Engine, logger *zap.Logger) *Service {
	return &Service{
		manager: manager,
		index:   index,
		client:  client,
		repo:    repo,
		store:   store,
		bucket:  bucket,
		table:   table,
		engine:  engine,
		logger:  logger,
	}
}

// GetRelease returns the release by provider ID through the
// three-tier cache. A released album's metadata barely changes, so it
// is cached long.
func (s *Service) GetRelease(ctx context.Context, id string) (*metacache.Lookup, error) {
	lookup, err := s.manager.GetOrFetch(ctx, "release", id, cache.TTLLong, func(ctx context.Context, id string) (any, error) {
		return s.client.Album(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	if lookup.Source == metacache.SourceUpstream {
		s.indexRelease(ctx, lookup.Value)
	}
	return lookup, nil
}

// indexRelease files a freshly fetched release under its reconciled
// label, scored by release date for recency queries.
func (s *Service) indexRelease(ctx context.Context, raw json.RawMessage) {
	var album upstream.Album
	if err := json.Unmarshal(raw, &album); err != nil {
		return
	}

	result := s.engine.Reconcile(labels.Entity{
		ID:            album.ID,
		Name:          album.Title,
		DirectLabelID: album.LabelRef,
	})
	if err := s.index.Add(ctx, result.LabelID, metacache.KindRelease, album.ID, releaseScore(album.ReleaseDate)); err != nil {
		s.logger.Warn("release index update failed",
			zap.String("release_id", album.ID), zap.Error(err))
	}
}

// releaseScore turns a provider release date into a sortable score.
// Providers truncate dates to year or month for old catalog entries.
func releaseScore(date string) float64 {
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if t, err := time.Parse(layout, date); err == nil {
			return float64(t.Unix())
		}
	}
	return 0
}

// LabelReleases is a label-scoped release listing.
type LabelReleases struct {
	LabelID    string   `json:"label_id"`
	ReleaseIDs []string `json:"release_ids"`
	// Complete is false when a fallback scan hit its page cap or
	// aborted mid-run.
	Complete bool `json:"complete"`
	// FromIndex reports whether the precomputed index answered.
	FromIndex bool `json:"from_index"`
}

// ListByLabel lists releases for a label reference, most recent
// first. The recency index answers when populated; otherwise the
// local store is drained page by page.
func (s *Service) ListByLabel(ctx context.Context, labelRef string, limit int64) (*LabelReleases, error) {
	labelID, ok := s.table.Resolve(labelRef)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrLabelNotFound, labelRef)
	}
	if limit <= 0 {
		limit = 50
	}

	ids, err := s.index.Recent(ctx, labelID, metacache.KindRelease, limit)
	if err != nil {
		s.logger.Warn("release index read failed, falling back to scan",
			zap.String("label_id", labelID), zap.Error(err))
	}
	if len(ids) > 0 {
		return &LabelReleases{LabelID: labelID, ReleaseIDs: ids, Complete: true, FromIndex: true}, nil
	}

	if s.repo == nil {
		return &LabelReleases{LabelID: labelID, ReleaseIDs: []string{}, Complete: true}, nil
	}

	result, err := paginate.Accumulate(ctx,
		func(ctx context.Context, offset, limit int) ([]database.ReleaseRow, error) {
			return s.repo.ListReleasesByLabel(ctx, labelID, offset, limit)
		},
		func(r database.ReleaseRow) string { return r.ID },
		paginate.Options{})
	if err != nil {
		s.logger.Warn("release scan aborted, returning partial listing",
			zap.String("label_id", labelID),
			zap.Int("pages", result.Pages),
			zap.Error(err))
	}

	listing := &LabelReleases{LabelID: labelID, ReleaseIDs: []string{}, Complete: result.Complete}
	for _, row := range result.Items {
		listing.ReleaseIDs = append(listing.ReleaseIDs, row.ID)
		if err := s.index.Add(ctx, labelID, metacache.KindRelease, row.ID, float64(row.ReleasedAt.Unix())); err != nil {
			s.logger.Warn("release index update failed",
				zap.String("release_id", row.ID), zap.Error(err))
		}
	}
	return listing, nil
}

// RefreshFromUpstream drains the provider's release search for a
// label and writes every hit through the cache and the index. Used by
// the warmup flow; the result reports how much was ingested and
// whether the search was fully drained.
func (s *Service) RefreshFromUpstream(ctx context.Context, labelRef string) (*LabelReleases, error) {
	labelID, ok := s.table.Resolve(labelRef)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrLabelNotFound, labelRef)
	}

	label, _ := s.table.Lookup(labelID)
	result, err := paginate.Accumulate(ctx,
		func(ctx context.Context, offset, limit int) ([]upstream.Album, error) {
			return s.client.SearchReleases(ctx, label.Name, offset, limit)
		},
		func(a upstream.Album) string { return a.ID },
		paginate.Options{})
	if err != nil {
		s.logger.Warn("upstream release search aborted",
			zap.String("label_id", labelID),
			zap.Int("pages", result.Pages),
			zap.Error(err))
	}

	listing := &LabelReleases{LabelID: labelID, ReleaseIDs: []string{}, Complete: result.Complete}
	for _, album := range result.Items {
		reconciled := s.engine.Reconcile(labels.Entity{
			ID:            album.ID,
			Name:          album.Title,
			DirectLabelID: album.LabelRef,
		})
		if reconciled.LabelID != labelID {
			continue
		}

		raw, err := json.Marshal(album)
		if err != nil {
			continue
		}
		if err := s.manager.Store().Put(ctx, metacache.Key("release", album.ID), raw, cache.TTLLong); err != nil {
			s.logger.Warn("release write-through failed",
				zap.String("release_id", album.ID), zap.Error(err))
		}
		if err := s.index.Add(ctx, labelID, metacache.KindRelease, album.ID, releaseScore(album.ReleaseDate)); err != nil {
			s.logger.Warn("release index update failed",
				zap.String("release_id", album.ID), zap.Error(err))
		}
		listing.ReleaseIDs = append(listing.ReleaseIDs, album.ID)
	}
	return listing, err
}

// Artwork streams a release's cover art from object storage.
func (s *Service) Artwork(ctx context.Context, releaseID string) (io.ReadCloser, error) {
	if s.repo == nil || s.store == nil {
		return nil, ErrNoArtwork
	}

	release, err := s.repo.Release(ctx, releaseID)
	if err != nil {
		return nil, err
	}
	if release.ArtworkKey == "" {
		return nil, fmt.Errorf("%w: release %s", ErrNoArtwork, releaseID)
	}

	if _, err := s.store.StatObject(ctx, s.bucket, release.ArtworkKey, minio.StatObjectOptions{}); err != nil {
		return nil, fmt.Errorf("%w: release %s: %v", ErrNoArtwork, releaseID, err)
	}
	return s.store.GetObject(ctx, s.bucket, release.ArtworkKey, minio.GetObjectOptions{})
}
