package artists

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"catalog-manager/core/cache"
	"catalog-manager/core/database"
	"catalog-manager/core/labels"
	"catalog-manager/core/metacache"
	"catalog-manager/core/paginate"
	"catalog-manager/core/upstream"

	"go.uber.org/zap"
)

// ErrLabelNotFound reports an unresolvable label reference.
var ErrLabelNotFound = errors.New("artists: label not found")

// Service handles artist lookups and label reconciliation.
type Service struct {
	manager *metacache.Manager
	index   *metacache.LabelIndex
	client  *upstream.Client
	repo    *database.Repository // nil when the database is down
	table   labels.Table
	engine  *labels.Engine
	logger  *zap.Logger
}

// NewService creates a new artists service. repo may be nil; the
// service then reconciles from upstream data alone.
func NewService(manager *metacache.Manager, index *metacache.LabelIndex, client *upstream.Client, repo *database.Repository, table labels.Table, engine *labels.Engine, logger *zap.Logger) *Service {
	return &Service{
		manager: manager,
		index:   index,
		client:  client,
		repo:    repo,
		table:   table,
		engine:  engine,
		logger:  logger,
	}
}

// GetArtist returns the artist by provider ID through the three-tier
// cache. Successful fetches also refresh the per-label artist index.
func (s *Service) GetArtist(ctx context.Context, id string) (*metacache.Lookup, error) {
	lookup, err := s.manager.GetOrFetch(ctx, "artist", id, cache.TTLMedium, func(ctx context.Context, id string) (any, error) {
		return s.client.Artist(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	if lookup.Source == metacache.SourceUpstream {
		s.indexArtist(ctx, lookup.Value)
	}
	return lookup, nil
}

// GetArtists resolves a batch of IDs; one failure never fails the rest.
func (s *Service) GetArtists(ctx context.Context, ids []string) map[string]metacache.Outcome {
	return s.manager.GetOrFetchMany(ctx, "artist", ids, cache.TTLMedium, func(ctx context.Context, id string) (any, error) {
		return s.client.Artist(ctx, id)
	})
}

// indexArtist files a freshly fetched artist under its reconciled
// label. Index maintenance is best-effort.
func (s *Service) indexArtist(ctx context.Context, raw json.RawMessage) {
	var artist upstream.Artist
	if err := json.Unmarshal(raw, &artist); err != nil {
		return
	}

	result := s.engine.Reconcile(labels.Entity{
		ID:            artist.ID,
		Name:          artist.Name,
		Bio:           artist.Bio,
		DirectLabelID: artist.LabelRef,
	})
	if err := s.index.Add(ctx, result.LabelID, metacache.KindArtist, artist.ID, float64(time.Now().Unix())); err != nil {
		s.logger.Warn("artist index update failed",
			zap.String("artist_id", artist.ID), zap.Error(err))
	}
}

// ResolveLabel reconciles the artist's canonical label without
// persisting anything. The relational projection is preferred; when
// the database is unavailable the cached upstream projection serves.
func (s *Service) ResolveLabel(ctx context.Context, artistID string) (labels.Result, error) {
	if s.repo != nil {
		entity, err := s.repo.ArtistEntity(ctx, artistID)
		if err == nil {
			return s.engine.Reconcile(entity), nil
		}
		if !errors.Is(err, database.ErrNotFound) {
			return labels.Result{}, err
		}
		// Unknown locally: fall through to the upstream projection.
	}

	lookup, err := s.GetArtist(ctx, artistID)
	if err != nil {
		return labels.Result{}, err
	}

	var artist upstream.Artist
	if err := json.Unmarshal(lookup.Value, &artist); err != nil {
		return labels.Result{}, fmt.Errorf("decode cached artist %s: %w", artistID, err)
	}

	return s.engine.Reconcile(labels.Entity{
		ID:            artist.ID,
		Name:          artist.Name,
		Bio:           artist.Bio,
		DirectLabelID: artist.LabelRef,
	}), nil
}

// AcceptLabel persists a reconciliation result as the artist's
// canonical label. The write happens only on this explicit call,
// never as a side effect of reconciliation.
func (s *Service) AcceptLabel(ctx context.Context, artistID, labelRef string) (string, error) {
	if s.repo == nil {
		return "", errors.New("artists: no database connection, cannot persist label")
	}

	labelID, ok := s.table.Resolve(labelRef)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrLabelNotFound, labelRef)
	}

	if err := s.repo.UpdateArtistLabel(ctx, artistID, labelID); err != nil {
		return "", err
	}

	s.logger.Info("artist label accepted",
		zap.String("artist_id", artistID),
		zap.String("label_id", labelID))
	return labelID, nil
}

// LabelRoster lists artist IDs under a label, in any reference form.
// The precomputed index serves when populated; otherwise the local
// store is scanned page by page and reconciled.
type LabelRoster struct {
	LabelID   string   `json:"label_id"`
	ArtistIDs []string `json:"artist_ids"`
	// Complete is false when a fallback scan hit its page cap or
	// aborted; the roster is then usable but possibly partial.
	Complete bool `json:"complete"`
	// FromIndex reports whether the precomputed index answered.
	FromIndex bool `json:"from_index"`
}

// ListByLabel resolves the roster of a label reference.
func (s *Service) ListByLabel(ctx context.Context, labelRef string) (*LabelRoster, error) {
	labelID, ok := s.table.Resolve(labelRef)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrLabelNotFound, labelRef)
	}

	members, err := s.index.Members(ctx, labelID, metacache.KindArtist)
	if err != nil {
		s.logger.Warn("artist index read failed, falling back to scan",
			zap.String("label_id", labelID), zap.Error(err))
	}
	if len(members) > 0 {
		return &LabelRoster{LabelID: labelID, ArtistIDs: members, Complete: true, FromIndex: true}, nil
	}

	if s.repo == nil {
		return &LabelRoster{LabelID: labelID, ArtistIDs: []string{}, Complete: true}, nil
	}

	result, err := paginate.Accumulate(ctx,
		func(ctx context.Context, offset, limit int) ([]labels.Entity, error) {
			return s.repo.ListArtistEntities(ctx, offset, limit)
		},
		func(e labels.Entity) string { return e.ID },
		paginate.Options{})
	if err != nil {
		s.logger.Warn("artist scan aborted, returning partial roster",
			zap.String("label_id", labelID),
			zap.Int("pages", result.Pages),
			zap.Error(err))
	}

	roster := &LabelRoster{LabelID: labelID, ArtistIDs: []string{}, Complete: result.Complete}
	for _, entity := range result.Items {
		reconciled := s.engine.Reconcile(entity)
		if err := s.index.Add(ctx, reconciled.LabelID, metacache.KindArtist, entity.ID, float64(time.Now().Unix())); err != nil {
			s.logger.Warn("artist index update failed",
				zap.String("artist_id", entity.ID), zap.Error(err))
		}
		if reconciled.LabelID == labelID {
			roster.ArtistIDs = append(roster.ArtistIDs, entity.ID)
		}
	}
	return roster, nil
}
