package integrity

import (
	"context"
	"fmt"

	"catalog-manager/core/database"
	"catalog-manager/core/labels"
	"catalog-manager/core/paginate"
	"catalog-manager/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Service sweeps the catalog for inconsistencies between the
// relational store, the label table, and the artwork bucket.
type Service struct {
	client storage.Client
	bucket string
	repo   *database.Repository
	table  labels.Table
	engine *labels.Engine
	logger *zap.Logger
}

// NewService creates a new integrity service.
func NewService(client storage.Client, bucket string, repo *database.Repository, table labels.Table, engine *labels.Engine, logger *zap.Logger) *Service {
	return &Service{
		client: client,
		bucket: bucket,
		repo:   repo,
		table:  table,
		engine: engine,
		logger: logger,
	}
}

// ArtworkReport lists releases whose stored artwork reference is
// broken.
type ArtworkReport struct {
	// Checked is how many releases carry an artwork key.
	Checked int `json:"checked"`
	// Missing lists release IDs whose artwork object is absent from
	// the bucket.
	Missing []string `json:"missing"`
	// Complete is false when the release sweep was cut short.
	Complete bool `json:"complete"`
}

// CheckArtwork verifies that every release with an artwork key has its
// object in the bucket.
func (s *Service) CheckArtwork(ctx context.Context) (*ArtworkReport, error) {
	if s.client == nil {
		return nil, fmt.Errorf("integrity: no object storage configured")
	}
	if s.repo == nil {
		return nil, fmt.Errorf("integrity: no database configured")
	}

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return nil, fmt.Errorf("integrity: check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		return nil, fmt.Errorf("integrity: bucket %s does not exist", s.bucket)
	}

	result, err := paginate.Accumulate(ctx,
		func(ctx context.Context, offset, limit int) ([]database.ReleaseRow, error) {
			return s.repo.ListReleases(ctx, offset, limit)
		},
		func(r database.ReleaseRow) string { return r.ID },
		paginate.Options{})
	if err != nil {
		s.logger.Warn("release sweep aborted, reporting partial artwork check",
			zap.Int("pages", result.Pages), zap.Error(err))
	}

	report := &ArtworkReport{Missing: []string{}, Complete: result.Complete}
	for _, row := range result.Items {
		if row.ArtworkKey == "" {
			continue
		}
		report.Checked++
		if _, err := s.client.StatObject(ctx, s.bucket, row.ArtworkKey, minio.StatObjectOptions{}); err != nil {
			report.Missing = append(report.Missing, row.ID)
		}
	}
	return report, nil
}

// LabelReport lists rows whose label references do not resolve
// against the label table.
type LabelReport struct {
	// Artists is how many artists were examined.
	Artists int `json:"artists"`
	// OrphanArtists lists artists whose stored label reference
	// resolves to nothing.
	OrphanArtists []string `json:"orphan_artists"`
	// Unassigned lists artists that reconcile only through the
	// configured default, meaning no structured or textual evidence
	// ties them to a label.
	Unassigned []string `json:"unassigned"`
	// Releases is how many releases were examined.
	Releases int `json:"releases"`
	// OrphanReleases lists releases whose label reference resolves to
	// nothing.
	OrphanReleases []string `json:"orphan_releases"`
	// Complete is false when either sweep was cut short.
	Complete bool `json:"complete"`
}

// CheckLabels sweeps artists and releases for label references that
// fell out of the label table.
func (s *Service) CheckLabels(ctx context.Context) (*LabelReport, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("integrity: no database configured")
	}

	report := &LabelReport{
		OrphanArtists:  []string{},
		Unassigned:     []string{},
		OrphanReleases: []string{},
	}

	artists, err := paginate.Accumulate(ctx,
		func(ctx context.Context, offset, limit int) ([]labels.Entity, error) {
			return s.repo.ListArtistEntities(ctx, offset, limit)
		},
		func(e labels.Entity) string { return e.ID },
		paginate.Options{})
	if err != nil {
		s.logger.Warn("artist sweep aborted, reporting partial label check",
			zap.Int("pages", artists.Pages), zap.Error(err))
	}

	for _, ent := range artists.Items {
		report.Artists++
		if ent.DirectLabelID != "" {
			if _, ok := s.table.Resolve(ent.DirectLabelID); !ok {
				report.OrphanArtists = append(report.OrphanArtists, ent.ID)
			}
		}
		if s.engine.Reconcile(ent).Strategy == labels.StrategyDefault {
			report.Unassigned = append(report.Unassigned, ent.ID)
		}
	}

	releases, err := paginate.Accumulate(ctx,
		func(ctx context.Context, offset, limit int) ([]database.ReleaseRow, error) {
			return s.repo.ListReleases(ctx, offset, limit)
		},
		func(r database.ReleaseRow) string { return r.ID },
		paginate.Options{})
	if err != nil {
		s.logger.Warn("release sweep aborted, reporting partial label check",
			zap.Int("pages", releases.Pages), zap.Error(err))
	}

	for _, row := range releases.Items {
		report.Releases++
		if row.LabelID == "" {
			continue
		}
		if _, ok := s.table.Resolve(row.LabelID); !ok {
			report.OrphanReleases = append(report.OrphanReleases, row.ID)
		}
	}

	report.Complete = artists.Complete && releases.Complete
	return report, nil
}
