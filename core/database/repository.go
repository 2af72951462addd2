package database

import (
	"context"
	"errors"
	"fmt"

	"catalog-manager/core/labels"

	"gorm.io/gorm"
)

// ErrNotFound reports that a requested row does not exist.
var ErrNotFound = errors.New("database: not found")

// Repository is the narrow read/write surface the core needs from the
// relational system of record.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a repository over the given connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LoadLabels reads the persisted label definitions that seed the
// normalizer's table.
func (r *Repository) LoadLabels(ctx context.Context) ([]labels.Label, error) {
	var rows []LabelRow
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load labels: %w", err)
	}

	defs := make([]labels.Label, 0, len(rows))
	for _, row := range rows {
		defs = append(defs, row.ToLabel())
	}
	return defs, nil
}

// ArtistEntity assembles the label-reconciliation projection for one
// artist: its text plus the direct and join-table label candidates.
func (r *Repository) ArtistEntity(ctx context.Context, artistID string) (labels.Entity, error) {
	var artist ArtistRow
	err := r.db.WithContext(ctx).First(&artist, "id = ?", artistID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return labels.Entity{}, fmt.Errorf("%w: artist %s", ErrNotFound, artistID)
	}
	if err != nil {
		return labels.Entity{}, fmt.Errorf("load artist %s: %w", artistID, err)
	}

	links, err := r.artistLinks(ctx, artistID)
	if err != nil {
		return labels.Entity{}, err
	}

	return labels.Entity{
		ID:             artist.ID,
		Name:           artist.Name,
		Bio:            artist.Bio,
		DirectLabelID:  artist.LabelID,
		LinkedLabelIDs: links,
	}, nil
}

// ListArtistEntities pages through all artists as reconciliation
// projections. It is the local paginated source for batch runs.
func (r *Repository) ListArtistEntities(ctx context.Context, offset, limit int) ([]labels.Entity, error) {
	var artists []ArtistRow
	err := r.db.WithContext(ctx).
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&artists).Error
	if err != nil {
		return nil, fmt.Errorf("list artists: %w", err)
	}

	entities := make([]labels.Entity, 0, len(artists))
	for _, artist := range artists {
		links, err := r.artistLinks(ctx, artist.ID)
		if err != nil {
			return nil, err
		}
		entities = append(entities, labels.Entity{
			ID:             artist.ID,
			Name:           artist.Name,
			Bio:            artist.Bio,
			DirectLabelID:  artist.LabelID,
			LinkedLabelIDs: links,
		})
	}
	return entities, nil
}

func (r *Repository) artistLinks(ctx context.Context, artistID string) ([]string, error) {
	var links []ArtistLabelRow
	err := r.db.WithContext(ctx).
		Order("label_id").
		Find(&links, "artist_id = ?", artistID).Error
	if err != nil {
		return nil, fmt.Errorf("load artist links %s: %w", artistID, err)
	}

	ids := make([]string, 0, len(links))
	for _, link := range links {
		ids = append(ids, link.LabelID)
	}
	return ids, nil
}

// UpdateArtistLabel persists an accepted reconciliation result as the
// artist's canonical label. Only called after a caller explicitly
// confirms; reconciliation itself never writes.
func (r *Repository) UpdateArtistLabel(ctx context.Context, artistID, labelID string) error {
	result := r.db.WithContext(ctx).
		Model(&ArtistRow{}).
		Where("id = ?", artistID).
		Update("label_id", labelID)
	if result.Error != nil {
		return fmt.Errorf("update artist %s label: %w", artistID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: artist %s", ErrNotFound, artistID)
	}
	return nil
}

// ListReleasesByLabel pages releases for one canonical label, newest
// first. It is the local paginated source for label-scoped listings.
func (r *Repository) ListReleasesByLabel(ctx context.Context, labelID string, offset, limit int) ([]ReleaseRow, error) {
	var rows []ReleaseRow
	err := r.db.WithContext(ctx).
		Where("label_id = ?", labelID).
		Order("released_at DESC, id").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list releases for label %s: %w", labelID, err)
	}
	return rows, nil
}

// ListReleases pages through all releases regardless of label. Used by
// integrity sweeps over the whole catalog.
func (r *Repository) ListReleases(ctx context.Context, offset, limit int) ([]ReleaseRow, error) {
	var rows []ReleaseRow
	err := r.db.WithContext(ctx).
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list releases: %w", err)
	}
	return rows, nil
}

// Release loads one release row.
func (r *Repository) Release(ctx context.Context, releaseID string) (*ReleaseRow, error) {
	var row ReleaseRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", releaseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: release %s", ErrNotFound, releaseID)
	}
	if err != nil {
		return nil, fmt.Errorf("load release %s: %w", releaseID, err)
	}
	return &row, nil
}
