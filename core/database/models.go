package database

import (
	"strings"
	"time"

	"catalog-manager/core/labels"
)

// LabelRow is the 'labels' table: the persisted label definitions
// that seed the normalizer's table.
type LabelRow struct {
	ID      string `gorm:"column:id;primaryKey"`
	Slug    string `gorm:"column:slug"`
	Name    string `gorm:"column:name"`
	Aliases string `gorm:"column:aliases"` // comma-separated keywords
}

// TableName overrides the table name.
func (LabelRow) TableName() string {
	return "labels"
}

// ToLabel converts the row to the normalizer's definition type.
func (r LabelRow) ToLabel() labels.Label {
	var aliases []string
	for _, alias := range strings.Split(r.Aliases, ",") {
		if alias = strings.TrimSpace(alias); alias != "" {
			aliases = append(aliases, alias)
		}
	}
	return labels.Label{
		ID:      r.ID,
		Slug:    r.Slug,
		Name:    r.Name,
		Aliases: aliases,
	}
}

// ArtistRow is the 'artists' table.
type ArtistRow struct {
	ID   string `gorm:"column:id;primaryKey"`
	Name string `gorm:"column:name"`
	Bio  string `gorm:"column:bio"`
	// LabelID is the accepted canonical label; empty when never
	// assigned.
	LabelID string `gorm:"column:label_id"`
}

// TableName overrides the table name.
func (ArtistRow) TableName() string {
	return "artists"
}

// ArtistLabelRow is the 'artist_labels' many-to-many join table.
type ArtistLabelRow struct {
	ArtistID string `gorm:"column:artist_id;primaryKey"`
	LabelID  string `gorm:"column:label_id;primaryKey"`
}

// TableName overrides the table name.
func (ArtistLabelRow) TableName() string {
	return "artist_labels"
}

// ReleaseRow is the 'releases' table.
type ReleaseRow struct {
	ID         string    `gorm:"column:id;primaryKey"`
	Title      string    `gorm:"column:title"`
	LabelID    string    `gorm:"column:label_id"`
	ReleasedAt time.Time `gorm:"column:released_at"`
	// ArtworkKey is the cover-art object key in storage, if any.
	ArtworkKey string `gorm:"column:artwork_key"`
}

// TableName overrides the table name.
func (ReleaseRow) TableName() string {
	return "releases"
}
