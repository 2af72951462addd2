package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupSQLite(t *testing.T) *Repository {
	t.Helper()

	db, err := Connect(Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&LabelRow{}, &ArtistRow{}, &ArtistLabelRow{}, &ReleaseRow{}))

	seed := []any{
		&LabelRow{ID: "1", Slug: "buildit-records", Name: "Build It Records", Aliases: "buildit-records, records"},
		&LabelRow{ID: "2", Slug: "buildit-deep", Name: "Build It Deep", Aliases: "buildit-deep, deep"},
		&ArtistRow{ID: "a1", Name: "Direct Act", Bio: "", LabelID: "1"},
		&ArtistRow{ID: "a2", Name: "Deep Dive", Bio: "member of Build It Deep collective"},
		&ArtistLabelRow{ArtistID: "a2", LabelID: "1"},
		&ArtistLabelRow{ArtistID: "a2", LabelID: "2"},
		&ReleaseRow{ID: "r1", Title: "First EP", LabelID: "2", ReleasedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), ArtworkKey: "artwork/r1.jpg"},
		&ReleaseRow{ID: "r2", Title: "Second EP", LabelID: "2", ReleasedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
		&ReleaseRow{ID: "r3", Title: "Other Label LP", LabelID: "1", ReleasedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, row := range seed {
		require.NoError(t, db.Create(row).Error)
	}

	return NewRepository(db)
}

func TestRepository_LoadLabels(t *testing.T) {
	repo := setupSQLite(t)

	defs, err := repo.LoadLabels(context.Background())
	require.NoError(t, err)
	require.Len(t, defs, 2)

	assert.Equal(t, "1", defs[0].ID)
	assert.Equal(t, "Build It Records", defs[0].Name)
	assert.Equal(t, []string{"buildit-records", "records"}, defs[0].Aliases,
		"comma-separated aliases split and trimmed")
}

func TestRepository_ArtistEntity(t *testing.T) {
	repo := setupSQLite(t)
	ctx := context.Background()

	direct, err := repo.ArtistEntity(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "1", direct.DirectLabelID)
	assert.Empty(t, direct.LinkedLabelIDs)

	linked, err := repo.ArtistEntity(ctx, "a2")
	require.NoError(t, err)
	assert.Empty(t, linked.DirectLabelID)
	assert.Equal(t, []string{"1", "2"}, linked.LinkedLabelIDs)
	assert.Equal(t, "member of Build It Deep collective", linked.Bio)

	_, err = repo.ArtistEntity(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_ListArtistEntitiesPaginates(t *testing.T) {
	repo := setupSQLite(t)
	ctx := context.Background()

	first, err := repo.ListArtistEntities(ctx, 0, 1)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "a1", first[0].ID)

	second, err := repo.ListArtistEntities(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "a2", second[0].ID)

	empty, err := repo.ListArtistEntities(ctx, 2, 1)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRepository_ListReleasesByLabel(t *testing.T) {
	repo := setupSQLite(t)

	rows, err := repo.ListReleasesByLabel(context.Background(), "2", 0, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "r2", rows[0].ID, "newest first")
	assert.Equal(t, "r1", rows[1].ID)
}

func TestRepository_UpdateArtistLabel(t *testing.T) {
	repo := setupSQLite(t)
	ctx := context.Background()

	require.NoError(t, repo.UpdateArtistLabel(ctx, "a2", "2"))

	ent, err := repo.ArtistEntity(ctx, "a2")
	require.NoError(t, err)
	assert.Equal(t, "2", ent.DirectLabelID)

	assert.ErrorIs(t, repo.UpdateArtistLabel(ctx, "ghost", "1"), ErrNotFound)
}

func TestRepository_LoadLabelsQuery(t *testing.T) {
	// Verify the exact query shape against a mocked connection.
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"id", "slug", "name", "aliases"}).
		AddRow("1", "buildit-records", "Build It Records", "records").
		AddRow("2", "buildit-deep", "Build It Deep", "deep")
	mock.ExpectQuery("SELECT \\* FROM `labels` ORDER BY id").WillReturnRows(rows)

	defs, err := NewRepository(gormDB).LoadLabels(context.Background())
	require.NoError(t, err)
	assert.Len(t, defs, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
