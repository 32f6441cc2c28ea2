// Package testutil provides shared helpers for package tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ManuelReschke/FilmPass/app/models"
	"github.com/ManuelReschke/FilmPass/internal/pkg/database"
)

// NewTestDB returns an isolated in-memory SQLite database with all FilmPass
// tables migrated. The connection is closed when the test ends.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every pooled connection would otherwise see its own empty memory database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// SeedFilm inserts a film with sensible defaults for slug
func SeedFilm(t *testing.T, db *gorm.DB, slug string) *models.Film {
	t.Helper()

	trailer := "https://example.com/trailers/" + slug + ".mp4"
	film := &models.Film{
		Slug:          slug,
		Title:         "T.O.N.Y. Season 1",
		PriceCents:    1499,
		MuxPlaybackID: "playback-" + slug,
		MuxAssetID:    "asset-" + slug,
		TrailerURL:    &trailer,
	}
	require.NoError(t, db.Create(film).Error)
	return film
}

// CountRows counts the rows of model matching the optional where clause
func CountRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()

	var count int64
	tx := db.Model(model)
	if query != "" {
		tx = tx.Where(query, args...)
	}
	require.NoError(t, tx.Count(&count).Error)
	return count
}
