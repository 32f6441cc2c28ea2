package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/FilmPass/app/models"
)

type downloadLogRepository struct {
	db *gorm.DB
}

// NewDownloadLogRepository creates a new download log repository instance
func NewDownloadLogRepository(db *gorm.DB) DownloadLogRepository {
	return &downloadLogRepository{db: db}
}

func (r *downloadLogRepository) Append(ctx context.Context, entry *models.DownloadLog) error {
	if entry.DownloadedAt.IsZero() {
		entry.DownloadedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}
