package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/FilmPass/app/models"
)

type webhookEventRepository struct {
	db *gorm.DB
}

// NewWebhookEventRepository creates a new webhook event repository instance
func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepository{db: db}
}

// CreateIfNotExists inserts the event unless (provider, provider_event_id)
// already exists. It always returns the stored row.
func (r *webhookEventRepository) CreateIfNotExists(ctx context.Context, event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	db := r.db.WithContext(ctx)
	tx := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.BillingWebhookEvent
	if err := db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *webhookEventRepository) MarkProcessed(ctx context.Context, id uint, status, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":           status,
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.WithContext(ctx).Model(&models.BillingWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
