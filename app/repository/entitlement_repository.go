package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/FilmPass/app/models"
)

// entitlementRepository implements the EntitlementRepository interface
type entitlementRepository struct {
	db *gorm.DB
}

// NewEntitlementRepository creates a new entitlement repository instance
func NewEntitlementRepository(db *gorm.DB) EntitlementRepository {
	return &entitlementRepository{db: db}
}

// FindActive returns the active entitlement for the pair or nil
func (r *entitlementRepository) FindActive(ctx context.Context, userID string, filmID uint) (*models.Entitlement, error) {
	var ent models.Entitlement
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND film_id = ? AND active = ?", userID, filmID, true).
		First(&ent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ent, nil
}

// Upsert inserts the entitlement or updates the existing row for the same
// (user_id, film_id). Applying the same grant twice leaves one identical row.
func (r *entitlementRepository) Upsert(ctx context.Context, entitlement *models.Entitlement) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "film_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"active",
			"purchased_at",
			"square_payment_id",
			"updated_at",
		}),
	}).Create(entitlement).Error
}

// Deactivate flips the active flag off. Rows are kept for audit.
func (r *entitlementRepository) Deactivate(ctx context.Context, userID string, filmID uint) error {
	return r.db.WithContext(ctx).Model(&models.Entitlement{}).
		Where("user_id = ? AND film_id = ?", userID, filmID).
		Updates(map[string]interface{}{
			"active":     false,
			"updated_at": time.Now(),
		}).Error
}
