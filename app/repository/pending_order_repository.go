package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ManuelReschke/FilmPass/app/models"
)

// pendingOrderRepository implements the PendingOrderRepository interface
type pendingOrderRepository struct {
	db *gorm.DB
}

// NewPendingOrderRepository creates a new pending order repository instance
func NewPendingOrderRepository(db *gorm.DB) PendingOrderRepository {
	return &pendingOrderRepository{db: db}
}

// Create stores a new pending order
func (r *pendingOrderRepository) Create(ctx context.Context, order *models.PendingOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// GetByOrderID returns the newest pending order for a Square order id or nil
func (r *pendingOrderRepository) GetByOrderID(ctx context.Context, orderID string) (*models.PendingOrder, error) {
	if orderID == "" {
		return nil, nil
	}
	var order models.PendingOrder
	err := r.db.WithContext(ctx).
		Where("square_order_id = ?", orderID).
		Order("created_at DESC").
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// DeleteByUserAndFilm drains every pending order for the pair
func (r *pendingOrderRepository) DeleteByUserAndFilm(ctx context.Context, userID string, filmID uint) (int64, error) {
	tx := r.db.WithContext(ctx).
		Where("user_id = ? AND film_id = ?", userID, filmID).
		Delete(&models.PendingOrder{})
	return tx.RowsAffected, tx.Error
}
