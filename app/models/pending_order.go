package models

import "time"

// PendingOrder correlates an in-flight Square payment link with the
// (user, film) pair it should unlock. Several rows for the same pair may exist
// when a buyer restarts checkout.
type PendingOrder struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	UserID              string    `gorm:"type:varchar(64);not null;index:idx_pending_orders_user_film,priority:1" json:"user_id"`
	FilmID              uint      `gorm:"not null;index:idx_pending_orders_user_film,priority:2" json:"film_id"`
	SquarePaymentLinkID string    `gorm:"type:varchar(191);not null;default:''" json:"square_payment_link_id"`
	SquareOrderID       string    `gorm:"type:varchar(191);not null;default:'';index" json:"square_order_id"`
	CreatedAt           time.Time `gorm:"autoCreateTime" json:"created_at"`
}
