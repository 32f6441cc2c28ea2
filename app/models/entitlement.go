package models

import "time"

// Entitlement grants one user access to one film. There is at most one row per
// (user_id, film_id); grants are upserts on that pair and rows are never
// deleted, only deactivated.
type Entitlement struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          string    `gorm:"type:varchar(64);not null;index:ux_entitlements_user_film,unique,priority:1" json:"user_id"`
	FilmID          uint      `gorm:"not null;index:ux_entitlements_user_film,unique,priority:2;index" json:"film_id"`
	Active          bool      `gorm:"not null;index" json:"active"`
	PurchasedAt     time.Time `gorm:"type:timestamp;not null" json:"purchased_at"`
	SquarePaymentID string    `gorm:"type:varchar(191);not null;default:'';index" json:"square_payment_id"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
