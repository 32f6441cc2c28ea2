package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Film is a purchasable content item. The catalog is maintained outside this
// service; FilmPass only reads it.
type Film struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Slug          string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"slug" validate:"required,min=1,max=191"`
	Title         string    `gorm:"type:varchar(255);not null" json:"title" validate:"required,min=1,max=255"`
	PriceCents    int64     `gorm:"not null;default:0" json:"price_cents" validate:"gte=0"`
	MuxPlaybackID string    `gorm:"type:varchar(191);not null;default:''" json:"mux_playback_id"`
	MuxAssetID    string    `gorm:"type:varchar(191);not null;default:''" json:"mux_asset_id"`
	TrailerURL    *string   `gorm:"type:varchar(512);default:null" json:"trailer_url"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (f *Film) Validate() error {
	v := validator.New()
	return v.Struct(f)
}

func FindFilmBySlug(db *gorm.DB, slug string) (*Film, error) {
	var film Film
	err := db.Where("slug = ?", slug).First(&film).Error
	if err != nil {
		return nil, err
	}
	return &film, nil
}

func FindFilmByID(db *gorm.DB, id uint) (*Film, error) {
	var film Film
	err := db.First(&film, id).Error
	if err != nil {
		return nil, err
	}
	return &film, nil
}
