package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ManuelReschke/FilmPass/app/models"
)

// filmRepository implements the FilmRepository interface
type filmRepository struct {
	db *gorm.DB
}

// NewFilmRepository creates a new film repository instance
func NewFilmRepository(db *gorm.DB) FilmRepository {
	return &filmRepository{db: db}
}

// GetBySlug retrieves a film by its slug. Unknown slugs yield gorm.ErrRecordNotFound.
func (r *filmRepository) GetBySlug(ctx context.Context, slug string) (*models.Film, error) {
	return models.FindFilmBySlug(r.db.WithContext(ctx), slug)
}

// GetByID retrieves a film by its ID
func (r *filmRepository) GetByID(ctx context.Context, id uint) (*models.Film, error) {
	return models.FindFilmByID(r.db.WithContext(ctx), id)
}
