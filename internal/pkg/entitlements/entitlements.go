// Package entitlements answers "does this user own this film" and applies
// grants coming out of payment reconciliation.
package entitlements

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/FilmPass/app/models"
	"github.com/ManuelReschke/FilmPass/app/repository"
	"github.com/ManuelReschke/FilmPass/internal/pkg/apperror"
	"github.com/ManuelReschke/FilmPass/internal/pkg/metrics"
)

// Status is the result of an entitlement check
type Status struct {
	Film        *models.Film
	Entitlement *models.Entitlement
}

// HasAccess reports whether an active entitlement was found
func (s *Status) HasAccess() bool {
	return s != nil && s.Entitlement != nil && s.Entitlement.Active
}

// Grant describes a confirmed purchase
type Grant struct {
	UserID      string
	FilmID      uint
	PaymentID   string
	PurchasedAt time.Time
}

type Service struct {
	films        repository.FilmRepository
	entitlements repository.EntitlementRepository
}

func NewService(films repository.FilmRepository, ents repository.EntitlementRepository) *Service {
	return &Service{films: films, entitlements: ents}
}

// ResolveFilm looks a film up by slug. An empty slug is an invalid argument,
// an unknown one is not found.
func (s *Service) ResolveFilm(ctx context.Context, slug string) (*models.Film, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, fmt.Errorf("missing slug: %w", apperror.ErrInvalidArgument)
	}

	film, err := s.films.GetBySlug(ctx, slug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("film %q: %w", slug, apperror.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load film %q: %w", slug, err)
	}
	return film, nil
}

// ActiveFor returns the active entitlement for the pair or nil
func (s *Service) ActiveFor(ctx context.Context, userID string, filmID uint) (*models.Entitlement, error) {
	ent, err := s.entitlements.FindActive(ctx, userID, filmID)
	if err != nil {
		return nil, fmt.Errorf("load entitlement: %w", err)
	}
	return ent, nil
}

// Check resolves the film and the caller's entitlement for it
func (s *Service) Check(ctx context.Context, userID, slug string) (*Status, error) {
	film, err := s.ResolveFilm(ctx, slug)
	if err != nil {
		return nil, err
	}
	ent, err := s.ActiveFor(ctx, userID, film.ID)
	if err != nil {
		return nil, err
	}
	return &Status{Film: film, Entitlement: ent}, nil
}

// RequireActive returns the film when the user holds an active entitlement
// and apperror.ErrForbidden otherwise.
func (s *Service) RequireActive(ctx context.Context, userID, slug string) (*models.Film, error) {
	status, err := s.Check(ctx, userID, slug)
	if err != nil {
		return nil, err
	}
	if !status.HasAccess() {
		return nil, fmt.Errorf("user %s film %s: %w", userID, status.Film.Slug, apperror.ErrForbidden)
	}
	return status.Film, nil
}

// Grant upserts an active entitlement for the pair. Replaying the same grant
// leaves the same single row. An unknown film id yields apperror.ErrNotFound.
func (s *Service) Grant(ctx context.Context, g Grant) error {
	if strings.TrimSpace(g.UserID) == "" || g.FilmID == 0 {
		return fmt.Errorf("grant needs user and film: %w", apperror.ErrInvalidArgument)
	}

	if _, err := s.films.GetByID(ctx, g.FilmID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("film %d: %w", g.FilmID, apperror.ErrNotFound)
		}
		return fmt.Errorf("load film %d: %w", g.FilmID, err)
	}

	purchasedAt := g.PurchasedAt
	if purchasedAt.IsZero() {
		purchasedAt = time.Now()
	}

	err := s.entitlements.Upsert(ctx, &models.Entitlement{
		UserID:          g.UserID,
		FilmID:          g.FilmID,
		Active:          true,
		PurchasedAt:     purchasedAt.UTC(),
		SquarePaymentID: g.PaymentID,
	})
	if err != nil {
		return fmt.Errorf("upsert entitlement: %w", err)
	}
	metrics.EntitlementGrants.Inc()
	return nil
}
