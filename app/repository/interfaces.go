package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ManuelReschke/FilmPass/app/models"
)

// FilmRepository defines read access to the film catalog
type FilmRepository interface {
	GetBySlug(ctx context.Context, slug string) (*models.Film, error)
	GetByID(ctx context.Context, id uint) (*models.Film, error)
}

// EntitlementRepository defines the interface for entitlement operations.
// FindActive returns (nil, nil) when the user owns nothing for the film.
type EntitlementRepository interface {
	FindActive(ctx context.Context, userID string, filmID uint) (*models.Entitlement, error)
	Upsert(ctx context.Context, entitlement *models.Entitlement) error
	Deactivate(ctx context.Context, userID string, filmID uint) error
}

// PendingOrderRepository defines the interface for the pending order ledger.
// GetByOrderID returns (nil, nil) when no row carries the order id.
type PendingOrderRepository interface {
	Create(ctx context.Context, order *models.PendingOrder) error
	GetByOrderID(ctx context.Context, orderID string) (*models.PendingOrder, error)
	DeleteByUserAndFilm(ctx context.Context, userID string, filmID uint) (int64, error)
}

// DownloadLogRepository appends download audit entries
type DownloadLogRepository interface {
	Append(ctx context.Context, entry *models.DownloadLog) error
}

// WebhookEventRepository stores provider webhook deliveries for dedupe and
// operator follow-up
type WebhookEventRepository interface {
	CreateIfNotExists(ctx context.Context, event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error)
	MarkProcessed(ctx context.Context, id uint, status, processingError string) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	Film         FilmRepository
	Entitlement  EntitlementRepository
	PendingOrder PendingOrderRepository
	DownloadLog  DownloadLogRepository
	WebhookEvent WebhookEventRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Film:         NewFilmRepository(db),
		Entitlement:  NewEntitlementRepository(db),
		PendingOrder: NewPendingOrderRepository(db),
		DownloadLog:  NewDownloadLogRepository(db),
		WebhookEvent: NewWebhookEventRepository(db),
	}
}
