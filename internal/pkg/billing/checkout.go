package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/ManuelReschke/FilmPass/app/models"
	"github.com/ManuelReschke/FilmPass/app/repository"
	"github.com/ManuelReschke/FilmPass/internal/pkg/apperror"
	"github.com/ManuelReschke/FilmPass/internal/pkg/config"
	"github.com/ManuelReschke/FilmPass/internal/pkg/entitlements"
	"github.com/ManuelReschke/FilmPass/internal/pkg/identity"
	"github.com/ManuelReschke/FilmPass/internal/pkg/metrics"
	"github.com/ManuelReschke/FilmPass/internal/pkg/square"
)

// Order metadata keys written at checkout and read back during reconciliation
const (
	MetadataUserID = "user_id"
	MetadataFilmID = "film_id"
)

// PaymentLinkCreator is the part of the Square client checkout needs
type PaymentLinkCreator interface {
	CreatePaymentLink(ctx context.Context, in square.CreatePaymentLinkRequest) (*square.PaymentLink, error)
}

// CheckoutResult is returned to the buyer
type CheckoutResult struct {
	CheckoutURL   string
	OrderID       string
	PaymentLinkID string
}

// paymentNote is embedded in the payment as a fallback when order metadata
// does not survive to the webhook
type paymentNote struct {
	UserID string      `json:"userId"`
	FilmID json.Number `json:"filmId"`
}

// CheckoutService creates Square payment links for films
type CheckoutService struct {
	entitlements *entitlements.Service
	pending      repository.PendingOrderRepository
	links        PaymentLinkCreator
	cfg          config.CheckoutConfig
	newKey       func() string
}

func NewCheckoutService(ents *entitlements.Service, pending repository.PendingOrderRepository, links PaymentLinkCreator, cfg config.CheckoutConfig) *CheckoutService {
	return &CheckoutService{
		entitlements: ents,
		pending:      pending,
		links:        links,
		cfg:          cfg,
		newKey:       uuid.NewString,
	}
}

// WithIdempotencyKeys replaces the key generator; tests use it to pin keys
func (s *CheckoutService) WithIdempotencyKeys(gen func() string) *CheckoutService {
	s.newKey = gen
	return s
}

// CreateCheckout starts a purchase of slug for the caller. A buyer who
// already owns the film gets apperror.ErrAlreadyOwned and nothing is written.
func (s *CheckoutService) CreateCheckout(ctx context.Context, buyer identity.Identity, slug string) (*CheckoutResult, error) {
	film, err := s.entitlements.ResolveFilm(ctx, slug)
	if err != nil {
		return nil, err
	}

	// read-then-act: a concurrent checkout can slip through, the webhook upsert
	// makes the second payment land on the same row
	existing, err := s.entitlements.ActiveFor(ctx, buyer.UserID, film.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		metrics.Checkouts.WithLabelValues("already_owned").Inc()
		return nil, fmt.Errorf("user %s film %s: %w", buyer.UserID, film.Slug, apperror.ErrAlreadyOwned)
	}

	req, err := s.buildPaymentLinkRequest(buyer, film)
	if err != nil {
		return nil, err
	}

	link, err := s.links.CreatePaymentLink(ctx, req)
	if err != nil {
		metrics.Checkouts.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("create payment link: %v: %w", err, apperror.ErrPaymentProvider)
	}
	if link == nil || strings.TrimSpace(link.URL) == "" {
		metrics.Checkouts.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("payment link without url: %w", apperror.ErrPaymentProvider)
	}

	order := &models.PendingOrder{
		UserID:              buyer.UserID,
		FilmID:              film.ID,
		SquarePaymentLinkID: link.ID,
		SquareOrderID:       link.OrderID,
	}
	if err := s.pending.Create(ctx, order); err != nil {
		metrics.Checkouts.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("store pending order: %w", err)
	}

	log.Infof("[Checkout] payment link %s created for user %s film %s (order %s)", link.ID, buyer.UserID, film.Slug, link.OrderID)
	metrics.Checkouts.WithLabelValues("created").Inc()

	return &CheckoutResult{
		CheckoutURL:   link.URL,
		OrderID:       link.OrderID,
		PaymentLinkID: link.ID,
	}, nil
}

func (s *CheckoutService) buildPaymentLinkRequest(buyer identity.Identity, film *models.Film) (square.CreatePaymentLinkRequest, error) {
	if strings.TrimSpace(s.cfg.LocationID) == "" {
		return square.CreatePaymentLinkRequest{}, errors.New("SQUARE_LOCATION_ID is not configured")
	}

	filmID := FormatFilmID(film.ID)
	note, err := json.Marshal(paymentNote{UserID: buyer.UserID, FilmID: json.Number(filmID)})
	if err != nil {
		return square.CreatePaymentLinkRequest{}, err
	}

	name := film.Title
	if s.cfg.NamePrefix != "" {
		name = s.cfg.NamePrefix + " - " + film.Title
	}

	req := square.CreatePaymentLinkRequest{
		IdempotencyKey: s.newKey(),
		Description:    "Purchase: " + name,
		Order: &square.Order{
			LocationID: s.cfg.LocationID,
			LineItems: []square.OrderLineItem{{
				Name:     name,
				Quantity: "1",
				BasePriceMoney: square.Money{
					Amount:   film.PriceCents,
					Currency: s.cfg.Currency,
				},
			}},
			Metadata: map[string]string{
				MetadataUserID: buyer.UserID,
				MetadataFilmID: filmID,
			},
		},
		CheckoutOptions: &square.CheckoutOptions{
			RedirectURL:           fmt.Sprintf("%s/watch/%s?success=1", strings.TrimRight(s.cfg.AppURL, "/"), film.Slug),
			AskForShippingAddress: false,
		},
		PaymentNote: string(note),
	}
	if buyer.Email != "" {
		req.PrePopulatedData = &square.PrePopulatedData{BuyerEmail: buyer.Email}
	}
	return req, nil
}
