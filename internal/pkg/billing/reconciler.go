package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/FilmPass/app/models"
	"github.com/ManuelReschke/FilmPass/app/repository"
	"github.com/ManuelReschke/FilmPass/internal/pkg/apperror"
	"github.com/ManuelReschke/FilmPass/internal/pkg/config"
	"github.com/ManuelReschke/FilmPass/internal/pkg/entitlements"
	"github.com/ManuelReschke/FilmPass/internal/pkg/metrics"
	"github.com/ManuelReschke/FilmPass/internal/pkg/square"
	"github.com/ManuelReschke/FilmPass/internal/pkg/telemetry"
)

const ProviderSquare = "square"

// Acknowledgement statuses returned to Square. All of them are sent with 200.
const (
	AckIgnored            = "ignored"
	AckInvalidPayload     = "invalid_payload"
	AckMissingMetadata    = "missing_metadata"
	AckEntitlementCreated = "entitlement_created"
	AckDuplicate          = "duplicate"
)

// Ack is the JSON body returned for every delivery that should not be retried
type Ack struct {
	Received  bool   `json:"received"`
	Status    string `json:"status,omitempty"`
	EventType string `json:"eventType,omitempty"`
	UserID    string `json:"userId,omitempty"`
	FilmID    uint   `json:"filmId,omitempty"`
}

// Reconciler turns Square payment webhooks into entitlements. Deliveries are
// at-least-once; every path is safe to replay.
type Reconciler struct {
	cfg          config.WebhookConfig
	entitlements *entitlements.Service
	pending      repository.PendingOrderRepository
	events       repository.WebhookEventRepository
	resolvers    []Resolver
	now          func() time.Time
}

func NewReconciler(
	cfg config.WebhookConfig,
	ents *entitlements.Service,
	pending repository.PendingOrderRepository,
	events repository.WebhookEventRepository,
	resolvers ...Resolver,
) *Reconciler {
	return &Reconciler{
		cfg:          cfg,
		entitlements: ents,
		pending:      pending,
		events:       events,
		resolvers:    resolvers,
		now:          time.Now,
	}
}

// DefaultResolvers returns the resolution order used in production: the
// pending order ledger, the order metadata on Square, then the payment note.
func DefaultResolvers(pending repository.PendingOrderRepository, orders OrderRetriever) []Resolver {
	return []Resolver{
		PendingOrderResolver{Orders: pending},
		OrderMetadataResolver{Orders: orders},
		PaymentNoteResolver{},
	}
}

// HandleWebhook processes one delivery. A returned error wrapping
// apperror.ErrInvalidSignature means 401; any other error means the delivery
// must be retried. Everything else is acknowledged.
func (r *Reconciler) HandleWebhook(ctx context.Context, body []byte, signature string) (*Ack, error) {
	if r.cfg.VerifySignature && !square.VerifyWebhookSignature(r.cfg.SignatureKey, r.cfg.NotificationURL, body, signature) {
		metrics.WebhookOutcomes.WithLabelValues("invalid_signature").Inc()
		log.Warn("[Webhook] rejected delivery with invalid signature")
		return nil, fmt.Errorf("square webhook: %w", apperror.ErrInvalidSignature)
	}

	event, err := square.ParseWebhookEvent(body)
	if err != nil {
		log.Warnf("[Webhook] undecodable payload: %v", err)
		return r.ack(AckInvalidPayload, &Ack{Received: true, Status: AckInvalidPayload}), nil
	}

	if !square.IsPaymentEvent(event.Type) {
		log.Infof("[Webhook] acknowledged %s without action", event.Type)
		metrics.WebhookOutcomes.WithLabelValues("other_event").Inc()
		return &Ack{Received: true, EventType: event.Type}, nil
	}

	payment := event.Payment()
	if payment == nil {
		log.Warnf("[Webhook] %s %s carries no payment object", event.Type, event.EventID)
		return r.ack(AckIgnored, &Ack{Received: true, Status: AckIgnored, EventType: event.Type}), nil
	}
	if payment.Status != square.PaymentStatusCompleted {
		log.Infof("[Webhook] payment %s not completed (status %s)", payment.ID, payment.Status)
		return r.ack(AckIgnored, &Ack{Received: true, Status: AckIgnored, EventType: event.Type}), nil
	}

	record := &models.BillingWebhookEvent{
		Provider:        ProviderSquare,
		ProviderEventID: eventKey(event, body),
		EventType:       event.Type,
		PaymentID:       payment.ID,
		PayloadJSON:     string(body),
		SignatureValid:  r.cfg.VerifySignature,
		Status:          models.WebhookStatusReceived,
	}
	_, stored, err := r.events.CreateIfNotExists(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("record webhook event: %w", err)
	}
	if stored.ProcessedAt != nil && stored.ProcessingError == "" && stored.Status == models.WebhookStatusEntitlementCreated {
		log.Infof("[Webhook] event %s already processed", stored.ProviderEventID)
		return r.ack(AckDuplicate, &Ack{Received: true, Status: AckDuplicate, EventType: event.Type}), nil
	}

	purchase, source, err := ResolvePurchase(ctx, r.resolvers, payment)
	if err != nil {
		r.markFailed(ctx, stored.ID, err)
		return nil, err
	}
	if purchase == nil {
		return r.missingMetadata(ctx, stored.ID, event, payment, "no resolver matched"), nil
	}

	grant := entitlements.Grant{
		UserID:      purchase.UserID,
		FilmID:      purchase.FilmID,
		PaymentID:   payment.ID,
		PurchasedAt: r.purchasedAt(payment),
	}
	if err := r.entitlements.Grant(ctx, grant); err != nil {
		if errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrInvalidArgument) {
			return r.missingMetadata(ctx, stored.ID, event, payment, err.Error()), nil
		}
		r.markFailed(ctx, stored.ID, err)
		return nil, fmt.Errorf("grant entitlement: %w", err)
	}

	if n, err := r.pending.DeleteByUserAndFilm(ctx, purchase.UserID, purchase.FilmID); err != nil {
		log.Warnf("[Webhook] could not drain pending orders for user %s film %d: %v", purchase.UserID, purchase.FilmID, err)
	} else if n > 0 {
		log.Debugf("[Webhook] drained %d pending order(s) for user %s film %d", n, purchase.UserID, purchase.FilmID)
	}

	if err := r.events.MarkProcessed(ctx, stored.ID, models.WebhookStatusEntitlementCreated, ""); err != nil {
		log.Warnf("[Webhook] could not mark event %d processed: %v", stored.ID, err)
	}

	log.Infof("[Webhook] entitlement created for user %s on film %d via %s (payment %s)", purchase.UserID, purchase.FilmID, source, payment.ID)
	return r.ack(AckEntitlementCreated, &Ack{
		Received:  true,
		Status:    AckEntitlementCreated,
		EventType: event.Type,
		UserID:    purchase.UserID,
		FilmID:    purchase.FilmID,
	}), nil
}

func (r *Reconciler) missingMetadata(ctx context.Context, eventID uint, event *square.WebhookEvent, payment *square.Payment, reason string) *Ack {
	log.Warnf("[Webhook] could not determine user or film for payment %s: %s", payment.ID, reason)
	telemetry.CaptureMessage("square payment without resolvable purchase", map[string]string{
		"payment_id": payment.ID,
		"event_id":   event.EventID,
	})
	if err := r.events.MarkProcessed(ctx, eventID, models.WebhookStatusMissingMetadata, "missing metadata: "+reason); err != nil {
		log.Warnf("[Webhook] could not mark event %d: %v", eventID, err)
	}
	return r.ack(AckMissingMetadata, &Ack{Received: true, Status: AckMissingMetadata, EventType: event.Type})
}

func (r *Reconciler) markFailed(ctx context.Context, eventID uint, cause error) {
	metrics.WebhookOutcomes.WithLabelValues("error").Inc()
	if err := r.events.MarkProcessed(ctx, eventID, models.WebhookStatusFailed, cause.Error()); err != nil {
		log.Warnf("[Webhook] could not mark event %d failed: %v", eventID, err)
	}
}

func (r *Reconciler) ack(outcome string, a *Ack) *Ack {
	metrics.WebhookOutcomes.WithLabelValues(outcome).Inc()
	return a
}

// purchasedAt uses the payment's creation time so a redelivered event writes
// the same row.
func (r *Reconciler) purchasedAt(payment *square.Payment) time.Time {
	if t, err := time.Parse(time.RFC3339, payment.CreatedAt); err == nil {
		return t.UTC()
	}
	return r.now().UTC()
}

// eventKey identifies a delivery for dedupe. Square always sends event_id;
// the body hash only covers hand-crafted test deliveries.
func eventKey(event *square.WebhookEvent, body []byte) string {
	if event.EventID != "" {
		return event.EventID
	}
	sum := sha256.Sum256(body)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// FormatFilmID renders a film id the way it is stored in order metadata
func FormatFilmID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
