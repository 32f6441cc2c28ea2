package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/FilmPass/app/models"
	"github.com/ManuelReschke/FilmPass/internal/pkg/apperror"
	"github.com/ManuelReschke/FilmPass/internal/pkg/square"
)

func paymentEvent(eventID, eventType, status, orderID, note string) []byte {
	return []byte(fmt.Sprintf(`{
		"merchant_id": "MERCHANT",
		"type": %q,
		"event_id": %q,
		"created_at": "2026-03-01T12:00:00Z",
		"data": {
			"type": "payment",
			"id": "pay-1",
			"object": {
				"payment": {
					"id": "pay-1",
					"status": %q,
					"order_id": %q,
					"note": %q,
					"created_at": "2026-03-01T11:59:00Z"
				}
			}
		}
	}`, eventType, eventID, status, orderID, note))
}

func sign(body []byte) string {
	return square.ComputeSignature(testSignatureKey, testNotificationURL, body)
}

func TestHandleWebhook_GrantsAndDrainsPendingOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repos.PendingOrder.Create(ctx, &models.PendingOrder{UserID: "user-1", FilmID: f.film.ID, SquarePaymentLinkID: "link-1", SquareOrderID: "order-1"}))

	body := paymentEvent("evt-1", square.EventPaymentUpdated, square.PaymentStatusCompleted, "order-1", "")
	ack, err := f.reconciler(true, &fakeOrders{}).HandleWebhook(ctx, body, sign(body))
	require.NoError(t, err)

	assert.True(t, ack.Received)
	assert.Equal(t, AckEntitlementCreated, ack.Status)
	assert.Equal(t, "user-1", ack.UserID)
	assert.Equal(t, f.film.ID, ack.FilmID)

	ent, err := f.repos.Entitlement.FindActive(ctx, "user-1", f.film.ID)
	require.NoError(t, err)
	require.NotNil(t, ent)
	assert.Equal(t, "pay-1", ent.SquarePaymentID)
	assert.Equal(t, 2026, ent.PurchasedAt.Year())

	assert.Equal(t, int64(0), f.count(t, &models.PendingOrder{}))

	var event models.BillingWebhookEvent
	require.NoError(t, f.db.First(&event).Error)
	assert.Equal(t, "evt-1", event.ProviderEventID)
	assert.Equal(t, models.WebhookStatusEntitlementCreated, event.Status)
	assert.NotNil(t, event.ProcessedAt)
	assert.True(t, event.SignatureValid)
}

func TestHandleWebhook_RedeliveryIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := f.reconciler(true, &fakeOrders{})
	note := fmt.Sprintf(`{"userId":"user-1","filmId":%d}`, f.film.ID)
	body := paymentEvent("evt-1", square.EventPaymentCompleted, square.PaymentStatusCompleted, "", note)

	first, err := rec.HandleWebhook(ctx, body, sign(body))
	require.NoError(t, err)
	assert.Equal(t, AckEntitlementCreated, first.Status)

	var before models.Entitlement
	require.NoError(t, f.db.First(&before).Error)

	second, err := rec.HandleWebhook(ctx, body, sign(body))
	require.NoError(t, err)
	assert.Equal(t, AckDuplicate, second.Status)

	// a second event for the same payment reaches the upsert and changes nothing
	other := paymentEvent("evt-2", square.EventPaymentUpdated, square.PaymentStatusCompleted, "", note)
	third, err := rec.HandleWebhook(ctx, other, sign(other))
	require.NoError(t, err)
	assert.Equal(t, AckEntitlementCreated, third.Status)

	var after models.Entitlement
	require.NoError(t, f.db.First(&after).Error)
	assert.Equal(t, int64(1), f.count(t, &models.Entitlement{}))
	assert.Equal(t, before.ID, after.ID)
	assert.True(t, after.Active)
	assert.Equal(t, before.SquarePaymentID, after.SquarePaymentID)
	assert.True(t, before.PurchasedAt.Equal(after.PurchasedAt))
}

func TestHandleWebhook_InvalidSignatureWritesNothing(t *testing.T) {
	f := newFixture(t)
	body := paymentEvent("evt-1", square.EventPaymentCompleted, square.PaymentStatusCompleted, "", fmt.Sprintf(`{"userId":"user-1","filmId":%d}`, f.film.ID))

	for _, sig := range []string{"", "bm90LWEtc2lnbmF0dXJl", sign([]byte("other body"))} {
		ack, err := f.reconciler(true, &fakeOrders{}).HandleWebhook(context.Background(), body, sig)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperror.ErrInvalidSignature))
		assert.Equal(t, 401, apperror.Status(err))
		assert.Nil(t, ack)
	}

	assert.Equal(t, int64(0), f.count(t, &models.Entitlement{}))
	assert.Equal(t, int64(0), f.count(t, &models.BillingWebhookEvent{}))
}

func TestHandleWebhook_SkipSignatureWhenVerificationOff(t *testing.T) {
	f := newFixture(t)
	body := paymentEvent("evt-1", square.EventPaymentCompleted, square.PaymentStatusCompleted, "", fmt.Sprintf(`{"userId":"user-1","filmId":%d}`, f.film.ID))

	ack, err := f.reconciler(false, &fakeOrders{}).HandleWebhook(context.Background(), body, "")
	require.NoError(t, err)
	assert.Equal(t, AckEntitlementCreated, ack.Status)

	var event models.BillingWebhookEvent
	require.NoError(t, f.db.First(&event).Error)
	assert.False(t, event.SignatureValid)
}

func TestHandleWebhook_NoActionOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		body       []byte
		wantStatus string
		wantType   string
	}{
		{
			name:     "other event type",
			body:     []byte(`{"type":"refund.created","event_id":"evt-9","data":{"object":{}}}`),
			wantType: "refund.created",
		},
		{
			name:       "payment not completed",
			body:       paymentEvent("evt-1", square.EventPaymentUpdated, square.PaymentStatusApproved, "order-1", ""),
			wantStatus: AckIgnored,
			wantType:   square.EventPaymentUpdated,
		},
		{
			name:       "payment object missing",
			body:       []byte(`{"type":"payment.completed","event_id":"evt-3","data":{"object":{}}}`),
			wantStatus: AckIgnored,
			wantType:   square.EventPaymentCompleted,
		},
		{
			name:       "malformed payload",
			body:       []byte(`{"type":`),
			wantStatus: AckInvalidPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ack, err := f.reconciler(true, &fakeOrders{}).HandleWebhook(context.Background(), tt.body, sign(tt.body))
			require.NoError(t, err)
			assert.True(t, ack.Received)
			assert.Equal(t, tt.wantStatus, ack.Status)
			assert.Equal(t, tt.wantType, ack.EventType)

			assert.Equal(t, int64(0), f.count(t, &models.Entitlement{}))
			assert.Equal(t, int64(0), f.count(t, &models.BillingWebhookEvent{}))
		})
	}
}

func TestHandleWebhook_MissingMetadata(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	body := paymentEvent("evt-1", square.EventPaymentCompleted, square.PaymentStatusCompleted, "order-unknown", "thanks for watching!")

	ack, err := f.reconciler(true, &fakeOrders{}).HandleWebhook(ctx, body, sign(body))
	require.NoError(t, err)
	assert.True(t, ack.Received)
	assert.Equal(t, AckMissingMetadata, ack.Status)
	assert.Equal(t, int64(0), f.count(t, &models.Entitlement{}))

	var event models.BillingWebhookEvent
	require.NoError(t, f.db.First(&event).Error)
	assert.Equal(t, models.WebhookStatusMissingMetadata, event.Status)
	assert.Contains(t, event.ProcessingError, "missing metadata")
}

func TestHandleWebhook_UnknownFilmIsMissingMetadata(t *testing.T) {
	f := newFixture(t)
	body := paymentEvent("evt-1", square.EventPaymentCompleted, square.PaymentStatusCompleted, "", `{"userId":"user-1","filmId":4242}`)

	ack, err := f.reconciler(true, &fakeOrders{}).HandleWebhook(context.Background(), body, sign(body))
	require.NoError(t, err)
	assert.Equal(t, AckMissingMetadata, ack.Status)
	assert.Equal(t, int64(0), f.count(t, &models.Entitlement{}))
}

func TestHandleWebhook_ResolvesFromOrderMetadata(t *testing.T) {
	f := newFixture(t)
	orders := &fakeOrders{orders: map[string]*square.Order{
		"order-7": {ID: "order-7", Metadata: map[string]string{MetadataUserID: "user-7", MetadataFilmID: FormatFilmID(f.film.ID)}},
	}}
	body := paymentEvent("evt-1", square.EventPaymentCompleted, square.PaymentStatusCompleted, "order-7", "")

	ack, err := f.reconciler(true, orders).HandleWebhook(context.Background(), body, sign(body))
	require.NoError(t, err)
	assert.Equal(t, AckEntitlementCreated, ack.Status)
	assert.Equal(t, "user-7", ack.UserID)
}

func TestHandleWebhook_ProcessorErrorAsksForRetry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	body := paymentEvent("evt-1", square.EventPaymentCompleted, square.PaymentStatusCompleted, "order-1", "")

	_, err := f.reconciler(true, &fakeOrders{err: errBoom}).HandleWebhook(ctx, body, sign(body))
	require.Error(t, err)
	assert.Equal(t, 500, apperror.Status(err))

	var event models.BillingWebhookEvent
	require.NoError(t, f.db.First(&event).Error)
	assert.Equal(t, models.WebhookStatusFailed, event.Status)

	// the retry is processed once the ledger row shows up
	require.NoError(t, f.repos.PendingOrder.Create(ctx, &models.PendingOrder{UserID: "user-1", FilmID: f.film.ID, SquareOrderID: "order-1"}))
	ack, err := f.reconciler(true, &fakeOrders{err: errBoom}).HandleWebhook(ctx, body, sign(body))
	require.NoError(t, err)
	assert.Equal(t, AckEntitlementCreated, ack.Status)
}

func TestHandleWebhook_ProcessorErrorFallsBackToNote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	note := fmt.Sprintf(`{"userId":"user-1","filmId":%d}`, f.film.ID)
	body := paymentEvent("evt-1", square.EventPaymentCompleted, square.PaymentStatusCompleted, "order-x", note)

	ack, err := f.reconciler(true, &fakeOrders{err: errBoom}).HandleWebhook(ctx, body, sign(body))
	require.NoError(t, err)
	assert.Equal(t, AckEntitlementCreated, ack.Status)
	assert.Equal(t, "user-1", ack.UserID)

	ent, err := f.repos.Entitlement.FindActive(ctx, "user-1", f.film.ID)
	require.NoError(t, err)
	require.NotNil(t, ent)
}
