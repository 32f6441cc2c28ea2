package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/FilmPass/app/models"
	"github.com/ManuelReschke/FilmPass/app/repository"
	"github.com/ManuelReschke/FilmPass/internal/pkg/testutil"
)

func TestWebhookEventRepository_CreateIfNotExists(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewWebhookEventRepository(db)
	ctx := context.Background()

	newEvent := func() *models.BillingWebhookEvent {
		return &models.BillingWebhookEvent{
			Provider:        "square",
			ProviderEventID: "evt-1",
			EventType:       "payment.updated",
			PayloadJSON:     `{"event_id":"evt-1"}`,
			SignatureValid:  true,
			Status:          models.WebhookStatusReceived,
		}
	}

	created, stored, err := repo.CreateIfNotExists(ctx, newEvent())
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, stored)
	assert.Nil(t, stored.ProcessedAt)

	require.NoError(t, repo.MarkProcessed(ctx, stored.ID, models.WebhookStatusEntitlementCreated, ""))

	created, again, err := repo.CreateIfNotExists(ctx, newEvent())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, stored.ID, again.ID)
	assert.NotNil(t, again.ProcessedAt)
	assert.Equal(t, models.WebhookStatusEntitlementCreated, again.Status)
	assert.Equal(t, int64(1), testutil.CountRows(t, db, &models.BillingWebhookEvent{}, ""))
}
