package billing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/FilmPass/app/models"
	"github.com/ManuelReschke/FilmPass/internal/pkg/square"
)

func TestPaymentNoteResolver(t *testing.T) {
	tests := []struct {
		name string
		note string
		want *Purchase
	}{
		{"numeric film id", `{"userId":"user-1","filmId":7}`, &Purchase{UserID: "user-1", FilmID: 7}},
		{"string film id", `{"userId":"user-1","filmId":"7"}`, &Purchase{UserID: "user-1", FilmID: 7}},
		{"free text", "Purchase: T.O.N.Y. - Season 1", nil},
		{"empty", "", nil},
		{"missing film", `{"userId":"user-1"}`, nil},
		{"non numeric film", `{"userId":"user-1","filmId":"abc"}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PaymentNoteResolver{}.Resolve(context.Background(), &square.Payment{Note: tt.note})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOrderMetadataResolver(t *testing.T) {
	orders := &fakeOrders{orders: map[string]*square.Order{
		"order-1": {ID: "order-1", Metadata: map[string]string{MetadataUserID: "user-1", MetadataFilmID: "7"}},
		"order-2": {ID: "order-2"},
	}}
	r := OrderMetadataResolver{Orders: orders}
	ctx := context.Background()

	got, err := r.Resolve(ctx, &square.Payment{OrderID: "order-1"})
	require.NoError(t, err)
	assert.Equal(t, &Purchase{UserID: "user-1", FilmID: 7}, got)

	got, err = r.Resolve(ctx, &square.Payment{OrderID: "order-2"})
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = r.Resolve(ctx, &square.Payment{OrderID: "order-missing"})
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = r.Resolve(ctx, &square.Payment{})
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = OrderMetadataResolver{Orders: &fakeOrders{err: errBoom}}.Resolve(ctx, &square.Payment{OrderID: "order-1"})
	assert.ErrorIs(t, err, errBoom)
}

func TestResolvePurchase_FirstCompleteWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repos.PendingOrder.Create(ctx, &models.PendingOrder{UserID: "user-ledger", FilmID: f.film.ID, SquareOrderID: "order-1"}))

	orders := &fakeOrders{}
	resolvers := DefaultResolvers(f.repos.PendingOrder, orders)

	payment := &square.Payment{OrderID: "order-1", Note: `{"userId":"user-note","filmId":99}`}
	got, source, err := ResolvePurchase(ctx, resolvers, payment)
	require.NoError(t, err)
	assert.Equal(t, "pending_order", source)
	assert.Equal(t, "user-ledger", got.UserID)
	assert.Equal(t, 0, orders.calls)

	// no ledger row and no order on Square: the note is the last resort
	payment = &square.Payment{OrderID: "order-unknown", Note: `{"userId":"user-note","filmId":99}`}
	got, source, err = ResolvePurchase(ctx, resolvers, payment)
	require.NoError(t, err)
	assert.Equal(t, "payment_note", source)
	assert.Equal(t, &Purchase{UserID: "user-note", FilmID: 99}, got)
	assert.Equal(t, 1, orders.calls)

	got, _, err = ResolvePurchase(ctx, resolvers, &square.Payment{Note: "not json"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResolvePurchase_LookupErrorFallsThroughToNote(t *testing.T) {
	f := newFixture(t)
	orders := &fakeOrders{err: errBoom}
	resolvers := DefaultResolvers(f.repos.PendingOrder, orders)

	got, source, err := ResolvePurchase(context.Background(), resolvers, &square.Payment{
		OrderID: "order-1",
		Note:    `{"userId":"user-note","filmId":1}`,
	})
	require.NoError(t, err)
	assert.Equal(t, "payment_note", source)
	assert.Equal(t, &Purchase{UserID: "user-note", FilmID: 1}, got)
	assert.Equal(t, 1, orders.calls)
}

func TestResolvePurchase_LookupErrorWithoutFallback(t *testing.T) {
	f := newFixture(t)
	resolvers := DefaultResolvers(f.repos.PendingOrder, &fakeOrders{err: errBoom})

	got, source, err := ResolvePurchase(context.Background(), resolvers, &square.Payment{
		OrderID: "order-1",
		Note:    "thanks!",
	})
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, "order_metadata", source)
	assert.Nil(t, got)
}
