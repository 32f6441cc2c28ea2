package billing

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/ManuelReschke/FilmPass/app/models"
	"github.com/ManuelReschke/FilmPass/app/repository"
	"github.com/ManuelReschke/FilmPass/internal/pkg/config"
	"github.com/ManuelReschke/FilmPass/internal/pkg/entitlements"
	"github.com/ManuelReschke/FilmPass/internal/pkg/square"
	"github.com/ManuelReschke/FilmPass/internal/pkg/testutil"
)

const (
	testSignatureKey    = "sig-key-123"
	testNotificationURL = "https://filmpass.example.com/api/square-webhook"
)

type fakeLinks struct {
	link  *square.PaymentLink
	err   error
	calls []square.CreatePaymentLinkRequest
}

func (f *fakeLinks) CreatePaymentLink(_ context.Context, in square.CreatePaymentLinkRequest) (*square.PaymentLink, error) {
	f.calls = append(f.calls, in)
	return f.link, f.err
}

type fakeOrders struct {
	orders map[string]*square.Order
	err    error
	calls  int
}

func (f *fakeOrders) RetrieveOrder(_ context.Context, orderID string) (*square.Order, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if order, ok := f.orders[orderID]; ok {
		return order, nil
	}
	return nil, square.APIErrors{{Category: "INVALID_REQUEST_ERROR", Code: "NOT_FOUND"}}
}

type fixture struct {
	db    *gorm.DB
	film  *models.Film
	repos *repository.Repositories
	ents  *entitlements.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	film := testutil.SeedFilm(t, db, "tony-s1")
	repos := repository.NewRepositories(db)
	return &fixture{
		db:    db,
		film:  film,
		repos: repos,
		ents:  entitlements.NewService(repos.Film, repos.Entitlement),
	}
}

func (f *fixture) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	return testutil.CountRows(t, f.db, model, "")
}

func (f *fixture) checkoutService(links PaymentLinkCreator) *CheckoutService {
	return NewCheckoutService(f.ents, f.repos.PendingOrder, links, config.CheckoutConfig{
		AppURL:     "https://filmpass.example.com",
		LocationID: "LOC-1",
		Currency:   "USD",
		NamePrefix: "T.O.N.Y.",
	})
}

func (f *fixture) reconciler(verify bool, orders OrderRetriever) *Reconciler {
	cfg := config.WebhookConfig{
		SignatureKey:    testSignatureKey,
		NotificationURL: testNotificationURL,
		VerifySignature: verify,
	}
	return NewReconciler(cfg, f.ents, f.repos.PendingOrder, f.repos.WebhookEvent, DefaultResolvers(f.repos.PendingOrder, orders)...)
}

var errBoom = errors.New("boom")
