package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/FilmPass/app/repository"
	"github.com/ManuelReschke/FilmPass/internal/pkg/square"
	"github.com/ManuelReschke/FilmPass/internal/pkg/telemetry"
)

// Purchase is the (user, film) pair a payment unlocks
type Purchase struct {
	UserID string
	FilmID uint
}

func (p *Purchase) complete() bool {
	return p != nil && strings.TrimSpace(p.UserID) != "" && p.FilmID != 0
}

// Resolver maps a completed payment to a Purchase. It returns (nil, nil) when
// it has nothing to say; an error means the lookup itself failed.
type Resolver interface {
	Name() string
	Resolve(ctx context.Context, payment *square.Payment) (*Purchase, error)
}

// ResolvePurchase runs resolvers in order and returns the first complete pair
// together with the name of the resolver that produced it. A failing resolver
// does not stop the chain; its error is only returned when no later resolver
// yields a pair, so the delivery gets retried.
func ResolvePurchase(ctx context.Context, resolvers []Resolver, payment *square.Payment) (*Purchase, string, error) {
	var (
		firstErr    error
		firstFailed string
	)
	for _, r := range resolvers {
		purchase, err := r.Resolve(ctx, payment)
		if err != nil {
			log.Warnf("[Webhook] %s resolver failed for payment %s: %v", r.Name(), payment.ID, err)
			telemetry.CaptureError(err, map[string]string{"resolver": r.Name(), "payment_id": payment.ID})
			if firstErr == nil {
				firstErr = fmt.Errorf("%s resolver: %w", r.Name(), err)
				firstFailed = r.Name()
			}
			continue
		}
		if purchase.complete() {
			return purchase, r.Name(), nil
		}
	}
	if firstErr != nil {
		return nil, firstFailed, firstErr
	}
	return nil, "", nil
}

// PendingOrderResolver finds the pending order recorded at checkout
type PendingOrderResolver struct {
	Orders repository.PendingOrderRepository
}

func (r PendingOrderResolver) Name() string { return "pending_order" }

func (r PendingOrderResolver) Resolve(ctx context.Context, payment *square.Payment) (*Purchase, error) {
	if payment.OrderID == "" {
		return nil, nil
	}
	order, err := r.Orders.GetByOrderID(ctx, payment.OrderID)
	if err != nil || order == nil {
		return nil, err
	}
	return &Purchase{UserID: order.UserID, FilmID: order.FilmID}, nil
}

// OrderRetriever is the part of the Square client the metadata resolver needs
type OrderRetriever interface {
	RetrieveOrder(ctx context.Context, orderID string) (*square.Order, error)
}

// OrderMetadataResolver reads the metadata written on the Square order
type OrderMetadataResolver struct {
	Orders OrderRetriever
}

func (r OrderMetadataResolver) Name() string { return "order_metadata" }

func (r OrderMetadataResolver) Resolve(ctx context.Context, payment *square.Payment) (*Purchase, error) {
	if payment.OrderID == "" || r.Orders == nil {
		return nil, nil
	}
	order, err := r.Orders.RetrieveOrder(ctx, payment.OrderID)
	if square.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	filmID, ok := parseFilmID(order.Metadata[MetadataFilmID])
	if !ok {
		return nil, nil
	}
	return &Purchase{UserID: order.Metadata[MetadataUserID], FilmID: filmID}, nil
}

// PaymentNoteResolver parses the JSON note written at checkout. Notes that are
// not JSON are ignored.
type PaymentNoteResolver struct{}

func (PaymentNoteResolver) Name() string { return "payment_note" }

func (PaymentNoteResolver) Resolve(_ context.Context, payment *square.Payment) (*Purchase, error) {
	note := strings.TrimSpace(payment.Note)
	if note == "" {
		return nil, nil
	}
	var data paymentNote
	if err := json.Unmarshal([]byte(note), &data); err != nil {
		return nil, nil
	}
	filmID, ok := parseFilmID(data.FilmID.String())
	if !ok {
		return nil, nil
	}
	return &Purchase{UserID: data.UserID, FilmID: filmID}, nil
}

func parseFilmID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
