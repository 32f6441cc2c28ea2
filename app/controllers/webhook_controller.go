package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/FilmPass/internal/pkg/apperror"
	"github.com/ManuelReschke/FilmPass/internal/pkg/billing"
	"github.com/ManuelReschke/FilmPass/internal/pkg/square"
	"github.com/ManuelReschke/FilmPass/internal/pkg/telemetry"
)

const webhookTimeout = 15 * time.Second

type WebhookController struct {
	Reconciler *billing.Reconciler
}

func NewWebhookController(rec *billing.Reconciler) *WebhookController {
	return &WebhookController{Reconciler: rec}
}

// HandleSquareWebhook receives Square payment notifications. Anything but a
// signature failure or an internal error is acknowledged with 200 so Square
// stops retrying.
func (ctrl *WebhookController) HandleSquareWebhook(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		c.Set(fiber.HeaderAllow, fiber.MethodPost)
		return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{"error": "Method not allowed"})
	}

	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := c.Get(square.SignatureHeader)

	ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
	defer cancel()

	ack, err := ctrl.Reconciler.HandleWebhook(ctx, rawBody, signature)
	if err != nil {
		if errors.Is(err, apperror.ErrInvalidSignature) {
			log.Warnf("[Webhook] rejected delivery from %s: %v", c.IP(), err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": apperror.Message(err)})
		}
		log.Errorf("[Webhook] processing failed: %v", err)
		telemetry.CaptureError(err, map[string]string{"route": "square-webhook"})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": apperror.Message(err)})
	}

	return c.Status(fiber.StatusOK).JSON(ack)
}
