package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/FilmPass/app/controllers"
	"github.com/ManuelReschke/FilmPass/internal/pkg/identity"
	"github.com/ManuelReschke/FilmPass/internal/pkg/middleware"
)

type ApiRouter struct {
	Verifier     identity.Verifier
	Entitlements *controllers.EntitlementController
	Checkout     *controllers.CheckoutController
	Playback     *controllers.PlaybackController
	Downloads    *controllers.DownloadController
	Webhook      *controllers.WebhookController

	// LimiterStorage may be nil; the limiter then keeps counters in memory
	LimiterStorage  fiber.Storage
	RateLimitMax    int
	RateLimitWindow time.Duration
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	// Square signs the raw body and sends no bearer token, so the webhook sits
	// outside the authenticated group. It answers 405 itself.
	app.All("/api/square-webhook", h.Webhook.HandleSquareWebhook)

	handlers := []fiber.Handler{middleware.PostOnly()}
	if h.RateLimitMax > 0 {
		handlers = append(handlers, limiter.New(limiter.Config{
			Max:        h.RateLimitMax,
			Expiration: h.RateLimitWindow,
			Storage:    h.LimiterStorage,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests"})
			},
		}))
	}
	handlers = append(handlers, middleware.RequireBearer(h.Verifier))

	api := app.Group("/api", handlers...)
	api.Post("/check-entitlement", h.Entitlements.HandleCheckEntitlement)
	api.Post("/checkout", h.Checkout.HandleCheckout)
	api.Post("/mux-token", h.Playback.HandleMuxToken)
	api.Post("/download-link", h.Downloads.HandleDownloadLink)
}
