// Package server assembles the Fiber application from configuration and the
// external collaborators built in main.
package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/ManuelReschke/FilmPass/app/controllers"
	"github.com/ManuelReschke/FilmPass/app/repository"
	"github.com/ManuelReschke/FilmPass/internal/pkg/billing"
	"github.com/ManuelReschke/FilmPass/internal/pkg/config"
	"github.com/ManuelReschke/FilmPass/internal/pkg/downloads"
	"github.com/ManuelReschke/FilmPass/internal/pkg/entitlements"
	"github.com/ManuelReschke/FilmPass/internal/pkg/identity"
	"github.com/ManuelReschke/FilmPass/internal/pkg/playback"
	"github.com/ManuelReschke/FilmPass/internal/pkg/router"
)

// Dependencies are the collaborators that talk to the outside world. Minter
// and Presigner may be nil when the provider is not configured; the matching
// endpoints then answer 500.
type Dependencies struct {
	DB             *gorm.DB
	Cache          *redis.Client
	LimiterStorage fiber.Storage
	Verifier       identity.Verifier
	PaymentLinks   billing.PaymentLinkCreator
	Orders         billing.OrderRetriever
	Minter         playback.TokenMinter
	Presigner      downloads.Presigner
	OpenAPIFile    string
	// RequestLogging turns on the access log
	RequestLogging bool
}

// NewApplication wires services, controllers and routes into a Fiber app
func NewApplication(cfg *config.Config, deps Dependencies) *fiber.App {
	repos := repository.NewFactory(deps.DB).
		WithFilmCache(deps.Cache, cfg.Cache.FilmTTL).
		GetRepositories()

	ents := entitlements.NewService(repos.Film, repos.Entitlement)
	checkout := billing.NewCheckoutService(ents, repos.PendingOrder, deps.PaymentLinks, cfg.Checkout)
	reconciler := billing.NewReconciler(cfg.Webhook, ents, repos.PendingOrder, repos.WebhookEvent,
		billing.DefaultResolvers(repos.PendingOrder, deps.Orders)...)
	playbackSvc := playback.NewService(ents, deps.Minter)
	downloadSvc := downloads.NewService(ents, repos.DownloadLog, deps.Presigner, cfg.Download)

	app := fiber.New(fiber.Config{
		AppName:      "FilmPass",
		BodyLimit:    1 << 20,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	if deps.RequestLogging {
		app.Use(logger.New())
	}

	router.InstallRouter(app,
		router.OpsRouter{
			DB:                  deps.DB,
			MetricsUser:         cfg.Ops.MetricsUser,
			MetricsPasswordHash: cfg.Ops.MetricsPasswordHash,
			OpenAPIFile:         deps.OpenAPIFile,
		},
		router.ApiRouter{
			Verifier:        deps.Verifier,
			Entitlements:    controllers.NewEntitlementController(ents),
			Checkout:        controllers.NewCheckoutController(checkout),
			Playback:        controllers.NewPlaybackController(playbackSvc),
			Downloads:       controllers.NewDownloadController(downloadSvc),
			Webhook:         controllers.NewWebhookController(reconciler),
			LimiterStorage:  deps.LimiterStorage,
			RateLimitMax:    cfg.Ops.RateLimitMax,
			RateLimitWindow: cfg.Ops.RateLimitWindow,
		},
	)

	return app
}

// errorHandler keeps the {"error": ...} shape for errors raised by Fiber
// itself, such as unknown routes or oversized bodies.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}
	return c.Status(code).JSON(fiber.Map{"error": message})
}
