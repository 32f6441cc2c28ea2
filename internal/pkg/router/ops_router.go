package router

import (
	"os"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ManuelReschke/FilmPass/internal/pkg/database"
	"github.com/ManuelReschke/FilmPass/internal/pkg/metrics"
)

// OpsRouter serves health, metrics and the OpenAPI docs
type OpsRouter struct {
	DB *gorm.DB

	MetricsUser         string
	MetricsPasswordHash string

	// OpenAPIFile is skipped when empty or missing
	OpenAPIFile string
}

func (h OpsRouter) InstallRouter(app *fiber.App) {
	app.Get("/healthz", h.handleHealth)

	if h.MetricsUser != "" && h.MetricsPasswordHash != "" {
		app.Get("/metrics", basicauth.New(basicauth.Config{
			Authorizer: func(user, pass string) bool {
				if user != h.MetricsUser {
					return false
				}
				return bcrypt.CompareHashAndPassword([]byte(h.MetricsPasswordHash), []byte(pass)) == nil
			},
		}), adaptor.HTTPHandler(metrics.Handler()))
	} else {
		log.Warn("[Router] METRICS_USER/METRICS_PASSWORD_HASH not set, /metrics disabled")
	}

	if h.OpenAPIFile != "" {
		if _, err := os.Stat(h.OpenAPIFile); err == nil {
			app.Use(swagger.New(swagger.Config{
				BasePath: "/docs/api/",
				FilePath: h.OpenAPIFile,
				Path:     "v1",
			}))
		} else {
			log.Warnf("[Router] OpenAPI file %s not found, docs disabled", h.OpenAPIFile)
		}
	}
}

func (h OpsRouter) handleHealth(c *fiber.Ctx) error {
	if err := database.Ping(h.DB); err != nil {
		log.Errorf("[Health] database ping failed: %v", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
