package router

import (
	"github.com/gofiber/fiber/v2"
)

// Router registers one group of routes on the app
type Router interface {
	InstallRouter(app *fiber.App)
}

// InstallRouter registers the routers in order. The ops router goes first so
// health checks never pass through the API limiter.
func InstallRouter(app *fiber.App, routers ...Router) {
	for _, r := range routers {
		r.InstallRouter(app)
	}
}
