package controllers

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/FilmPass/internal/pkg/apperror"
	"github.com/ManuelReschke/FilmPass/internal/pkg/telemetry"
	"github.com/ManuelReschke/FilmPass/internal/pkg/usercontext"
)

var validate = validator.New()

// filmRequest is the body every bearer endpoint accepts. Quality is only read
// by the download endpoint.
type filmRequest struct {
	Slug    string `json:"slug" validate:"required"`
	Quality string `json:"quality"`
}

// parseFilmRequest reads the JSON body. A missing or unparsable body yields an
// empty slug so the caller sees the same 400 as for an omitted slug.
func parseFilmRequest(c *fiber.Ctx) (*filmRequest, bool) {
	var req filmRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			log.Debugf("[API] could not parse body on %s: %v", c.Path(), err)
		}
	}
	req.Slug = strings.TrimSpace(req.Slug)
	req.Quality = strings.TrimSpace(req.Quality)

	if err := validate.Struct(&req); err != nil {
		return nil, false
	}
	return &req, true
}

func missingSlug(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing slug parameter"})
}

// respondError maps err onto the shared taxonomy. Server errors are logged
// with the wrapped detail and reported; clients only get the public message.
func respondError(c *fiber.Ctx, err error) error {
	status := apperror.Status(err)
	if apperror.IsClientError(err) {
		log.Debugf("[API] %s %s rejected (%d): %v", c.Method(), c.Path(), status, err)
	} else {
		log.Errorf("[API] %s %s failed for user %s: %v", c.Method(), c.Path(), usercontext.GetUserID(c), err)
		telemetry.CaptureError(err, map[string]string{"route": c.Path()})
	}
	return c.Status(status).JSON(fiber.Map{"error": apperror.Message(err)})
}
