package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/FilmPass/internal/pkg/downloads"
	"github.com/ManuelReschke/FilmPass/internal/pkg/usercontext"
)

type DownloadController struct {
	Downloads *downloads.Service
}

func NewDownloadController(svc *downloads.Service) *DownloadController {
	return &DownloadController{Downloads: svc}
}

// HandleDownloadLink returns a presigned URL for the requested rendition
func (ctrl *DownloadController) HandleDownloadLink(c *fiber.Ctx) error {
	req, ok := parseFilmRequest(c)
	if !ok {
		return missingSlug(c)
	}

	link, err := ctrl.Downloads.MintLink(c.UserContext(), usercontext.GetUserID(c), req.Slug, req.Quality)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"downloadUrl": link.URL,
		"quality":     link.Quality,
		"filename":    link.Filename,
		"expiresIn":   int(link.ExpiresIn.Seconds()),
	})
}
