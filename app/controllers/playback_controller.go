package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/FilmPass/internal/pkg/playback"
	"github.com/ManuelReschke/FilmPass/internal/pkg/usercontext"
)

type PlaybackController struct {
	Playback *playback.Service
}

func NewPlaybackController(svc *playback.Service) *PlaybackController {
	return &PlaybackController{Playback: svc}
}

// HandleMuxToken mints signed Mux playback tokens for an entitled caller
func (ctrl *PlaybackController) HandleMuxToken(c *fiber.Ctx) error {
	req, ok := parseFilmRequest(c)
	if !ok {
		return missingSlug(c)
	}

	creds, err := ctrl.Playback.Mint(c.UserContext(), usercontext.GetUserID(c), req.Slug)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"playbackId": creds.PlaybackID,
		"tokens":     creds.Tokens,
	})
}
