package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/FilmPass/internal/pkg/entitlements"
	"github.com/ManuelReschke/FilmPass/internal/pkg/usercontext"
)

type filmDTO struct {
	ID         uint    `json:"id"`
	Slug       string  `json:"slug"`
	Title      string  `json:"title"`
	PriceCents int64   `json:"priceCents"`
	TrailerURL *string `json:"trailerUrl"`
}

type entitlementDTO struct {
	PurchasedAt time.Time `json:"purchasedAt"`
}

type entitlementResponse struct {
	HasAccess   bool            `json:"hasAccess"`
	Film        filmDTO         `json:"film"`
	Entitlement *entitlementDTO `json:"entitlement"`
}

type EntitlementController struct {
	Entitlements *entitlements.Service
}

func NewEntitlementController(ents *entitlements.Service) *EntitlementController {
	return &EntitlementController{Entitlements: ents}
}

// HandleCheckEntitlement answers whether the caller owns the film
func (ctrl *EntitlementController) HandleCheckEntitlement(c *fiber.Ctx) error {
	req, ok := parseFilmRequest(c)
	if !ok {
		return missingSlug(c)
	}

	status, err := ctrl.Entitlements.Check(c.UserContext(), usercontext.GetUserID(c), req.Slug)
	if err != nil {
		return respondError(c, err)
	}

	resp := entitlementResponse{
		HasAccess: status.HasAccess(),
		Film: filmDTO{
			ID:         status.Film.ID,
			Slug:       status.Film.Slug,
			Title:      status.Film.Title,
			PriceCents: status.Film.PriceCents,
			TrailerURL: status.Film.TrailerURL,
		},
	}
	if resp.HasAccess {
		resp.Entitlement = &entitlementDTO{PurchasedAt: status.Entitlement.PurchasedAt.UTC()}
	}
	return c.JSON(resp)
}
