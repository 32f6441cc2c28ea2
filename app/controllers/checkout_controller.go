package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/FilmPass/internal/pkg/billing"
	"github.com/ManuelReschke/FilmPass/internal/pkg/identity"
	"github.com/ManuelReschke/FilmPass/internal/pkg/usercontext"
)

type CheckoutController struct {
	Checkout *billing.CheckoutService
}

func NewCheckoutController(checkout *billing.CheckoutService) *CheckoutController {
	return &CheckoutController{Checkout: checkout}
}

// HandleCheckout creates a hosted Square checkout for the film
func (ctrl *CheckoutController) HandleCheckout(c *fiber.Ctx) error {
	req, ok := parseFilmRequest(c)
	if !ok {
		return missingSlug(c)
	}

	userCtx := usercontext.GetUserContext(c)
	buyer := identity.Identity{UserID: userCtx.UserID, Email: userCtx.Email}

	result, err := ctrl.Checkout.CreateCheckout(c.UserContext(), buyer, req.Slug)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"checkoutUrl": result.CheckoutURL,
		"orderId":     result.OrderID,
	})
}
