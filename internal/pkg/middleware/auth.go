package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/FilmPass/internal/pkg/apperror"
	"github.com/ManuelReschke/FilmPass/internal/pkg/identity"
	"github.com/ManuelReschke/FilmPass/internal/pkg/usercontext"
)

// RequireBearer verifies the Authorization bearer token before any store
// access and puts the caller into the user context.
func RequireBearer(verifier identity.Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		id, err := verifier.Verify(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, apperror.ErrUnauthenticated) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
			}
			log.Errorf("[Auth] token verification failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
		}

		usercontext.Set(c, usercontext.UserContext{
			UserID:     id.UserID,
			Email:      id.Email,
			IsLoggedIn: true,
		})
		return c.Next()
	}
}

// PostOnly answers every non-POST request with 405
func PostOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost {
			c.Set(fiber.HeaderAllow, fiber.MethodPost)
			return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{"error": "Method not allowed"})
		}
		return c.Next()
	}
}

func extractBearerToken(c *fiber.Ctx) string {
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
