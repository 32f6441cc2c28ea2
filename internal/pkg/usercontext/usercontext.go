package usercontext

import "github.com/gofiber/fiber/v2"

// UserContext represents the authenticated caller of a request
type UserContext struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	IsLoggedIn bool   `json:"is_logged_in"`
}

// Set stores the user context on the fiber context
func Set(c *fiber.Ctx, userCtx UserContext) {
	c.Locals(KeyUserContext, userCtx)
	c.Locals(KeyUserID, userCtx.UserID)
}

// GetUserContext retrieves the user context from fiber context
// Returns a default anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx, ok := c.Locals(KeyUserContext).(UserContext); ok {
		return ctx
	}
	return UserContext{IsLoggedIn: false}
}

// GetUserID returns the current user's ID, or an empty string if anonymous
func GetUserID(c *fiber.Ctx) string {
	return GetUserContext(c).UserID
}

// GetEmail returns the current user's email, or an empty string if unknown
func GetEmail(c *fiber.Ctx) string {
	return GetUserContext(c).Email
}
