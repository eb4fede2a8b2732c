package middleware

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

// UserContextMiddleware extracts the requesting principal set by the
// gateway. Bounty routes require it; the escrow endpoints identify the
// requester in the request body instead.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		if userID == "" {
			log.Printf("❌ [USER_CTX] X-User-ID required but missing on %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID — request must come through gateway with auth context",
			})
		}

		c.Locals("user_id", userID)
		return c.Next()
	}
}
