package middleware

import (
	"crypto/subtle"
	"log"

	"github.com/gofiber/fiber/v2"
)

// APIKeyMiddleware validates the static shared-secret X-Api-Key header.
// A missing or mismatched key is rejected before any balance or transfer
// logic runs.
func APIKeyMiddleware(expectedKey string) fiber.Handler {
	if expectedKey == "" {
		log.Fatal("❌ ESCROW_API_KEY is not set — service cannot authenticate callers")
	}

	return func(c *fiber.Ctx) error {
		key := c.Get("X-Api-Key")
		if key == "" {
			log.Printf("🚫 [API_KEY] Missing X-Api-Key header for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "api key missing",
			})
		}

		if subtle.ConstantTimeCompare([]byte(key), []byte(expectedKey)) != 1 {
			log.Printf("❌ [API_KEY] Invalid key for %s (got prefix: %.6s...)", c.Path(), key)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid api key",
			})
		}

		return c.Next()
	}
}
