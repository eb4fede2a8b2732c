package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(key string) *fiber.App {
	app := fiber.New()
	app.Use(APIKeyMiddleware(key))
	app.Get("/balance", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true})
	})
	return app
}

func TestAPIKeyMiddleware(t *testing.T) {
	app := newApp("secret-key")

	// Missing key.
	req := httptest.NewRequest("GET", "/balance", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// Wrong key.
	req = httptest.NewRequest("GET", "/balance", nil)
	req.Header.Set("X-Api-Key", "wrong")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// Correct key.
	req = httptest.NewRequest("GET", "/balance", nil)
	req.Header.Set("X-Api-Key", "secret-key")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestUserContextMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(UserContextMiddleware())
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user": c.Locals("user_id")})
	})

	req := httptest.NewRequest("GET", "/whoami", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("X-User-ID", "carol")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
