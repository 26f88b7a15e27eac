package middlewares

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminTestApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Post("/manage-cron", RequireAdminKey(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true})
	})
	return app
}

func TestRequireAdminKey(t *testing.T) {
	t.Setenv("ADMIN_KEY", "platform-root-key")
	app := adminTestApp()

	// No key.
	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/manage-cron", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Unauthorized - Admin key required"}`, readBody(t, resp))

	// Wrong key.
	req := httptest.NewRequest(fiber.MethodPost, "/manage-cron", nil)
	req.Header.Set("X-Admin-Key", "guess")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Unauthorized - Admin key required"}`, readBody(t, resp))

	// Right key.
	req = httptest.NewRequest(fiber.MethodPost, "/manage-cron", nil)
	req.Header.Set("X-Admin-Key", "platform-root-key")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireAdminKeyUnconfigured(t *testing.T) {
	t.Setenv("ADMIN_KEY", "")
	app := adminTestApp()

	req := httptest.NewRequest(fiber.MethodPost, "/manage-cron", nil)
	req.Header.Set("X-Admin-Key", "anything")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
