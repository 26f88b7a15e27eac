package controllers_test

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatformStats(t *testing.T) {
	t.Setenv("ADMIN_KEY", "platform-root-key")
	app := newTestApp(t)
	registerUser(t, app, "Ada", "ada@example.com")
	registerUser(t, app, "Grace", "grace@example.com")

	resp, body := request(t, app, fiber.MethodGet, "/api/admin/stats", nil, adminKey())
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	stats := body["stats"].(map[string]any)
	assert.EqualValues(t, 2, stats["tenants"])
	assert.EqualValues(t, 2, stats["users"])
	assert.EqualValues(t, 0, stats["deployments"])
}

func TestMigrateTenantUnknownSlug(t *testing.T) {
	t.Setenv("ADMIN_KEY", "platform-root-key")
	app := newTestApp(t)

	resp, body := request(t, app, fiber.MethodPost, "/api/admin/migrate-tenant", fiber.Map{
		"slug": "no-such-tenant",
	}, adminKey())
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Tenant not found", body["error"])
}

func TestAdminSurfaceIsGated(t *testing.T) {
	t.Setenv("ADMIN_KEY", "platform-root-key")
	app := newTestApp(t)

	for _, route := range []struct {
		method, path string
	}{
		{fiber.MethodGet, "/api/admin/stats"},
		{fiber.MethodPost, "/api/admin/migrate-tenant"},
		{fiber.MethodPost, "/api/admin/services"},
	} {
		resp, body := request(t, app, route.method, route.path, nil, nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "%s %s", route.method, route.path)
		assert.Equal(t, "Unauthorized - Admin key required", body["error"])
	}
}
