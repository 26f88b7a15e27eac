package controllers_test

import (
	"testing"

	"controlplane-backend/database"
	"controlplane-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListActivity(t *testing.T) {
	app := newTestApp(t)
	token, userID, tenantID := registerUser(t, app, "Ada", "ada@example.com")

	// Seed entries directly; the write path is fire-and-forget.
	for _, action := range []string{"tenant.created", "secret.set", "page.deployed"} {
		require.NoError(t, database.DB.Create(&models.Activity{
			TenantId: tenantID,
			UserId:   userID,
			Action:   action,
		}).Error)
	}
	// Another tenant's entries stay invisible.
	require.NoError(t, database.DB.Create(&models.Activity{
		TenantId: "other-tenant",
		UserId:   "someone",
		Action:   "secret.set",
	}).Error)

	resp, body := request(t, app, fiber.MethodGet, "/api/activity", nil, bearer(token))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	entries := body["activities"].([]any)
	assert.Len(t, entries, 3)

	resp, body = request(t, app, fiber.MethodGet, "/api/activity?limit=2", nil, bearer(token))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, body["activities"].([]any), 2)
}
