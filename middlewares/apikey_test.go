package middlewares

import (
	"net/http/httptest"
	"testing"
	"time"

	"controlplane-backend/models"
	"controlplane-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func seedAPIKey(t *testing.T, db *gorm.DB, scopes string, expiresAt *time.Time) (string, models.APIKey) {
	t.Helper()
	tenant := models.Tenant{Name: "Acme", Slug: "acme-keys", Plan: "free"}
	require.NoError(t, db.Create(&tenant).Error)

	raw, prefix, hash, err := utils.GenerateAPIKey()
	require.NoError(t, err)
	key := models.APIKey{
		TenantId:  tenant.Id,
		Name:      "ci",
		KeyHash:   hash,
		KeyPrefix: prefix,
		Scopes:    datatypes.JSON([]byte(scopes)),
		ExpiresAt: expiresAt,
		IsActive:  true,
	}
	require.NoError(t, db.Create(&key).Error)
	return raw, key
}

func apiKeyTestApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(AuthenticateOrAPIKey())
	app.Get("/whoami", func(c *fiber.Ctx) error {
		auth := Auth(c)
		return c.JSON(fiber.Map{"role": auth.Role, "tenant": auth.Tenant.Slug})
	})
	app.Get("/secrets", RequireScopes("secrets"), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true})
	})
	return app
}

func TestAPIKeyAuthentication(t *testing.T) {
	db := testDB(t)
	raw, _ := seedAPIKey(t, db, `["*"]`, nil)
	app := apiKeyTestApp()

	req := httptest.NewRequest(fiber.MethodGet, "/whoami", nil)
	req.Header.Set("X-API-Key", raw)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"role":"api","tenant":"acme-keys"}`, readBody(t, resp))
}

func TestAPIKeyUnknown(t *testing.T) {
	testDB(t)
	app := apiKeyTestApp()

	req := httptest.NewRequest(fiber.MethodGet, "/whoami", nil)
	req.Header.Set("X-API-Key", "cpk_0000000000000000000000000000000000000000000000000000000000000000")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Invalid API key"}`, readBody(t, resp))
}

func TestAPIKeyExpired(t *testing.T) {
	db := testDB(t)
	past := time.Now().Add(-time.Hour)
	raw, _ := seedAPIKey(t, db, `["*"]`, &past)
	app := apiKeyTestApp()

	req := httptest.NewRequest(fiber.MethodGet, "/whoami", nil)
	req.Header.Set("X-API-Key", raw)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `{"error":"API key expired"}`, readBody(t, resp))
}

func TestAPIKeyRevoked(t *testing.T) {
	db := testDB(t)
	raw, key := seedAPIKey(t, db, `["*"]`, nil)
	require.NoError(t, db.Model(&key).Update("is_active", false).Error)
	app := apiKeyTestApp()

	req := httptest.NewRequest(fiber.MethodGet, "/whoami", nil)
	req.Header.Set("X-API-Key", raw)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireScopesOnAPIKeys(t *testing.T) {
	db := testDB(t)
	raw, _ := seedAPIKey(t, db, `["deploy"]`, nil)
	app := apiKeyTestApp()

	req := httptest.NewRequest(fiber.MethodGet, "/secrets", nil)
	req.Header.Set("X-API-Key", raw)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Insufficient scope"}`, readBody(t, resp))
}

func TestRequireScopesWildcard(t *testing.T) {
	db := testDB(t)
	raw, _ := seedAPIKey(t, db, `["*"]`, nil)
	app := apiKeyTestApp()

	req := httptest.NewRequest(fiber.MethodGet, "/secrets", nil)
	req.Header.Set("X-API-Key", raw)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
