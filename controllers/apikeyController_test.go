package controllers_test

import (
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apiKeyHeader(raw string) map[string]string {
	return map[string]string{"X-API-Key": raw}
}

func TestAPIKeyLifecycle(t *testing.T) {
	app := newTestApp(t)
	token, _, _ := registerUser(t, app, "Ada", "ada@example.com")

	resp, body := request(t, app, fiber.MethodPost, "/api/api-keys", fiber.Map{
		"name": "ci",
	}, bearer(token))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	raw := body["api_key"].(string)
	assert.True(t, strings.HasPrefix(raw, "cpk_"))
	key := body["key"].(map[string]any)
	keyID := key["id"].(string)
	assert.Equal(t, raw[:12], key["key_prefix"])
	_, hashExposed := key["key_hash"]
	assert.False(t, hashExposed, "digest must never serialize")

	// Listings show metadata, never the raw key again.
	resp, body = request(t, app, fiber.MethodGet, "/api/api-keys", nil, bearer(token))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	keys := body["keys"].([]any)
	require.Len(t, keys, 1)
	listed := keys[0].(map[string]any)
	assert.Equal(t, "ci", listed["name"])
	assert.NotContains(t, listed, "key_hash")

	// The raw key authenticates requests.
	resp, body = request(t, app, fiber.MethodGet, "/api/services", nil, apiKeyHeader(raw))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	// Revocation cuts access immediately.
	resp, _ = request(t, app, fiber.MethodDelete, "/api/api-keys/"+keyID, nil, bearer(token))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body = request(t, app, fiber.MethodGet, "/api/services", nil, apiKeyHeader(raw))
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid API key", body["error"])

	// Revoked keys stay listed for audit.
	resp, body = request(t, app, fiber.MethodGet, "/api/api-keys", nil, bearer(token))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	keys = body["keys"].([]any)
	require.Len(t, keys, 1)
	assert.Equal(t, false, keys[0].(map[string]any)["is_active"])
}

func TestAPIKeyScopesEnforced(t *testing.T) {
	app := newTestApp(t)
	token, _, _ := registerUser(t, app, "Ada", "ada@example.com")

	resp, body := request(t, app, fiber.MethodPost, "/api/api-keys", fiber.Map{
		"name":   "deploy-only",
		"scopes": []string{"deploy"},
	}, bearer(token))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	raw := body["api_key"].(string)

	// Out-of-scope surface is refused.
	resp, body = request(t, app, fiber.MethodGet, "/api/secrets", nil, apiKeyHeader(raw))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Insufficient scope", body["error"])

	// In-scope surface works.
	resp, _ = request(t, app, fiber.MethodGet, "/api/deployments", nil, apiKeyHeader(raw))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAPIKeyCannotManageKeys(t *testing.T) {
	app := newTestApp(t)
	token, _, _ := registerUser(t, app, "Ada", "ada@example.com")

	resp, body := request(t, app, fiber.MethodPost, "/api/api-keys", fiber.Map{
		"name": "all-scopes",
	}, bearer(token))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	raw := body["api_key"].(string)

	// Key management is role-gated; the "api" role never qualifies.
	resp, body = request(t, app, fiber.MethodPost, "/api/api-keys", fiber.Map{
		"name": "escalation",
	}, apiKeyHeader(raw))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Insufficient role", body["error"])
}

func TestRevokeUnknownAPIKey(t *testing.T) {
	app := newTestApp(t)
	token, _, _ := registerUser(t, app, "Ada", "ada@example.com")

	resp, body := request(t, app, fiber.MethodDelete, "/api/api-keys/no-such-id", nil, bearer(token))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "API key not found", body["error"])
}
