package middlewares

import (
	"encoding/json"
	"time"

	"controlplane-backend/database"
	"controlplane-backend/logger"
	"controlplane-backend/models"
	"controlplane-backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const apiKeyHeader = "X-API-Key"

// AuthenticateOrAPIKey resolves credentials from X-API-Key when present
// (body api_key fallback on POST), else falls back to Bearer auth. API-key
// requests get role "api" plus the key's scopes.
func AuthenticateOrAPIKey() fiber.Handler {
	bearer := Authenticate()
	return func(c *fiber.Ctx) error {
		raw := apiKeyFromRequest(c)
		if raw == "" {
			return bearer(c)
		}

		hash := utils.HashAPIKey(raw)
		var key models.APIKey
		if err := database.DB.Where("key_hash = ? AND is_active = ?", hash, true).First(&key).Error; err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid API key"})
		}
		if key.Expired(time.Now()) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "API key expired"})
		}

		var tenant models.Tenant
		if err := database.DB.Where("id = ?", key.TenantId).First(&tenant).Error; err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid API key"})
		}

		touchAPIKey(key.Id, c.IP())

		c.Locals(authLocal, &AuthContext{
			Tenant: &tenant,
			Role:   RoleAPIKey,
			Scopes: key.ScopeList(),
		})
		return c.Next()
	}
}

// RequireScopes gates API-key credentials on named scopes. Bearer users pass
// through; their access is controlled by RequireRoles.
func RequireScopes(scopes ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := Auth(c)
		if auth == nil || auth.Role != RoleAPIKey {
			return c.Next()
		}
		for _, want := range scopes {
			if !hasScope(auth.Scopes, want) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient scope"})
			}
		}
		return c.Next()
	}
}

func hasScope(scopes []string, want string) bool {
	for _, s := range scopes {
		if s == want || s == "*" {
			return true
		}
	}
	return false
}

func apiKeyFromRequest(c *fiber.Ctx) string {
	if key := c.Get(apiKeyHeader); key != "" {
		return key
	}
	if c.Method() == fiber.MethodPost && len(c.Body()) > 0 {
		var body struct {
			APIKey string `json:"api_key"`
		}
		if err := json.Unmarshal(c.Body(), &body); err == nil {
			return body.APIKey
		}
	}
	return ""
}

// touchAPIKey records last-used metadata in the background; failure to
// record must never fail the request.
func touchAPIKey(id, ip string) {
	go func() {
		now := time.Now()
		err := database.DB.Model(&models.APIKey{}).
			Where("id = ?", id).
			Updates(map[string]any{"last_used_at": &now, "last_used_ip": ip}).Error
		if err != nil {
			logger.L().Debug("api key last-used update failed", zap.String("key_id", id), zap.Error(err))
		}
	}()
}
