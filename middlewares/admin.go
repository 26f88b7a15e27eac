package middlewares

import (
	"os"
	"strings"

	"controlplane-backend/utils"

	"github.com/gofiber/fiber/v2"
)

const adminKeyHeader = "X-Admin-Key"

// RequireAdminKey gates platform-management handlers behind the static
// ADMIN_KEY shared secret. The comparison is constant-time.
func RequireAdminKey() fiber.Handler {
	return func(c *fiber.Ctx) error {
		configured := strings.TrimSpace(os.Getenv("ADMIN_KEY"))
		if configured == "" {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Admin key not configured"})
		}
		if !utils.SecureCompare(c.Get(adminKeyHeader), configured) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized - Admin key required"})
		}
		return c.Next()
	}
}
