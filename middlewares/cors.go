package middlewares

import (
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	corsAllowHeaders = "Origin, Content-Type, Accept, Authorization, X-API-Key, X-Admin-Key, Idempotency-Key"
	corsAllowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
)

// CORS resolves the Origin header against ALLOWED_ORIGINS (comma-separated;
// default "*"). A listed origin is echoed back, anything else gets the first
// configured origin. Preflight OPTIONS requests are answered directly with
// 200 "ok" before rate limiting and auth run.
func CORS() fiber.Handler {
	var origins []string
	for _, o := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return func(c *fiber.Ctx) error {
		allow := origins[0]
		if origin := c.Get("Origin"); origin != "" {
			for _, o := range origins {
				if o == origin || o == "*" {
					allow = origin
					break
				}
			}
		}
		if origins[0] == "*" {
			allow = "*"
		}

		c.Set("Access-Control-Allow-Origin", allow)
		c.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		c.Set("Access-Control-Allow-Methods", corsAllowMethods)
		if allow != "*" {
			c.Set("Access-Control-Allow-Credentials", "true")
		}

		if c.Method() == fiber.MethodOptions {
			return c.Status(fiber.StatusOK).SendString("ok")
		}
		return c.Next()
	}
}
