package middlewares

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"controlplane-backend/database"
	"controlplane-backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Idempotency processes Idempotency-Key for mutating HTTP methods. Repeated
// requests with the same key replay the stored response; reusing a key with
// a different request is a 409. It uses its own short transactions so
// idempotency records survive a rolled-back handler TX.
func Idempotency() fiber.Handler {
	return func(c *fiber.Ctx) error {
		method := strings.ToUpper(c.Method())
		if method != fiber.MethodPost && method != fiber.MethodPut && method != fiber.MethodPatch && method != fiber.MethodDelete {
			return c.Next()
		}

		key := strings.TrimSpace(c.Get("Idempotency-Key"))
		if key == "" {
			return c.Next()
		}
		if len(key) > 128 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Idempotency-Key too long"})
		}

		auth := Auth(c)
		if auth == nil || auth.Tenant == nil || auth.User == nil {
			// API-key and tenantless requests skip idempotency tracking.
			return c.Next()
		}
		tenantID := auth.Tenant.Id
		userID := auth.User.Id

		path := c.OriginalURL() // includes query string
		body := c.Body()

		// Deterministic request hash: method|path|body|tenant|user.
		h := sha256.New()
		h.Write([]byte(method))
		h.Write([]byte{'\n'})
		h.Write([]byte(path))
		h.Write([]byte{'\n'})
		h.Write(body)
		h.Write([]byte{'\n'})
		h.Write([]byte(tenantID))
		h.Write([]byte{'\n'})
		h.Write([]byte(userID))
		reqHash := hex.EncodeToString(h.Sum(nil))

		// ---- Phase 1: read/create "pending" under a short TX
		var existing models.IdempotencyKey
		replayed := false
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("key = ? AND tenant_id = ?", key, tenantID).First(&existing).Error; err != nil {
				if err != gorm.ErrRecordNotFound {
					return fiber.NewError(fiber.StatusInternalServerError, "idempotency lookup failed")
				}
				rec := models.IdempotencyKey{
					Key:            key,
					RequestHash:    reqHash,
					Method:         method,
					Path:           path,
					TenantId:       tenantID,
					UserId:         userID,
					ResponseStatus: 0,
				}
				if e2 := tx.Create(&rec).Error; e2 != nil {
					// Could be a unique race: read again.
					if e3 := tx.Where("key = ? AND tenant_id = ?", key, tenantID).First(&existing).Error; e3 != nil {
						return fiber.NewError(fiber.StatusInternalServerError, "idempotency create failed")
					}
				} else {
					existing = rec
				}
			}

			if existing.RequestHash != reqHash {
				return fiber.NewError(fiber.StatusConflict, "Idempotency-Key reuse with different request")
			}
			if existing.ResponseStatus != 0 && existing.ResponseBody != nil {
				// Completed response stored: short-circuit, no handler run.
				replayed = true
				c.Status(existing.ResponseStatus)
				if existing.ContentType != "" {
					c.Set(fiber.HeaderContentType, existing.ContentType)
				}
				return c.Send(existing.ResponseBody)
			}

			// Pending/in-progress: let the request run.
			return nil
		})
		if err != nil {
			return err
		}
		if replayed {
			return nil
		}

		if err := c.Next(); err != nil {
			return err
		}

		// ---- Phase 2: store the response under another short TX (best-effort)
		_ = database.DB.Transaction(func(tx *gorm.DB) error {
			now := time.Now().UTC()
			status := c.Response().StatusCode()
			resp := c.Response().Body()
			blob := make([]byte, len(resp))
			copy(blob, resp)

			return tx.Model(&models.IdempotencyKey{}).
				Where("key = ? AND tenant_id = ?", key, tenantID).
				Updates(map[string]any{
					"response_status": status,
					"response_body":   blob,
					"content_type":    string(c.Response().Header.ContentType()),
					"completed_at":    &now,
				}).Error
		})

		return nil
	}
}
