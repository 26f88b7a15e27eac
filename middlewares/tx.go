package middlewares

import (
	"controlplane-backend/database"
	"controlplane-backend/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequestTx opens a per-request DB transaction for mutating methods and
// commits or rolls back around the handler chain. Order: run AFTER auth (so
// the context is resolved) and AFTER Idempotency (so idempotency records
// aren't tied to the handler TX).
func RequestTx() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		switch c.Method() {
		case fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete:
		default:
			return c.Next()
		}

		tx := database.DB.Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to begin transaction")
		}

		defer func() {
			if r := recover(); r != nil {
				_ = tx.Rollback()
				panic(r) // re-panic after rollback so Fiber's handler can catch
			}
			if err != nil {
				_ = tx.Rollback()
				return
			}
			if e := tx.Commit().Error; e != nil {
				logger.L().Error("tx commit failed", zap.Error(e))
				err = fiber.NewError(fiber.StatusInternalServerError, "transaction commit failed")
			}
		}()

		// Make the TX available to handlers via database.FromCtx(c).
		c.Locals("tx", tx)

		err = c.Next()
		return err
	}
}
