package middlewares

import (
	"errors"

	"controlplane-backend/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrorHandler centralizes error responses and keeps messages sanitized.
// Every error body is `{"error": ...}`; unexpected errors become an opaque
// 500 with the detail logged, never leaked.
func ErrorHandler(c *fiber.Ctx, err error) error {
	// Fiber errors keep their status code + message.
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}

	// Validation errors: 400 + per-field info.
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make(map[string]string, len(ve))
		for _, f := range ve {
			fields[f.Field()] = f.Tag()
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "validation failed",
			"fields": fields,
		})
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Already exists"})
	}

	logger.L().Error("unhandled request error", zap.String("path", c.Path()), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}
