package middlewares

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// BindAndValidate parses the request body into dst and validates it.
// Malformed bodies are rejected with 400 rather than degraded to an empty
// struct, so client bugs surface instead of being masked.
func BindAndValidate(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return validate.Struct(dst)
}

// ValidateStruct validates any struct value using the shared validator.
func ValidateStruct(v interface{}) error {
	return validate.Struct(v)
}
