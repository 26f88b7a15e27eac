package controllers

import (
	"controlplane-backend/database"
	"controlplane-backend/middlewares"
	"controlplane-backend/models"

	"github.com/gofiber/fiber/v2"
)

type MigrateTenantInput struct {
	Slug string `json:"slug" validate:"required"`
}

// MigrateTenant provisions (or re-runs migrations for) the per-tenant
// schema holding sub-application tables. Admin-key gated.
func MigrateTenant(c *fiber.Ctx) error {
	var input MigrateTenantInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}

	var tenant models.Tenant
	if err := database.DB.Where("slug = ?", input.Slug).First(&tenant).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Tenant not found"})
	}

	schema, err := database.EnsureTenantSchema(tenant.Slug)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Schema provisioning failed")
	}
	if err := database.MigrateTenantSchema(schema); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Schema migration failed")
	}

	LogActivity(tenant.Id, "admin", "tenant.schema_migrated", fiber.Map{"schema": schema})
	return c.JSON(fiber.Map{"success": true, "schema": schema})
}

// PlatformStats returns coarse platform counts. Admin-key gated.
func PlatformStats(c *fiber.Ctx) error {
	var tenants, users, deployments, apiKeys int64
	database.DB.Model(&models.Tenant{}).Count(&tenants)
	database.DB.Model(&models.User{}).Count(&users)
	database.DB.Model(&models.Deployment{}).Count(&deployments)
	database.DB.Model(&models.APIKey{}).Where("is_active = ?", true).Count(&apiKeys)

	return c.JSON(fiber.Map{
		"success": true,
		"stats": fiber.Map{
			"tenants":         tenants,
			"users":           users,
			"deployments":     deployments,
			"active_api_keys": apiKeys,
		},
	})
}
