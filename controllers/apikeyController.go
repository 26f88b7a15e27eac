package controllers

import (
	"encoding/json"
	"time"

	"controlplane-backend/database"
	"controlplane-backend/middlewares"
	"controlplane-backend/models"
	"controlplane-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type CreateAPIKeyInput struct {
	Name          string   `json:"name" validate:"required"`
	Scopes        []string `json:"scopes"`
	ExpiresInDays *int     `json:"expires_in_days" validate:"omitempty,min=1,max=3650"`
}

// CreateAPIKey issues a new key for the current tenant. The raw key appears
// in this response exactly once; only its digest is stored.
func CreateAPIKey(c *fiber.Ctx) error {
	var input CreateAPIKeyInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	auth := middlewares.Auth(c)

	raw, prefix, hash, err := utils.GenerateAPIKey()
	if err != nil {
		return err
	}

	scopes := input.Scopes
	if len(scopes) == 0 {
		scopes = []string{"*"}
	}
	scopesJSON, _ := json.Marshal(scopes)

	key := models.APIKey{
		TenantId:  auth.Tenant.Id,
		Name:      input.Name,
		KeyHash:   hash,
		KeyPrefix: prefix,
		Scopes:    scopesJSON,
		IsActive:  true,
	}
	if input.ExpiresInDays != nil {
		exp := time.Now().AddDate(0, 0, *input.ExpiresInDays)
		key.ExpiresAt = &exp
	}

	if err := database.FromCtx(c).Create(&key).Error; err != nil {
		return err
	}

	LogActivity(auth.Tenant.Id, userIDOrAPI(auth), "api_key.created", fiber.Map{"name": key.Name})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"api_key": raw, // shown once, never again
		"key":     key,
	})
}

// ListAPIKeys lists the tenant's keys: prefixes, scopes and usage metadata,
// never digests.
func ListAPIKeys(c *fiber.Ctx) error {
	auth := middlewares.Auth(c)

	var keys []models.APIKey
	if err := database.DB.
		Where("tenant_id = ?", auth.Tenant.Id).
		Order("created_at DESC").
		Find(&keys).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "keys": keys})
}

// RevokeAPIKey deactivates a key; revoked keys stay listed for audit.
func RevokeAPIKey(c *fiber.Ctx) error {
	auth := middlewares.Auth(c)

	res := database.FromCtx(c).Model(&models.APIKey{}).
		Where("id = ? AND tenant_id = ?", c.Params("id"), auth.Tenant.Id).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "API key not found"})
	}

	LogActivity(auth.Tenant.Id, userIDOrAPI(auth), "api_key.revoked", fiber.Map{"id": c.Params("id")})
	return c.JSON(fiber.Map{"success": true})
}

// userIDOrAPI labels activity entries for API-key credentials that carry no
// user.
func userIDOrAPI(auth *middlewares.AuthContext) string {
	if auth.User != nil {
		return auth.User.Id
	}
	return "api-key"
}
