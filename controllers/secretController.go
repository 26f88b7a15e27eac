package controllers

import (
	"errors"
	"regexp"

	"controlplane-backend/clients"
	"controlplane-backend/database"
	"controlplane-backend/middlewares"
	"controlplane-backend/models"
	"controlplane-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var secretNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,128}$`)

type SetSecretInput struct {
	Name      string `json:"name" validate:"required"`
	Value     string `json:"value" validate:"required"`
	Overwrite bool   `json:"overwrite"`
}

// SetSecret stores a tenant secret. The value goes to Vault when configured,
// otherwise it is sealed into the row; either way it never leaves the server
// in listings. Creating an existing name without overwrite is a 409.
func SetSecret(c *fiber.Ctx) error {
	var input SetSecretInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	if !secretNamePattern.MatchString(input.Name) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid secret name"})
	}
	auth := middlewares.Auth(c)
	db := database.FromCtx(c)

	var existing models.Secret
	err := db.Where("tenant_id = ? AND name = ?", auth.Tenant.Id, input.Name).First(&existing).Error
	if err == nil && !input.Overwrite {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Secret already exists"})
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	secret := models.Secret{TenantId: auth.Tenant.Id, Name: input.Name}
	if clients.VaultEnabled() {
		if err := clients.WriteVaultSecret(auth.Tenant.Id, input.Name, input.Value); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Secret store write failed: "+err.Error())
		}
		secret.VaultBacked = true
	} else {
		nonce, ciphertext, err := utils.SealSecret(input.Value)
		if err != nil {
			return err
		}
		secret.Nonce = nonce
		secret.Ciphertext = ciphertext
	}

	if existing.ID != 0 {
		secret.ID = existing.ID
		secret.CreatedAt = existing.CreatedAt
		if err := db.Save(&secret).Error; err != nil {
			return err
		}
	} else if err := db.Create(&secret).Error; err != nil {
		return err
	}

	LogActivity(auth.Tenant.Id, userIDOrAPI(auth), "secret.set", fiber.Map{"name": input.Name})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "secret": secret})
}

// ListSecrets returns names and timestamps only.
func ListSecrets(c *fiber.Ctx) error {
	auth := middlewares.Auth(c)

	var secrets []models.Secret
	if err := database.DB.
		Where("tenant_id = ?", auth.Tenant.Id).
		Order("name").
		Find(&secrets).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "secrets": secrets})
}

// GetSecret reveals one secret value.
func GetSecret(c *fiber.Ctx) error {
	auth := middlewares.Auth(c)
	name := c.Params("name")

	var secret models.Secret
	if err := database.DB.
		Where("tenant_id = ? AND name = ?", auth.Tenant.Id, name).
		First(&secret).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Secret not found"})
	}

	var value string
	var err error
	if secret.VaultBacked {
		value, err = clients.ReadVaultSecret(auth.Tenant.Id, name)
	} else {
		value, err = utils.OpenSecret(secret.Nonce, secret.Ciphertext)
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Secret read failed")
	}

	return c.JSON(fiber.Map{"success": true, "name": name, "value": value})
}

// DeleteSecret removes the row and, when Vault-backed, the Vault entry.
func DeleteSecret(c *fiber.Ctx) error {
	auth := middlewares.Auth(c)
	name := c.Params("name")
	db := database.FromCtx(c)

	var secret models.Secret
	if err := db.Where("tenant_id = ? AND name = ?", auth.Tenant.Id, name).
		First(&secret).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Secret not found"})
	}

	if secret.VaultBacked {
		if err := clients.DeleteVaultSecret(auth.Tenant.Id, name); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Secret store delete failed")
		}
	}
	if err := db.Delete(&secret).Error; err != nil {
		return err
	}

	LogActivity(auth.Tenant.Id, userIDOrAPI(auth), "secret.deleted", fiber.Map{"name": name})
	return c.JSON(fiber.Map{"success": true})
}
