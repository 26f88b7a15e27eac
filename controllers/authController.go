package controllers

import (
	"errors"

	"controlplane-backend/database"
	"controlplane-backend/middlewares"
	"controlplane-backend/models"
	"controlplane-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	TenantName string `json:"tenant_name"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register creates the user plus their personal tenant and an owner
// membership flagged as default.
func Register(c *fiber.Ctx) error {
	var input RegisterInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}

	var existing models.User
	if err := database.DB.Where("email = ?", input.Email).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Email already registered"})
	}

	tenantName := input.TenantName
	if tenantName == "" {
		tenantName = input.Name + "'s workspace"
	}
	slug, err := utils.Slugify(tenantName)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid tenant name"})
	}

	user := models.User{Name: input.Name, Email: input.Email}
	user.SetPassword(input.Password)
	tenant := models.Tenant{Name: tenantName, Slug: slug, Plan: "free"}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		if err := tx.Create(&tenant).Error; err != nil {
			if !errors.Is(err, gorm.ErrDuplicatedKey) {
				return err
			}
			// Slug taken: retry once with a random suffix.
			tenant.Id = ""
			tenant.Slug = slug + "-" + uuid.NewString()[:8]
			if err := tx.Create(&tenant).Error; err != nil {
				return err
			}
		}
		return tx.Create(&models.Membership{
			UserId:    user.Id,
			TenantId:  tenant.Id,
			Role:      middlewares.RoleOwner,
			IsDefault: true,
		}).Error
	})
	if err != nil {
		return err
	}

	LogActivity(tenant.Id, user.Id, "user.registered", fiber.Map{"email": user.Email})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user":    user,
		"tenant":  tenant,
	})
}

func Login(c *fiber.Ctx) error {
	var input LoginInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}

	var user models.User
	if err := database.DB.Where("email = ?", input.Email).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid credentials"})
	}
	if err := user.ComparePassword(input.Password); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid credentials"})
	}

	token, err := middlewares.GenerateJWT(user.Id)
	if err != nil {
		return err
	}

	var membership models.Membership
	resp := fiber.Map{"success": true, "token": token, "user": user}
	if err := database.DB.Preload("Tenant").
		Where("user_id = ? AND is_default = ?", user.Id, true).
		First(&membership).Error; err == nil {
		resp["tenant"] = membership.Tenant
		resp["role"] = membership.Role
	}

	return c.JSON(resp)
}

// Logout is a no-op for stateless bearer tokens; clients drop the token.
func Logout(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true})
}

// Me returns the resolved credential context.
func Me(c *fiber.Ctx) error {
	auth := middlewares.Auth(c)
	resp := fiber.Map{"success": true, "user": auth.User, "role": auth.Role}
	if auth.Tenant != nil {
		resp["tenant"] = auth.Tenant
	}
	return c.JSON(resp)
}
