package controllers

import (
	"errors"

	"controlplane-backend/database"
	"controlplane-backend/middlewares"
	"controlplane-backend/models"
	"controlplane-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateTenantInput struct {
	Name string `json:"name" validate:"required"`
	Slug string `json:"slug"`
}

type UpdateTenantInput struct {
	Name *string `json:"name" validate:"omitempty,min=1"`
}

type UpdateMemberRoleInput struct {
	Role string `json:"role" validate:"required,oneof=owner admin member"`
}

// CreateTenant provisions a new tenant owned by the caller. The slug's
// uniqueness is enforced by the store; a duplicate is a 409.
func CreateTenant(c *fiber.Ctx) error {
	var input CreateTenantInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	auth := middlewares.Auth(c)

	source := input.Slug
	if source == "" {
		source = input.Name
	}
	slug, err := utils.Slugify(source)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid slug"})
	}

	tenant := models.Tenant{Name: input.Name, Slug: slug, Plan: "free"}
	db := database.FromCtx(c)
	if err := db.Create(&tenant).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Tenant slug already exists"})
		}
		return err
	}

	// First tenant becomes the default automatically.
	var defaults int64
	db.Model(&models.Membership{}).
		Where("user_id = ? AND is_default = ?", auth.User.Id, true).
		Count(&defaults)

	if err := db.Create(&models.Membership{
		UserId:    auth.User.Id,
		TenantId:  tenant.Id,
		Role:      middlewares.RoleOwner,
		IsDefault: defaults == 0,
	}).Error; err != nil {
		return err
	}

	LogActivity(tenant.Id, auth.User.Id, "tenant.created", fiber.Map{"slug": tenant.Slug})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "tenant": tenant})
}

// ListTenants returns every tenant the caller belongs to.
func ListTenants(c *fiber.Ctx) error {
	auth := middlewares.Auth(c)

	var memberships []models.Membership
	if err := database.DB.Preload("Tenant").
		Where("user_id = ?", auth.User.Id).
		Find(&memberships).Error; err != nil {
		return err
	}

	tenants := make([]fiber.Map, 0, len(memberships))
	for _, m := range memberships {
		tenants = append(tenants, fiber.Map{
			"tenant":     m.Tenant,
			"role":       m.Role,
			"is_default": m.IsDefault,
		})
	}
	return c.JSON(fiber.Map{"success": true, "tenants": tenants})
}

// UpdateTenant patches the current tenant. Owner/admin only (route gate).
func UpdateTenant(c *fiber.Ctx) error {
	var input UpdateTenantInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	auth := middlewares.Auth(c)

	utils.NormalizePtrDTO(&input)
	updates := utils.UpdatesFromPtrDTO(&input, nil)
	if len(updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Nothing to update"})
	}

	db := database.FromCtx(c)
	if err := db.Model(&models.Tenant{}).
		Where("id = ?", auth.Tenant.Id).
		Updates(updates).Error; err != nil {
		return err
	}

	var tenant models.Tenant
	if err := db.Where("id = ?", auth.Tenant.Id).First(&tenant).Error; err != nil {
		return err
	}
	LogActivity(tenant.Id, auth.User.Id, "tenant.updated", nil)
	return c.JSON(fiber.Map{"success": true, "tenant": tenant})
}

// SwitchTenant moves the caller's default membership to the given tenant.
func SwitchTenant(c *fiber.Ctx) error {
	auth := middlewares.Auth(c)
	tenantID := c.Params("id")

	db := database.FromCtx(c)
	var membership models.Membership
	if err := db.Where("user_id = ? AND tenant_id = ?", auth.User.Id, tenantID).
		First(&membership).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not a member of this tenant"})
	}

	if err := db.Model(&models.Membership{}).
		Where("user_id = ?", auth.User.Id).
		Update("is_default", false).Error; err != nil {
		return err
	}
	if err := db.Model(&models.Membership{}).
		Where("id = ?", membership.ID).
		Update("is_default", true).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "tenant_id": tenantID})
}

// ListMembers lists the current tenant's memberships.
func ListMembers(c *fiber.Ctx) error {
	auth := middlewares.Auth(c)

	var memberships []models.Membership
	if err := database.DB.Preload("User").
		Where("tenant_id = ?", auth.Tenant.Id).
		Find(&memberships).Error; err != nil {
		return err
	}

	members := make([]fiber.Map, 0, len(memberships))
	for _, m := range memberships {
		members = append(members, fiber.Map{
			"user_id": m.UserId,
			"name":    m.User.Name,
			"email":   m.User.Email,
			"role":    m.Role,
		})
	}
	return c.JSON(fiber.Map{"success": true, "members": members})
}

// UpdateMemberRole changes a member's role. Owner only (route gate); the
// last owner cannot be demoted.
func UpdateMemberRole(c *fiber.Ctx) error {
	var input UpdateMemberRoleInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	auth := middlewares.Auth(c)
	userID := c.Params("userId")

	db := database.FromCtx(c)
	var membership models.Membership
	if err := db.Where("tenant_id = ? AND user_id = ?", auth.Tenant.Id, userID).
		First(&membership).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Member not found"})
	}

	if membership.Role == middlewares.RoleOwner && input.Role != middlewares.RoleOwner {
		var owners int64
		db.Model(&models.Membership{}).
			Where("tenant_id = ? AND role = ?", auth.Tenant.Id, middlewares.RoleOwner).
			Count(&owners)
		if owners <= 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot demote the last owner"})
		}
	}

	if err := db.Model(&membership).Update("role", input.Role).Error; err != nil {
		return err
	}
	LogActivity(auth.Tenant.Id, auth.User.Id, "member.role_changed", fiber.Map{"user_id": userID, "role": input.Role})
	return c.JSON(fiber.Map{"success": true})
}

// RemoveMember deletes a membership. Owner only (route gate); the last owner
// cannot be removed.
func RemoveMember(c *fiber.Ctx) error {
	auth := middlewares.Auth(c)
	userID := c.Params("userId")

	db := database.FromCtx(c)
	var membership models.Membership
	if err := db.Where("tenant_id = ? AND user_id = ?", auth.Tenant.Id, userID).
		First(&membership).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Member not found"})
	}

	if membership.Role == middlewares.RoleOwner {
		var owners int64
		db.Model(&models.Membership{}).
			Where("tenant_id = ? AND role = ?", auth.Tenant.Id, middlewares.RoleOwner).
			Count(&owners)
		if owners <= 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot remove the last owner"})
		}
	}

	if err := db.Delete(&membership).Error; err != nil {
		return err
	}
	LogActivity(auth.Tenant.Id, auth.User.Id, "member.removed", fiber.Map{"user_id": userID})
	return c.JSON(fiber.Map{"success": true})
}
