package controllers

import (
	"time"

	"controlplane-backend/clients"
	"controlplane-backend/database"
	"controlplane-backend/logger"
	"controlplane-backend/middlewares"
	"controlplane-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const inviteTTL = 7 * 24 * time.Hour

type CreateInviteInput struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=admin member"`
}

type AcceptInviteInput struct {
	Token string `json:"token" validate:"required"`
}

// CreateInvite issues a tokenized membership offer and emails it
// (best-effort; delivery failure never fails the invite).
func CreateInvite(c *fiber.Ctx) error {
	var input CreateInviteInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	auth := middlewares.Auth(c)

	invite := models.Invite{
		TenantId:  auth.Tenant.Id,
		Email:     input.Email,
		Role:      input.Role,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(inviteTTL),
	}
	if err := database.FromCtx(c).Create(&invite).Error; err != nil {
		return err
	}

	tenantName := auth.Tenant.Name
	go func(invite models.Invite) {
		if err := clients.SendInviteEmail(invite.Email, tenantName, invite.Role, invite.Token); err != nil {
			logger.L().Warn("invite email delivery failed",
				zap.String("email", invite.Email), zap.Error(err))
		}
	}(invite)

	LogActivity(auth.Tenant.Id, auth.User.Id, "invite.created", fiber.Map{"email": input.Email, "role": input.Role})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"invite":  invite,
		"token":   invite.Token,
	})
}

// ListInvites lists pending (unaccepted) invites for the current tenant.
func ListInvites(c *fiber.Ctx) error {
	auth := middlewares.Auth(c)

	var invites []models.Invite
	if err := database.DB.
		Where("tenant_id = ? AND accepted_at IS NULL", auth.Tenant.Id).
		Order("created_at DESC").
		Find(&invites).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "invites": invites})
}

// RevokeInvite deletes a pending invite.
func RevokeInvite(c *fiber.Ctx) error {
	auth := middlewares.Auth(c)

	res := database.FromCtx(c).
		Where("id = ? AND tenant_id = ? AND accepted_at IS NULL", c.Params("id"), auth.Tenant.Id).
		Delete(&models.Invite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Invite not found"})
	}
	return c.JSON(fiber.Map{"success": true})
}

// AcceptInvite redeems an invite token for the authenticated user. Expired
// tokens are rejected with 400 no matter how often they are retried.
func AcceptInvite(c *fiber.Ctx) error {
	var input AcceptInviteInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	auth := middlewares.Auth(c)
	db := database.FromCtx(c)

	var invite models.Invite
	if err := db.Where("token = ?", input.Token).First(&invite).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Invite not found"})
	}
	if invite.AcceptedAt != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Invite already accepted"})
	}
	if time.Now().After(invite.ExpiresAt) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invite has expired"})
	}

	var existing models.Membership
	if err := db.Where("user_id = ? AND tenant_id = ?", auth.User.Id, invite.TenantId).
		First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Already a member of this tenant"})
	}

	// First membership becomes the default.
	var defaults int64
	db.Model(&models.Membership{}).
		Where("user_id = ? AND is_default = ?", auth.User.Id, true).
		Count(&defaults)

	membership := models.Membership{
		UserId:    auth.User.Id,
		TenantId:  invite.TenantId,
		Role:      invite.Role,
		IsDefault: defaults == 0,
	}
	if err := db.Create(&membership).Error; err != nil {
		return err
	}

	now := time.Now()
	if err := db.Model(&invite).Update("accepted_at", &now).Error; err != nil {
		return err
	}

	LogActivity(invite.TenantId, auth.User.Id, "invite.accepted", fiber.Map{"role": invite.Role})
	return c.JSON(fiber.Map{"success": true, "tenant_id": invite.TenantId, "role": invite.Role})
}
