package controllers

import (
	"encoding/json"

	"controlplane-backend/database"
	"controlplane-backend/logger"
	"controlplane-backend/middlewares"
	"controlplane-backend/models"
	"controlplane-backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// LogActivity appends to the audit trail in the background. Failures are
// swallowed into a debug log; telemetry must never fail the primary path.
func LogActivity(tenantID, userID, action string, meta fiber.Map) {
	var payload []byte
	if meta != nil {
		payload, _ = json.Marshal(meta)
	}
	go func() {
		err := database.DB.Create(&models.Activity{
			TenantId: tenantID,
			UserId:   userID,
			Action:   action,
			Meta:     payload,
		}).Error
		if err != nil {
			logger.L().Debug("activity log insert failed",
				zap.String("action", action), zap.Error(err))
		}
	}()
}

func ListActivity(c *fiber.Ctx) error {
	auth := middlewares.Auth(c)

	limit := utils.ParseIntDefault(c.Query("limit"), 50)
	if limit > 200 {
		limit = 200
	}
	offset := utils.ParseIntDefault(c.Query("offset"), 0)

	var activities []models.Activity
	if err := database.DB.
		Where("tenant_id = ?", auth.Tenant.Id).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&activities).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "activities": activities})
}
