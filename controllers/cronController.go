package controllers

import (
	"errors"
	"time"

	"controlplane-backend/database"
	"controlplane-backend/middlewares"
	"controlplane-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/influxdata/cron"
	"gorm.io/gorm"
)

type ManageCronInput struct {
	Action  string `json:"action" validate:"required,oneof=list create delete"`
	Name    string `json:"name"`
	Spec    string `json:"spec"`
	Command string `json:"command"`
}

// ManageCron is the admin-key-gated cron manager: a single action-
// discriminated endpoint. Jobs are stored here; execution happens in the
// platform scheduler.
func ManageCron(c *fiber.Ctx) error {
	var input ManageCronInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}

	switch input.Action {
	case "list":
		jobs := []models.CronJob{}
		if err := database.DB.Order("name").Find(&jobs).Error; err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true, "jobs": jobs})

	case "create":
		if input.Name == "" || input.Spec == "" || input.Command == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "name, spec and command are required",
				"example": fiber.Map{"action": "create", "name": "nightly-report", "spec": "0 3 * * *", "command": "reports:nightly"},
			})
		}
		parsed, err := cron.ParseUTC(input.Spec)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid cron expression"})
		}
		next, err := parsed.Next(time.Now().UTC())
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid cron expression"})
		}

		job := models.CronJob{
			Name:      input.Name,
			Spec:      input.Spec,
			Command:   input.Command,
			Enabled:   true,
			NextRunAt: &next,
		}
		if err := database.DB.Create(&job).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Cron job name already exists"})
			}
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "job": job})

	case "delete":
		if input.Name == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
		}
		res := database.DB.Where("name = ?", input.Name).Delete(&models.CronJob{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Cron job not found"})
		}
		return c.JSON(fiber.Map{"success": true})
	}

	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown action"})
}
