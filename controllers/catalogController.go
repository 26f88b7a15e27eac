package controllers

import (
	"errors"

	"controlplane-backend/database"
	"controlplane-backend/middlewares"
	"controlplane-backend/models"
	"controlplane-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RegisterServiceInput struct {
	Name        string         `json:"name" validate:"required"`
	Slug        string         `json:"slug"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Endpoint    string         `json:"endpoint" validate:"omitempty,url"`
	MinPlan     string         `json:"min_plan" validate:"omitempty,oneof=free pro business"`
	Config      datatypes.JSON `json:"config"`
}

type UpdateServiceInput struct {
	Name        *string `json:"name" validate:"omitempty,min=1"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Endpoint    *string `json:"endpoint" validate:"omitempty,url"`
	MinPlan     *string `json:"min_plan" validate:"omitempty,oneof=free pro business"`
}

// ListServices is the catalog discovery endpoint: active services,
// filterable by category and the caller's plan.
func ListServices(c *fiber.Ctx) error {
	q := database.DB.Where("status = ?", models.ServiceStatusActive)
	if category := c.Query("category"); category != "" {
		q = q.Where("category = ?", category)
	}
	if auth := middlewares.Auth(c); auth != nil && auth.Tenant != nil && c.QueryBool("available") {
		q = q.Where("min_plan IN ?", plansUpTo(auth.Tenant.Plan))
	}

	var services []models.Service
	if err := q.Order("name").Find(&services).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "services": services})
}

// plansUpTo returns the plan tiers at or below the given plan.
func plansUpTo(plan string) []string {
	switch plan {
	case "business":
		return []string{"free", "pro", "business"}
	case "pro":
		return []string{"free", "pro"}
	default:
		return []string{"free"}
	}
}

func GetService(c *fiber.Ctx) error {
	var service models.Service
	if err := database.DB.Where("slug = ?", c.Params("slug")).First(&service).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Service not found"})
	}
	return c.JSON(fiber.Map{"success": true, "service": service})
}

// RegisterService adds a catalog entry. Admin-key gated (route).
func RegisterService(c *fiber.Ctx) error {
	var input RegisterServiceInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}

	source := input.Slug
	if source == "" {
		source = input.Name
	}
	slug, err := utils.Slugify(source)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid slug"})
	}

	minPlan := input.MinPlan
	if minPlan == "" {
		minPlan = "free"
	}
	service := models.Service{
		Name:        input.Name,
		Slug:        slug,
		Description: input.Description,
		Category:    input.Category,
		Endpoint:    input.Endpoint,
		MinPlan:     minPlan,
		Status:      models.ServiceStatusActive,
		Config:      input.Config,
	}
	if err := database.DB.Create(&service).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Service slug already exists"})
		}
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "service": service})
}

// UpdateService patches a catalog entry. Admin-key gated (route).
func UpdateService(c *fiber.Ctx) error {
	var input UpdateServiceInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&input)
	updates := utils.UpdatesFromPtrDTO(&input, nil)
	if len(updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Nothing to update"})
	}

	res := database.DB.Model(&models.Service{}).
		Where("slug = ?", c.Params("slug")).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Service not found"})
	}
	return c.JSON(fiber.Map{"success": true})
}

// DeprecateService hides a service from discovery without deleting it.
func DeprecateService(c *fiber.Ctx) error {
	res := database.DB.Model(&models.Service{}).
		Where("slug = ?", c.Params("slug")).
		Update("status", models.ServiceStatusDeprecated)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Service not found"})
	}
	return c.JSON(fiber.Map{"success": true})
}
