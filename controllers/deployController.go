package controllers

import (
	"context"
	"errors"
	"os"

	"controlplane-backend/clients"
	"controlplane-backend/database"
	"controlplane-backend/logger"
	"controlplane-backend/middlewares"
	"controlplane-backend/models"
	"controlplane-backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type DeployPageInput struct {
	Project string `json:"project" validate:"required"`
	Branch  string `json:"branch"`
}

type AddDomainInput struct {
	Hostname string `json:"hostname" validate:"required,fqdn"`
}

// DeployPage triggers a Pages deployment for the tenant's project and
// records the result. Provider failures are reported to the caller, who is
// expected to retry; there are no retries here.
func DeployPage(c *fiber.Ctx) error {
	var input DeployPageInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	auth := middlewares.Auth(c)

	project, err := utils.Slugify(input.Project)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid project name"})
	}
	// Pages projects are namespaced per tenant.
	project = auth.Tenant.Slug + "-" + project

	cfDeploy, err := clients.CreatePagesDeployment(c.UserContext(), project, input.Branch)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Deployment failed: "+err.Error())
	}

	deployment := models.Deployment{
		TenantId:       auth.Tenant.Id,
		Project:        project,
		Branch:         input.Branch,
		URL:            cfDeploy.URL,
		Status:         "queued",
		CfDeploymentId: cfDeploy.ID,
	}
	if cfDeploy.LatestStage.Status != "" {
		deployment.Status = cfDeploy.LatestStage.Status
	}
	if err := database.FromCtx(c).Create(&deployment).Error; err != nil {
		return err
	}

	LogActivity(auth.Tenant.Id, userIDOrAPI(auth), "page.deployed", fiber.Map{"project": project})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "deployment": deployment})
}

func ListDeployments(c *fiber.Ctx) error {
	auth := middlewares.Auth(c)

	limit := utils.ParseIntDefault(c.Query("limit"), 20)
	if limit > 100 {
		limit = 100
	}

	var deployments []models.Deployment
	if err := database.DB.
		Where("tenant_id = ?", auth.Tenant.Id).
		Order("created_at DESC").
		Limit(limit).
		Find(&deployments).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "deployments": deployments})
}

// AddDomain attaches a custom hostname: a proxied CNAME at the edge plus a
// Domain row. Hostnames are globally unique.
func AddDomain(c *fiber.Ctx) error {
	var input AddDomainInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	auth := middlewares.Auth(c)
	db := database.FromCtx(c)

	var existing models.Domain
	if err := db.Where("hostname = ?", input.Hostname).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Domain already registered"})
	}

	target := os.Getenv("PAGES_EDGE_TARGET")
	if target == "" {
		target = auth.Tenant.Slug + ".pages.dev"
	}
	record, err := clients.CreateDNSRecord(c.UserContext(), input.Hostname, target)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "DNS provisioning failed: "+err.Error())
	}

	domain := models.Domain{
		TenantId:    auth.Tenant.Id,
		Hostname:    input.Hostname,
		DnsRecordId: record.ID,
		Verified:    true,
	}
	if err := db.Create(&domain).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Domain already registered"})
		}
		return err
	}

	LogActivity(auth.Tenant.Id, userIDOrAPI(auth), "domain.added", fiber.Map{"hostname": input.Hostname})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "domain": domain})
}

func ListDomains(c *fiber.Ctx) error {
	auth := middlewares.Auth(c)

	var domains []models.Domain
	if err := database.DB.
		Where("tenant_id = ?", auth.Tenant.Id).
		Order("created_at DESC").
		Find(&domains).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "domains": domains})
}

// RemoveDomain deletes the row; the edge record removal is best-effort.
func RemoveDomain(c *fiber.Ctx) error {
	auth := middlewares.Auth(c)
	db := database.FromCtx(c)

	var domain models.Domain
	if err := db.Where("id = ? AND tenant_id = ?", c.Params("id"), auth.Tenant.Id).
		First(&domain).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Domain not found"})
	}

	if err := db.Delete(&domain).Error; err != nil {
		return err
	}

	if domain.DnsRecordId != "" {
		recordID := domain.DnsRecordId
		go func() {
			if err := clients.DeleteDNSRecord(context.Background(), recordID); err != nil {
				logger.L().Warn("dns record cleanup failed",
					zap.String("record_id", recordID), zap.Error(err))
			}
		}()
	}

	LogActivity(auth.Tenant.Id, userIDOrAPI(auth), "domain.removed", fiber.Map{"hostname": domain.Hostname})
	return c.JSON(fiber.Map{"success": true})
}
