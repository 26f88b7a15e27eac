package controllers

import (
	"encoding/json"
	"errors"
	"os"
	"time"

	"controlplane-backend/clients"
	"controlplane-backend/database"
	"controlplane-backend/logger"
	"controlplane-backend/middlewares"
	"controlplane-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CheckoutInput struct {
	Plan string `json:"plan" validate:"required,oneof=pro business"`
}

func priceIDForPlan(plan string) string {
	switch plan {
	case "pro":
		return os.Getenv("STRIPE_PRICE_PRO")
	case "business":
		return os.Getenv("STRIPE_PRICE_BUSINESS")
	}
	return ""
}

func planForPriceID(priceID string) string {
	switch priceID {
	case os.Getenv("STRIPE_PRICE_PRO"):
		return "pro"
	case os.Getenv("STRIPE_PRICE_BUSINESS"):
		return "business"
	}
	return ""
}

// CreateCheckoutSession starts a subscription checkout for the current
// tenant, creating the payment-processor customer on first use.
func CreateCheckoutSession(c *fiber.Ctx) error {
	var input CheckoutInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	auth := middlewares.Auth(c)

	priceID := priceIDForPlan(input.Plan)
	if priceID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown plan"})
	}

	db := database.FromCtx(c)
	customerID := auth.Tenant.StripeCustomerId
	if customerID == "" {
		email := ""
		if auth.User != nil {
			email = auth.User.Email
		}
		id, err := clients.EnsureCustomer(auth.Tenant.Id, auth.Tenant.Name, email)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Billing provider error: "+err.Error())
		}
		customerID = id
		if err := db.Model(&models.Tenant{}).
			Where("id = ?", auth.Tenant.Id).
			Update("stripe_customer_id", customerID).Error; err != nil {
			return err
		}
	}

	base := os.Getenv("APP_BASE_URL")
	sess, err := clients.NewCheckoutSession(customerID, priceID,
		base+"/billing/success?session_id={CHECKOUT_SESSION_ID}", base+"/billing/cancel")
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Billing provider error: "+err.Error())
	}

	LogActivity(auth.Tenant.Id, userIDOrAPI(auth), "billing.checkout_started", fiber.Map{"plan": input.Plan})
	return c.JSON(fiber.Map{"success": true, "url": sess.URL})
}

// CreatePortalSession opens the billing portal for self-service management.
func CreatePortalSession(c *fiber.Ctx) error {
	auth := middlewares.Auth(c)
	if auth.Tenant.StripeCustomerId == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No billing account for this tenant"})
	}

	sess, err := clients.NewPortalSession(auth.Tenant.StripeCustomerId, os.Getenv("APP_BASE_URL")+"/billing")
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Billing provider error: "+err.Error())
	}
	return c.JSON(fiber.Map{"success": true, "url": sess.URL})
}

// GetSubscription returns the mirrored subscription state; tenants without
// one are on the free plan.
func GetSubscription(c *fiber.Ctx) error {
	auth := middlewares.Auth(c)

	var sub models.Subscription
	if err := database.DB.Where("tenant_id = ?", auth.Tenant.Id).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(fiber.Map{"success": true, "subscription": fiber.Map{"plan": "free", "status": "none"}})
		}
		return err
	}
	return c.JSON(fiber.Map{"success": true, "subscription": sub})
}

// StripeWebhook ingests provider events. Signature is verified against the
// endpoint secret; events are deduplicated by id so provider retries are
// harmless. Registered outside auth and the idempotency middleware.
func StripeWebhook(c *fiber.Ctx) error {
	event, err := clients.VerifyWebhook(c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid signature"})
	}

	record := models.BillingEvent{StripeEventId: event.ID, Type: string(event.Type)}
	if err := database.DB.Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Already processed.
			return c.JSON(fiber.Map{"received": true})
		}
		return err
	}

	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		if err := applySubscriptionEvent(event); err != nil {
			// Drop the dedupe row so the provider's retry of this event is
			// processed again instead of acknowledged as a duplicate.
			database.DB.Delete(&record)
			logger.L().Error("subscription event apply failed",
				zap.String("event_id", event.ID), zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "Event processing failed")
		}
	default:
		logger.L().Debug("ignoring webhook event", zap.String("type", string(event.Type)))
	}

	return c.JSON(fiber.Map{"received": true})
}

func applySubscriptionEvent(event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return err
	}
	if sub.Customer == nil {
		return errors.New("subscription event without customer")
	}

	var tenant models.Tenant
	if err := database.DB.Where("stripe_customer_id = ?", sub.Customer.ID).First(&tenant).Error; err != nil {
		return err
	}

	plan := "free"
	priceID := ""
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		priceID = sub.Items.Data[0].Price.ID
		if p := planForPriceID(priceID); p != "" && sub.Status == stripe.SubscriptionStatusActive {
			plan = p
		}
	}
	if event.Type == "customer.subscription.deleted" {
		plan = "free"
	}

	periodEnd := time.Unix(sub.CurrentPeriodEnd, 0)
	mirror := models.Subscription{
		TenantId:             tenant.Id,
		StripeSubscriptionId: sub.ID,
		Status:               string(sub.Status),
		Plan:                 plan,
		PriceId:              priceID,
		CurrentPeriodEnd:     &periodEnd,
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
	}

	return database.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.Subscription
		if err := tx.Where("tenant_id = ?", tenant.Id).First(&existing).Error; err == nil {
			mirror.ID = existing.ID
			mirror.CreatedAt = existing.CreatedAt
			if err := tx.Save(&mirror).Error; err != nil {
				return err
			}
		} else if err := tx.Create(&mirror).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.BillingEvent{}).
			Where("stripe_event_id = ?", event.ID).
			Update("tenant_id", tenant.Id).Error; err != nil {
			return err
		}
		return tx.Model(&models.Tenant{}).
			Where("id = ?", tenant.Id).
			Update("plan", plan).Error
	})
}
