package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"controlplane-backend/controllers"
	"controlplane-backend/middlewares"
)

// Register wires all HTTP routes.
func Register(app *fiber.App) {
	api := app.Group("/api")

	// Public auth endpoints (tight per-route limits on credentials)
	api.Post("/registration", middlewares.RateLimit(10, time.Minute), controllers.Register)
	api.Post("/login", middlewares.RateLimit(10, time.Minute), controllers.Login)
	api.Post("/logout", controllers.Logout)

	// Billing webhook: signature-verified, no auth, no idempotency wrapper
	// (the provider event id already deduplicates).
	api.Post("/webhooks/stripe", controllers.StripeWebhook)

	// Admin surface: static shared-secret capability gate
	admin := api.Group("", middlewares.RequireAdminKey())
	admin.Post("/manage-cron", controllers.ManageCron)
	admin.Post("/admin/migrate-tenant", controllers.MigrateTenant)
	admin.Get("/admin/stats", controllers.PlatformStats)
	admin.Post("/admin/services", controllers.RegisterService)
	admin.Put("/admin/services/:slug", controllers.UpdateService)
	admin.Delete("/admin/services/:slug", controllers.DeprecateService)

	// Protected endpoints: bearer JWT or API key
	protected := api.Group("", middlewares.AuthenticateOrAPIKey())

	// Idempotency guard FIRST (not tied to the request TX)
	protected.Use(middlewares.Idempotency())

	// Then the per-request transaction (commits/rolls back around handlers)
	protected.Use(middlewares.RequestTx())

	protected.Get("/me", controllers.Me)

	// Tenants & memberships
	protected.Post("/tenants", controllers.CreateTenant)
	protected.Get("/tenants", controllers.ListTenants)
	// Switching works without a current default (e.g. right after accepting
	// a first invite).
	protected.Post("/tenants/:id/switch", controllers.SwitchTenant)
	protected.Post("/invites/accept", controllers.AcceptInvite)

	// Everything below requires a resolved tenant
	tenant := protected.Group("", middlewares.RequireTenant())
	tenant.Use(middlewares.RateLimitByTenant(240, time.Minute))

	tenant.Put("/tenants/current", middlewares.RequireRoles(middlewares.RoleOwner, middlewares.RoleAdmin), controllers.UpdateTenant)
	tenant.Get("/members", controllers.ListMembers)
	tenant.Put("/members/:userId/role", middlewares.RequireRoles(middlewares.RoleOwner), controllers.UpdateMemberRole)
	tenant.Delete("/members/:userId", middlewares.RequireRoles(middlewares.RoleOwner), controllers.RemoveMember)

	// Invites
	tenant.Post("/invites", middlewares.RequireRoles(middlewares.RoleOwner, middlewares.RoleAdmin), controllers.CreateInvite)
	tenant.Get("/invites", middlewares.RequireRoles(middlewares.RoleOwner, middlewares.RoleAdmin), controllers.ListInvites)
	tenant.Delete("/invites/:id", middlewares.RequireRoles(middlewares.RoleOwner, middlewares.RoleAdmin), controllers.RevokeInvite)

	// API keys
	tenant.Post("/api-keys", middlewares.RequireRoles(middlewares.RoleOwner, middlewares.RoleAdmin), controllers.CreateAPIKey)
	tenant.Get("/api-keys", middlewares.RequireRoles(middlewares.RoleOwner, middlewares.RoleAdmin), controllers.ListAPIKeys)
	tenant.Delete("/api-keys/:id", middlewares.RequireRoles(middlewares.RoleOwner, middlewares.RoleAdmin), controllers.RevokeAPIKey)

	// Secrets / vault
	tenant.Post("/secrets", middlewares.RequireRoles(middlewares.RoleOwner, middlewares.RoleAdmin), middlewares.RequireScopes("secrets"), controllers.SetSecret)
	tenant.Get("/secrets", middlewares.RequireScopes("secrets"), controllers.ListSecrets)
	tenant.Get("/secrets/:name", middlewares.RequireRoles(middlewares.RoleOwner, middlewares.RoleAdmin), middlewares.RequireScopes("secrets"), controllers.GetSecret)
	tenant.Delete("/secrets/:name", middlewares.RequireRoles(middlewares.RoleOwner, middlewares.RoleAdmin), middlewares.RequireScopes("secrets"), controllers.DeleteSecret)

	// Service catalog discovery
	tenant.Get("/services", controllers.ListServices)
	tenant.Get("/services/:slug", controllers.GetService)

	// Billing
	tenant.Post("/billing/checkout", middlewares.RequireRoles(middlewares.RoleOwner, middlewares.RoleAdmin), controllers.CreateCheckoutSession)
	tenant.Post("/billing/portal", middlewares.RequireRoles(middlewares.RoleOwner, middlewares.RoleAdmin), controllers.CreatePortalSession)
	tenant.Get("/billing/subscription", controllers.GetSubscription)

	// Deployments & domains
	tenant.Post("/deployments", middlewares.RequireScopes("deploy"), controllers.DeployPage)
	tenant.Get("/deployments", controllers.ListDeployments)
	tenant.Post("/domains", middlewares.RequireRoles(middlewares.RoleOwner, middlewares.RoleAdmin), middlewares.RequireScopes("deploy"), controllers.AddDomain)
	tenant.Get("/domains", controllers.ListDomains)
	tenant.Delete("/domains/:id", middlewares.RequireRoles(middlewares.RoleOwner, middlewares.RoleAdmin), controllers.RemoveDomain)

	// Activity log
	tenant.Get("/activity", controllers.ListActivity)

	// MCP façade
	tenant.Post("/mcp", middlewares.RequireScopes("mcp"), controllers.HandleMCP)
}
