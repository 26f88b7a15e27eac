package controllers_test

import (
	"testing"

	"controlplane-backend/database"
	"controlplane-backend/middlewares"
	"controlplane-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTenantDuplicateSlug(t *testing.T) {
	app := newTestApp(t)
	token, _, _ := registerUser(t, app, "Ada", "ada@example.com")

	resp, body := request(t, app, fiber.MethodPost, "/api/tenants", fiber.Map{
		"name": "Side Project",
	}, bearer(token))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "side-project", body["tenant"].(map[string]any)["slug"])

	resp, body = request(t, app, fiber.MethodPost, "/api/tenants", fiber.Map{
		"name": "Side Project",
	}, bearer(token))
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Tenant slug already exists", body["error"])
}

func TestListAndSwitchTenants(t *testing.T) {
	app := newTestApp(t)
	token, _, firstTenantID := registerUser(t, app, "Ada", "ada@example.com")

	resp, body := request(t, app, fiber.MethodPost, "/api/tenants", fiber.Map{
		"name": "Second",
	}, bearer(token))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	secondTenantID := body["tenant"].(map[string]any)["id"].(string)

	resp, body = request(t, app, fiber.MethodGet, "/api/tenants", nil, bearer(token))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	tenants := body["tenants"].([]any)
	assert.Len(t, tenants, 2)

	// The registration tenant stays the default until the user switches.
	resp, _ = request(t, app, fiber.MethodPost, "/api/tenants/"+secondTenantID+"/switch", nil, bearer(token))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var defaultMembership models.Membership
	require.NoError(t, database.DB.Where("is_default = ?", true).First(&defaultMembership).Error)
	assert.Equal(t, secondTenantID, defaultMembership.TenantId)
	assert.NotEqual(t, firstTenantID, defaultMembership.TenantId)

	resp, body = request(t, app, fiber.MethodPost, "/api/tenants/not-a-member/switch", nil, bearer(token))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not a member of this tenant", body["error"])
}

func TestUpdateTenant(t *testing.T) {
	app := newTestApp(t)
	token, _, _ := registerUser(t, app, "Ada", "ada@example.com")

	resp, body := request(t, app, fiber.MethodPut, "/api/tenants/current", fiber.Map{
		"name": "Renamed Workspace",
	}, bearer(token))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Renamed Workspace", body["tenant"].(map[string]any)["name"])

	resp, body = request(t, app, fiber.MethodPut, "/api/tenants/current", fiber.Map{}, bearer(token))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Nothing to update", body["error"])
}

func TestLastOwnerProtection(t *testing.T) {
	app := newTestApp(t)
	token, userID, tenantID := registerUser(t, app, "Ada", "ada@example.com")

	// Demoting the only owner is refused.
	resp, body := request(t, app, fiber.MethodPut, "/api/members/"+userID+"/role", fiber.Map{
		"role": "member",
	}, bearer(token))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Cannot demote the last owner", body["error"])

	// Removing them is refused too.
	resp, body = request(t, app, fiber.MethodDelete, "/api/members/"+userID, nil, bearer(token))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Cannot remove the last owner", body["error"])

	// With a second owner on board the demotion goes through.
	other := models.User{Name: "Grace", Email: "grace@example.com"}
	other.SetPassword("password123")
	require.NoError(t, database.DB.Create(&other).Error)
	require.NoError(t, database.DB.Create(&models.Membership{
		UserId: other.Id, TenantId: tenantID, Role: middlewares.RoleOwner,
	}).Error)

	resp, _ = request(t, app, fiber.MethodPut, "/api/members/"+userID+"/role", fiber.Map{
		"role": "admin",
	}, bearer(token))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestMemberRoleGate(t *testing.T) {
	app := newTestApp(t)
	_, _, tenantID := registerUser(t, app, "Ada", "ada@example.com")

	// A plain member of the tenant must not manage members.
	member := models.User{Name: "Mallory", Email: "mallory@example.com"}
	member.SetPassword("password123")
	require.NoError(t, database.DB.Create(&member).Error)
	require.NoError(t, database.DB.Create(&models.Membership{
		UserId: member.Id, TenantId: tenantID, Role: middlewares.RoleMember, IsDefault: true,
	}).Error)
	memberToken, err := middlewares.GenerateJWT(member.Id)
	require.NoError(t, err)

	resp, body := request(t, app, fiber.MethodDelete, "/api/members/some-user", nil, bearer(memberToken))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Insufficient role", body["error"])
}
