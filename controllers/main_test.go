package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"controlplane-backend/database"
	"controlplane-backend/middlewares"
	"controlplane-backend/models"
	"controlplane-backend/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	// Once-loaded process config has to be in place before the first request.
	os.Setenv("JWT_SECRET_KEY", "test-secret")
	os.Setenv("SECRETS_KEY", strings.Repeat("ab", 32))
	os.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_test")
	os.Exit(m.Run())
}

// newTestApp wires the full route tree against a fresh in-memory store.
func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Tenant{},
		&models.Membership{},
		&models.Invite{},
		&models.APIKey{},
		&models.Secret{},
		&models.Service{},
		&models.Deployment{},
		&models.Domain{},
		&models.Subscription{},
		&models.BillingEvent{},
		&models.Activity{},
		&models.CronJob{},
		&models.IdempotencyKey{},
	))
	database.DB = db
	middlewares.UseRateLimitStore(middlewares.NewMemoryStore())

	app := fiber.New(fiber.Config{ErrorHandler: middlewares.ErrorHandler})
	app.Use(middlewares.CORS())
	routes.Register(app)
	return app
}

func request(t *testing.T, app *fiber.App, method, path string, body any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp, out
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// registerUser creates an account through the public endpoint and returns a
// token for it plus the ids of the personal tenant it provisioned.
func registerUser(t *testing.T, app *fiber.App, name, email string) (token, userID, tenantID string) {
	t.Helper()
	resp, body := request(t, app, fiber.MethodPost, "/api/registration", fiber.Map{
		"name":     name,
		"email":    email,
		"password": "password123",
	}, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, "registration body: %v", body)

	user := body["user"].(map[string]any)
	tenant := body["tenant"].(map[string]any)
	userID = user["id"].(string)
	tenantID = tenant["id"].(string)

	token, err := middlewares.GenerateJWT(userID)
	require.NoError(t, err)
	return token, userID, tenantID
}
