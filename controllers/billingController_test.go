package controllers_test

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"controlplane-backend/database"
	"controlplane-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

// signedWebhook delivers a raw payload to the webhook endpoint with a valid
// Stripe-Signature computed from the configured endpoint secret.
func signedWebhook(t *testing.T, app *fiber.App, payload []byte) (*http.Response, map[string]any) {
	t.Helper()
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(os.Getenv("STRIPE_WEBHOOK_SECRET")))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	sig := fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))

	req := httptest.NewRequest(fiber.MethodPost, "/api/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", sig)
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

func TestStripeWebhookRejectsInvalidSignature(t *testing.T) {
	app := newTestApp(t)

	// No signature header at all.
	resp, body := request(t, app, fiber.MethodPost, "/api/webhooks/stripe", fiber.Map{
		"id": "evt_test", "type": "customer.subscription.updated",
	}, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid signature", body["error"])

	// A forged signature.
	resp, body = request(t, app, fiber.MethodPost, "/api/webhooks/stripe", fiber.Map{
		"id": "evt_test", "type": "customer.subscription.updated",
	}, map[string]string{"Stripe-Signature": "t=1,v1=deadbeef"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid signature", body["error"])
}

func TestStripeWebhookRetryAfterFailedApply(t *testing.T) {
	app := newTestApp(t)

	payload := []byte(fmt.Sprintf(`{"id":"evt_retry_1","api_version":%q,"type":"customer.subscription.created","data":{"object":{"id":"sub_retry","customer":"cus_retry","status":"active","current_period_end":1700000000,"items":{"data":[]}}}}`, stripe.APIVersion))

	// No tenant carries this customer id yet, so applying the event fails.
	resp, body := signedWebhook(t, app, payload)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Event processing failed", body["error"])

	// The failed event must not be remembered as processed.
	var events int64
	database.DB.Model(&models.BillingEvent{}).Count(&events)
	assert.EqualValues(t, 0, events)

	tenant := models.Tenant{Name: "Retry Co", Slug: "retry-co", StripeCustomerId: "cus_retry"}
	require.NoError(t, database.DB.Create(&tenant).Error)

	// An identical provider retry is processed, not acknowledged as a dupe.
	resp, body = signedWebhook(t, app, payload)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["received"])

	var sub models.Subscription
	require.NoError(t, database.DB.Where("tenant_id = ?", tenant.Id).First(&sub).Error)
	assert.Equal(t, "active", sub.Status)
	database.DB.Model(&models.BillingEvent{}).Count(&events)
	assert.EqualValues(t, 1, events)

	// A retry after successful processing is the duplicate case.
	resp, body = signedWebhook(t, app, payload)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["received"])
	var subs int64
	database.DB.Model(&models.Subscription{}).Count(&subs)
	assert.EqualValues(t, 1, subs)
}

func TestGetSubscriptionDefaultsToFree(t *testing.T) {
	app := newTestApp(t)
	token, _, _ := registerUser(t, app, "Ada", "ada@example.com")

	resp, body := request(t, app, fiber.MethodGet, "/api/billing/subscription", nil, bearer(token))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	sub := body["subscription"].(map[string]any)
	assert.Equal(t, "free", sub["plan"])
	assert.Equal(t, "none", sub["status"])
}

func TestCheckoutRejectsUnknownPlan(t *testing.T) {
	app := newTestApp(t)
	token, _, _ := registerUser(t, app, "Ada", "ada@example.com")

	resp, body := request(t, app, fiber.MethodPost, "/api/billing/checkout", fiber.Map{
		"plan": "enterprise",
	}, bearer(token))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation failed", body["error"])
}

func TestPortalWithoutBillingAccount(t *testing.T) {
	app := newTestApp(t)
	token, _, _ := registerUser(t, app, "Ada", "ada@example.com")

	resp, body := request(t, app, fiber.MethodPost, "/api/billing/portal", nil, bearer(token))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No billing account for this tenant", body["error"])
}
