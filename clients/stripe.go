package clients

import (
	"os"

	"github.com/stripe/stripe-go/v76"
	bpsession "github.com/stripe/stripe-go/v76/billingportal/session"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/customer"
	"github.com/stripe/stripe-go/v76/webhook"
)

// InitStripe wires the package-global Stripe key; call once at startup.
func InitStripe() {
	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
}

// EnsureCustomer creates a Stripe customer tagged with the tenant id.
func EnsureCustomer(tenantID, name, email string) (string, error) {
	params := &stripe.CustomerParams{
		Name:  stripe.String(name),
		Email: stripe.String(email),
	}
	params.AddMetadata("tenant_id", tenantID)
	cust, err := customer.New(params)
	if err != nil {
		return "", err
	}
	return cust.ID, nil
}

// NewCheckoutSession starts a subscription checkout for the given price.
func NewCheckoutSession(customerID, priceID, successURL, cancelURL string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
	}
	return session.New(params)
}

// NewPortalSession opens the customer billing portal.
func NewPortalSession(customerID, returnURL string) (*stripe.BillingPortalSession, error) {
	return bpsession.New(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	})
}

// VerifyWebhook checks the Stripe-Signature header against the configured
// endpoint secret and returns the parsed event.
func VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, os.Getenv("STRIPE_WEBHOOK_SECRET"))
}
