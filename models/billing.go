package models

import (
	"time"

	"gorm.io/datatypes"
)

// Subscription mirrors the billing provider's subscription state for a
// tenant. The provider remains the source of truth; this row is refreshed
// from webhooks.
type Subscription struct {
	ID                   uint           `json:"id" gorm:"primaryKey"`
	TenantId             string         `json:"tenant_id" gorm:"uniqueIndex;not null"`
	StripeSubscriptionId string         `json:"stripe_subscription_id" gorm:"unique"`
	Status               string         `json:"status"`
	Plan                 string         `json:"plan"`
	PriceId              string         `json:"price_id"`
	CurrentPeriodEnd     *time.Time     `json:"current_period_end"`
	CancelAtPeriodEnd    bool           `json:"cancel_at_period_end"`
	Raw                  datatypes.JSON `json:"-"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// BillingEvent records each successfully processed webhook event; the unique
// event id is what makes webhook handling idempotent under provider retries.
// Rows for events whose apply failed are removed so retries reprocess them.
type BillingEvent struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	StripeEventId string    `json:"stripe_event_id" gorm:"uniqueIndex;not null"`
	Type          string    `json:"type"`
	TenantId      string    `json:"tenant_id" gorm:"index"`
	CreatedAt     time.Time `json:"created_at"`
}
