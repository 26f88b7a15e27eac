package models

import (
	"time"

	"gorm.io/datatypes"
)

// Sub-application runtime tables. Unlike the control-plane models these are
// NOT tenant-id scoped in public: each tenant gets its own schema holding
// them (see database.MigrateTenantSchema).

// FormSubmission captures a form post against a tenant's deployed pages.
type FormSubmission struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Page        string         `json:"page" gorm:"index"`
	Payload     datatypes.JSON `json:"payload"`
	SubmittedAt time.Time      `json:"submitted_at"`
}

// PageView is a single recorded visit on a tenant's deployed pages.
type PageView struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Path        string    `json:"path" gorm:"index"`
	Referrer    string    `json:"referrer"`
	VisitorHash string    `json:"visitor_hash"`
	ViewedAt    time.Time `json:"viewed_at"`
}
