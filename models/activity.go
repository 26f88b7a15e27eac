package models

import (
	"time"

	"gorm.io/datatypes"
)

// Activity is the append-only audit trail. Writes are best-effort and must
// never fail a primary operation.
type Activity struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	TenantId  string         `json:"tenant_id" gorm:"index;not null"`
	UserId    string         `json:"user_id"`
	Action    string         `json:"action" gorm:"not null"`
	Meta      datatypes.JSON `json:"meta"`
	CreatedAt time.Time      `json:"created_at" gorm:"index"`
}
