package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// APIKey authenticates machine callers. Only the SHA-256 digest of the raw
// key is stored; KeyPrefix exists for human-readable listings, never for
// authentication.
type APIKey struct {
	Id         string         `json:"id" gorm:"primaryKey"`
	TenantId   string         `json:"tenant_id" gorm:"index;not null"`
	Name       string         `json:"name" gorm:"not null"`
	KeyHash    string         `json:"-" gorm:"size:64;uniqueIndex;not null"`
	KeyPrefix  string         `json:"key_prefix"`
	Scopes     datatypes.JSON `json:"scopes"`
	ExpiresAt  *time.Time     `json:"expires_at"`
	IsActive   bool           `json:"is_active" gorm:"default:true"`
	LastUsedAt *time.Time     `json:"last_used_at"`
	LastUsedIp string         `json:"last_used_ip"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (k *APIKey) BeforeCreate(tx *gorm.DB) (err error) {
	if k.Id == "" {
		k.Id = uuid.NewString()
	}
	return
}

// ScopeList decodes the stored scope array; a corrupt column reads as empty.
func (k *APIKey) ScopeList() []string {
	var scopes []string
	if len(k.Scopes) > 0 {
		_ = json.Unmarshal(k.Scopes, &scopes)
	}
	return scopes
}

func (k *APIKey) HasScope(scope string) bool {
	for _, s := range k.ScopeList() {
		if s == scope || s == "*" {
			return true
		}
	}
	return false
}

// Expired reports whether the key carries an expiry that has passed.
func (k *APIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && now.After(*k.ExpiresAt)
}
