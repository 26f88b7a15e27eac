package models

import "time"

// Secret is a tenant-scoped named secret. The value lives either in Vault
// (VaultBacked) or encrypted in Nonce/Ciphertext; it is never serialized.
type Secret struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	TenantId    string    `json:"tenant_id" gorm:"uniqueIndex:idx_secrets_tenant_name,priority:1;not null"`
	Name        string    `json:"name" gorm:"uniqueIndex:idx_secrets_tenant_name,priority:2;not null"`
	VaultBacked bool      `json:"-"`
	Nonce       []byte    `json:"-"`
	Ciphertext  []byte    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
