package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tenant is the organization-level isolation boundary; nearly every other
// record is scoped by tenant id.
type Tenant struct {
	Id               string    `json:"id" gorm:"primaryKey"`
	Name             string    `json:"name" gorm:"not null"`
	Slug             string    `json:"slug" gorm:"unique;not null"`
	Plan             string    `json:"plan" gorm:"not null;default:free"`
	StripeCustomerId string    `json:"-" gorm:"index"`
	CreatedAt        time.Time `json:"created_at"`
}

func (tenant *Tenant) BeforeCreate(tx *gorm.DB) (err error) {
	if tenant.Id == "" {
		tenant.Id = uuid.NewString()
	}
	return
}

// Membership links a user to a tenant with a role. At most one membership per
// user carries IsDefault: that is the tenant the user is operating as.
type Membership struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserId    string    `json:"user_id" gorm:"uniqueIndex:idx_memberships_user_tenant,priority:1;not null"`
	TenantId  string    `json:"tenant_id" gorm:"uniqueIndex:idx_memberships_user_tenant,priority:2;index;not null"`
	Role      string    `json:"role" gorm:"not null"` // owner | admin | member
	IsDefault bool      `json:"is_default"`
	Tenant    Tenant    `json:"tenant" gorm:"foreignKey:TenantId;references:Id"`
	User      User      `json:"-" gorm:"foreignKey:UserId;references:Id"`
	CreatedAt time.Time `json:"created_at"`
}

// Invite is a pending, tokenized offer of membership.
type Invite struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	TenantId   string     `json:"tenant_id" gorm:"index;not null"`
	Email      string     `json:"email" gorm:"not null"`
	Role       string     `json:"role" gorm:"not null"`
	Token      string     `json:"-" gorm:"uniqueIndex;not null"`
	ExpiresAt  time.Time  `json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at"`
	CreatedAt  time.Time  `json:"created_at"`
}
