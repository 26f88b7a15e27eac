package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Deployment mirrors one Pages deployment triggered through the control
// plane. Status follows the provider's stage names.
type Deployment struct {
	Id             string    `json:"id" gorm:"primaryKey"`
	TenantId       string    `json:"tenant_id" gorm:"index;not null"`
	Project        string    `json:"project" gorm:"not null"`
	Branch         string    `json:"branch"`
	URL            string    `json:"url"`
	Status         string    `json:"status"`
	CfDeploymentId string    `json:"cf_deployment_id"`
	CreatedAt      time.Time `json:"created_at"`
}

func (d *Deployment) BeforeCreate(tx *gorm.DB) (err error) {
	if d.Id == "" {
		d.Id = uuid.NewString()
	}
	return
}

// Domain is a custom hostname attached to a tenant's deployed pages.
type Domain struct {
	Id          string    `json:"id" gorm:"primaryKey"`
	TenantId    string    `json:"tenant_id" gorm:"index;not null"`
	Hostname    string    `json:"hostname" gorm:"unique;not null"`
	DnsRecordId string    `json:"-"`
	Verified    bool      `json:"verified"`
	CreatedAt   time.Time `json:"created_at"`
}

func (d *Domain) BeforeCreate(tx *gorm.DB) (err error) {
	if d.Id == "" {
		d.Id = uuid.NewString()
	}
	return
}
