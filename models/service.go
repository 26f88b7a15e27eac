package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ServiceStatusActive     = "active"
	ServiceStatusDeprecated = "deprecated"
)

// Service is a catalog entry describing a platform capability tenants can
// discover and call.
type Service struct {
	Id          string         `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name" gorm:"not null"`
	Slug        string         `json:"slug" gorm:"unique;not null"`
	Description string         `json:"description"`
	Category    string         `json:"category" gorm:"index"`
	Endpoint    string         `json:"endpoint"`
	MinPlan     string         `json:"min_plan" gorm:"default:free"`
	Status      string         `json:"status" gorm:"default:active"`
	Config      datatypes.JSON `json:"config"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (s *Service) BeforeCreate(tx *gorm.DB) (err error) {
	if s.Id == "" {
		s.Id = uuid.NewString()
	}
	return
}
