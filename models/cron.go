package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CronJob is a platform-level scheduled job managed through the admin
// surface. Execution itself happens outside this service.
type CronJob struct {
	Id        string     `json:"id" gorm:"primaryKey"`
	Name      string     `json:"name" gorm:"unique;not null"`
	Spec      string     `json:"spec" gorm:"not null"`
	Command   string     `json:"command" gorm:"not null"`
	Enabled   bool       `json:"enabled" gorm:"default:true"`
	NextRunAt *time.Time `json:"next_run_at"`
	CreatedAt time.Time  `json:"created_at"`
}

func (j *CronJob) BeforeCreate(tx *gorm.DB) (err error) {
	if j.Id == "" {
		j.Id = uuid.NewString()
	}
	return
}
