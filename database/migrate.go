package database

import (
	"fmt"

	"controlplane-backend/models"

	"gorm.io/gorm"
)

// MigrateTenantSchema applies (idempotent) migrations for the
// sub-application tables inside one tenant schema. The schema must already
// exist (EnsureTenantSchema).
func MigrateTenantSchema(schema string) error {
	if !schemaPattern.MatchString(schema) {
		return fmt.Errorf("invalid schema name: %s", schema)
	}

	return DB.Transaction(func(tx *gorm.DB) error {
		// Pin the tenant schema for this transaction only.
		if err := tx.Exec(`SET LOCAL search_path = "` + schema + `", public`).Error; err != nil {
			return fmt.Errorf("set search_path failed: %w", err)
		}

		if err := tx.AutoMigrate(
			&models.FormSubmission{},
			&models.PageView{},
		); err != nil {
			return fmt.Errorf("tenant automigrate failed: %w", err)
		}

		indexes := []string{
			`CREATE INDEX IF NOT EXISTS idx_form_submissions_page_submitted ON form_submissions (page, submitted_at)`,
			`CREATE INDEX IF NOT EXISTS idx_page_views_path_viewed ON page_views (path, viewed_at)`,
		}
		for _, stmt := range indexes {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}

		return nil
	})
}
