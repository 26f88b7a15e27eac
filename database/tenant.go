package database

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"
)

var schemaPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// SchemaName derives the Postgres schema name that holds a tenant's
// sub-application tables from its slug.
func SchemaName(slug string) (string, error) {
	name := "tenant_" + strings.ReplaceAll(strings.ToLower(strings.TrimSpace(slug)), "-", "_")
	if !schemaPattern.MatchString(name) {
		return "", fmt.Errorf("invalid schema name after sanitization: %s", name)
	}
	return name, nil
}

// EnsureTenantSchema creates the tenant's schema if it does not exist yet
// and returns its name.
func EnsureTenantSchema(slug string) (string, error) {
	name, err := SchemaName(slug)
	if err != nil {
		return "", err
	}
	if DB == nil {
		return "", errors.New("database not initialized")
	}
	if err := DB.Exec(`CREATE SCHEMA IF NOT EXISTS "` + name + `"`).Error; err != nil {
		return "", err
	}
	return name, nil
}

// TenantSchemaDB returns a session pinned to the given tenant schema for
// sub-application reads outside a transaction.
func TenantSchemaDB(schema string) (*gorm.DB, error) {
	if !schemaPattern.MatchString(schema) {
		return nil, errors.New("invalid schema name")
	}
	sess := DB.Session(&gorm.Session{NewDB: true})
	if err := sess.Exec(`SET search_path = "` + schema + `", public`).Error; err != nil {
		return nil, fmt.Errorf("set search_path failed: %w", err)
	}
	return sess, nil
}
