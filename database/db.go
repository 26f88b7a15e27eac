package database

import (
	"fmt"
	"os"

	"controlplane-backend/logger"
	"controlplane-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Connect() {
	if err := godotenv.Load(); err != nil {
		logger.L().Debug("no .env file loaded", zap.Error(err))
	}

	host := os.Getenv("DB_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "5432"
	}
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		host, os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"), os.Getenv("DB_NAME"), port)

	var err error
	// TranslateError turns driver unique-violations into gorm.ErrDuplicatedKey,
	// which the error handler maps to 409.
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.L().Fatal("could not connect to database", zap.Error(err))
	}
}

// AutoMigrate applies the control-plane tables. All of these are tenant-id
// scoped in public; per-tenant schemas are handled by MigrateTenantSchema.
func AutoMigrate() {
	if err := DB.AutoMigrate(
		&models.User{},
		&models.Tenant{},
		&models.Membership{},
		&models.Invite{},
		&models.APIKey{},
		&models.Secret{},
		&models.Service{},
		&models.Deployment{},
		&models.Domain{},
		&models.Subscription{},
		&models.BillingEvent{},
		&models.Activity{},
		&models.CronJob{},
		&models.IdempotencyKey{},
	); err != nil {
		logger.L().Fatal("automigrate failed", zap.Error(err))
	}
}

// FromCtx returns the per-request transaction when middlewares.RequestTx is
// active, else the shared connection.
func FromCtx(c *fiber.Ctx) *gorm.DB {
	if v := c.Locals("tx"); v != nil {
		if tx, ok := v.(*gorm.DB); ok && tx != nil {
			return tx
		}
	}
	return DB
}
