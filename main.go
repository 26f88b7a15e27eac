package main

import (
	"os"
	"strconv"
	"time"

	"controlplane-backend/clients"
	"controlplane-backend/database"
	"controlplane-backend/logger"
	"controlplane-backend/middlewares"
	"controlplane-backend/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// envInt reads an int env var with a default fallback.
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func main() {
	logger.Init()
	defer logger.Sync()

	// ---- Database (public schema, tenant-id scoped tables)
	database.Connect()
	database.AutoMigrate()

	// ---- Third-party clients
	clients.InitStripe()

	// ---- Rate limiting: Redis when configured, else per-process memory
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		middlewares.UseRateLimitStore(middlewares.NewRedisStore(client))
		logger.L().Info("rate limiting backed by redis", zap.String("addr", addr))
	}

	// ---- Fiber app with global error handler + body limit
	bodyLimitBytes := envInt("BODY_LIMIT_BYTES", 0)
	if bodyLimitBytes <= 0 {
		bodyLimitBytes = envInt("BODY_LIMIT_MB", 4) * 1024 * 1024
	}
	app := fiber.New(fiber.Config{
		ErrorHandler: middlewares.ErrorHandler,
		BodyLimit:    bodyLimitBytes,
	})

	// ---- CORS (answers preflight before anything else runs)
	app.Use(middlewares.CORS())

	// ---- Global rate limiter, keyed client IP + path
	rlMax := envInt("RATE_LIMIT_MAX", 60)
	rlWindow := time.Duration(envInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second
	app.Use(middlewares.RateLimit(rlMax, rlWindow))

	// ---- Routes
	routes.Register(app)

	// ---- Start
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	logger.L().Info("control plane listening", zap.String("port", port))
	if err := app.Listen(":" + port); err != nil {
		logger.L().Fatal("server exited", zap.Error(err))
	}
}
