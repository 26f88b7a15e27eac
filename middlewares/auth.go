package middlewares

import (
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"controlplane-backend/database"
	"controlplane-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

const (
	authHeader   = "Authorization"
	bearerPrefix = "Bearer "
	authLocal    = "auth"

	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
	// RoleAPIKey marks a request authenticated by API key rather than a user.
	RoleAPIKey = "api"
)

// AuthContext is the per-request credential resolution. Tenant and Role are
// only populated when a default membership (or an API key) resolved one;
// User is nil for API-key requests.
type AuthContext struct {
	User   *models.User
	Tenant *models.Tenant
	Role   string
	Scopes []string
}

// Claims is our JWT payload: subject carries the user id.
type Claims struct {
	jwt.RegisteredClaims
}

var (
	secretOnce sync.Once
	jwtSecret  []byte
	secretErr  error
)

func loadJWTSecret() error {
	secretOnce.Do(func() {
		sec := os.Getenv("JWT_SECRET_KEY")
		if strings.TrimSpace(sec) == "" {
			sec = os.Getenv("JWT_SECRET")
		}
		if strings.TrimSpace(sec) == "" {
			secretErr = errors.New("JWT secret not configured (set JWT_SECRET_KEY or JWT_SECRET)")
			return
		}
		jwtSecret = []byte(sec)
	})
	return secretErr
}

// Auth returns the request's AuthContext, or nil before authentication ran.
func Auth(c *fiber.Ctx) *AuthContext {
	if v := c.Locals(authLocal); v != nil {
		if auth, ok := v.(*AuthContext); ok {
			return auth
		}
	}
	return nil
}

// Authenticate validates a Bearer token, enforces HS256, loads the user and
// resolves their default tenant membership. A user without a default tenant
// is a valid state; gates decide whether a tenant is required.
func Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := loadJWTSecret(); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server auth not configured"})
		}

		h := c.Get(authHeader)
		if h == "" || !strings.HasPrefix(strings.ToLower(h), strings.ToLower(bearerPrefix)) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing authorization header"})
		}
		raw := strings.TrimSpace(h[len(bearerPrefix):])
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		var claims Claims
		token, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
			return jwtSecret, nil
		})
		if err != nil || !token.Valid || strings.TrimSpace(claims.Subject) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		var user models.User
		if err := database.DB.Where("id = ?", claims.Subject).First(&user).Error; err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		auth := &AuthContext{User: &user}
		var membership models.Membership
		err = database.DB.Preload("Tenant").
			Where("user_id = ? AND is_default = ?", user.Id, true).
			First(&membership).Error
		if err == nil {
			auth.Tenant = &membership.Tenant
			auth.Role = membership.Role
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
		}

		c.Locals(authLocal, auth)
		return c.Next()
	}
}

// RequireTenant rejects requests whose credentials resolved no tenant.
func RequireTenant() fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := Auth(c)
		if auth == nil || auth.Tenant == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No tenant found"})
		}
		return c.Next()
	}
}

// RequireRoles rejects credentials whose role is outside the allow-list.
func RequireRoles(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := Auth(c)
		if auth == nil || auth.Role == "" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient role"})
		}
		for _, r := range roles {
			if auth.Role == r {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient role"})
	}
}

// GenerateJWT signs a new HS256 token for the given user, expiring in 24h.
func GenerateJWT(userID string) (string, error) {
	if err := loadJWTSecret(); err != nil {
		return "", err
	}
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}
