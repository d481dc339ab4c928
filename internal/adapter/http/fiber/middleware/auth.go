package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/seu-repo/agrovoz/internal/domain"
	"github.com/seu-repo/agrovoz/internal/ports"
)

// Locals keys set by AuthRequired.
const (
	LocalUserID = "user_id"
	LocalFarmID = "farm_id"
	LocalRole   = "user_role"
	LocalUser   = "user"
	LocalToken  = "token"
)

// PermissionChecker decides whether a role may perform action on resource.
type PermissionChecker interface {
	CheckPermission(role domain.UserRole, resource, action string) bool
}

func AuthRequired(service ports.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := BearerToken(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing or invalid authorization header"})
		}

		user, err := service.ValidateToken(c.UserContext(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		c.Locals(LocalUserID, user.ID)
		c.Locals(LocalFarmID, user.FarmID)
		c.Locals(LocalRole, user.Role)
		c.Locals(LocalUser, user)
		c.Locals(LocalToken, token)

		return c.Next()
	}
}

// BearerToken extracts the token from the Authorization header. Websocket
// clients that cannot set headers pass it as the "token" query parameter.
func BearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		if t := c.Query("token"); t != "" {
			return t, true
		}
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// RequirePermission rejects requests whose role lacks resource/action. It
// must run after AuthRequired.
func RequirePermission(checker PermissionChecker, resource, action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(LocalRole).(domain.UserRole)
		if !checker.CheckPermission(role, resource, action) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
		}
		return c.Next()
	}
}

// Identity returns the authenticated user and farm.
func Identity(c *fiber.Ctx) (userID, farmID string) {
	userID, _ = c.Locals(LocalUserID).(string)
	farmID, _ = c.Locals(LocalFarmID).(string)
	return userID, farmID
}
