package middleware

import (
	"github.com/gofiber/fiber/v2"

	"kiosk-attendance-backend/internal/model"
)

// accountRoles are the roles a dashboard token may carry.
var accountRoles = map[string]bool{
	model.RoleAdmin:    true,
	model.RoleOperator: true,
}

// Role lets the request through when the token role set by Auth is one of allowed.
func Role(allowed ...string) fiber.Handler {
	permitted := make(map[string]bool, len(allowed))
	for _, r := range allowed {
		permitted[r] = true
	}

	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("role").(string)
		if !ok || !accountRoles[role] {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Access denied: unknown role"})
		}
		if !permitted[role] {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Access denied: " + role + " cannot perform this action"})
		}
		return c.Next()
	}
}

// AdminOnly is Role(model.RoleAdmin).
func AdminOnly() fiber.Handler {
	return Role(model.RoleAdmin)
}
