package middleware

import (
	"crm-service/security"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Activity feeds the inactivity timer: every authenticated request
// refreshes the session named by the sid claim.
func Activity(manager *security.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := c.Locals("user").(*jwt.Token)
		claims := user.Claims.(jwt.MapClaims)

		if sid, _ := claims["sid"].(string); sid != "" {
			manager.TouchSession(c.UserContext(), sid)
		}

		return c.Next()
	}
}
