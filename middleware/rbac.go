package middleware

import (
	"log"

	"github.com/casbin/casbin/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// RBAC gates a route group on the caller's casbin policies. Authorization
// failures redirect to /auth rather than rendering an error page.
//
// failOpen controls the branch where the role lookup itself errors: true
// preserves the original allow-with-warning behavior, false redirects.
// This is an explicit policy knob, not an accident.
func RBAC(enforcer *casbin.Enforcer, failOpen bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := c.Locals("user").(*jwt.Token)
		claims := user.Claims.(jwt.MapClaims)

		// Load policy from Database
		if err := enforcer.LoadPolicy(); err != nil {
			return roleCheckErrored(c, failOpen, err)
		}

		// Casbin enforces policy
		accepted, err := enforcer.Enforce(claims["id"].(string), c.OriginalURL(), c.Method())
		if err != nil {
			return roleCheckErrored(c, failOpen, err)
		}

		if !accepted {
			return c.Redirect("/auth", fiber.StatusFound)
		}

		return c.Next()
	}
}

func roleCheckErrored(c *fiber.Ctx, failOpen bool, err error) error {
	if failOpen {
		log.Printf("role check errored, allowing %s %s: %v", c.Method(), c.OriginalURL(), err)
		return c.Next()
	}
	log.Printf("role check errored, denying %s %s: %v", c.Method(), c.OriginalURL(), err)
	return c.Redirect("/auth", fiber.StatusFound)
}
