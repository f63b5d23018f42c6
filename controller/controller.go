package controller

import (
	"crm-service/assistant"
	"crm-service/realtime"
	"crm-service/security"
	"crm-service/video"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Shared services, wired from main.
var (
	Security *security.Manager
	Realtime *realtime.GormBackend
	AI       *assistant.Client
	Memory   *assistant.MemoryStore
	Video    *video.Client
)

func Init(manager *security.Manager, backend *realtime.GormBackend) {
	Security = manager
	Realtime = backend
	AI = assistant.NewClient()
	Memory = assistant.NewMemoryStore()
	Video = video.NewClient()
}

// callerID extracts the authenticated user id from the JWT claims.
func callerID(c *fiber.Ctx) string {
	user := c.Locals("user").(*jwt.Token)
	claims := user.Claims.(jwt.MapClaims)
	id, _ := claims["id"].(string)
	return id
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"status":  "error",
		"message": "Internal server error",
		"data":    nil,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"status":  "error",
		"message": message,
		"data":    nil,
	})
}

func success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data":    data,
	})
}
