package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"crm-service/security"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
	"gorm.io/gorm/utils/tests"
)

func activityApp(t *testing.T, sid string) (*fiber.App, *security.Manager) {
	t.Helper()
	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{DryRun: true})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	manager := security.NewManager(db)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		token := &jwt.Token{Claims: jwt.MapClaims{"id": "user-1", "sid": sid, "otp": false}}
		c.Locals("user", token)
		return c.Next()
	})
	app.Use(Activity(manager))
	app.Get("/v1/user/profile", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "success"})
	})
	return app, manager
}

func TestActivityRefreshesTrackedSession(t *testing.T) {
	app, manager := activityApp(t, "session-1")
	manager.TrackSession("session-1", time.Now().Add(-20*time.Minute))

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/user/profile", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if idle := manager.IdleFor(); idle > security.InactivityTimeout {
		t.Fatalf("idle = %v, an authenticated request must reset the clock", idle)
	}
}

func TestActivityIgnoresForeignSession(t *testing.T) {
	app, manager := activityApp(t, "another-session")
	manager.TrackSession("session-1", time.Now().Add(-20*time.Minute))

	if _, err := app.Test(httptest.NewRequest("GET", "/v1/user/profile", nil)); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if idle := manager.IdleFor(); idle <= security.InactivityTimeout {
		t.Fatalf("idle = %v, a foreign session must not move the clock", idle)
	}
}
