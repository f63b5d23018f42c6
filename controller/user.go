package controller

import (
	"crm-service/database"
	"crm-service/model"
	"crm-service/roles"

	"github.com/gofiber/fiber/v2"
)

func UserProfile(c *fiber.Ctx) error {
	userModel := new(model.User)

	if err := database.Postgres.First(&userModel, "id = ?", callerID(c)).Error; err != nil {
		return internalError(c)
	}

	assigned, err := roles.Fetch(c.UserContext(), database.Postgres, userModel.ID)
	if err != nil {
		// Role fetch failing must not take the profile down with it.
		assigned = nil
	}

	return success(c, fiber.Map{
		"id":           userModel.ID,
		"created":      userModel.CreatedAt.Unix(),
		"username":     userModel.Username,
		"email":        userModel.Email,
		"role":         userModel.Role,
		"roles":        assigned,
		"is_admin":     roles.IsAdmin(assigned),
		"admin_access": roles.HasAdminAccess(assigned),
		"otp":          userModel.Otp_enabled,
	})
}

func UserSessions(c *fiber.Ctx) error {
	sessions, err := Security.ActiveSessions(c.UserContext(), callerID(c))
	if err != nil {
		return internalError(c)
	}
	return success(c, sessions)
}

func UserSessionTerminate(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	if sessionID == "" {
		return badRequest(c, "Missing session id")
	}

	// A user may only cut their own sessions.
	var session model.UserSession
	err := database.Postgres.
		Where("session_id = ? AND user_id = ?", sessionID, callerID(c)).
		First(&session).Error
	if err != nil {
		return badRequest(c, "Unknown session")
	}

	if err := Security.TerminateSession(c.UserContext(), sessionID); err != nil {
		return internalError(c)
	}
	return success(c, nil)
}

func AdminUsers(c *fiber.Ctx) error {
	var users []model.User
	if err := database.Postgres.Order("created_at desc").Find(&users).Error; err != nil {
		return internalError(c)
	}
	return success(c, users)
}

type AdminUserRoleInput struct {
	Role string `json:"role"`
}

func AdminUserRoleUpdate(c *fiber.Ctx) error {
	input := new(AdminUserRoleInput)
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Review your input")
	}
	role := string(roles.Normalize(input.Role))
	userID := c.Params("id")

	userModel := new(model.User)
	if err := database.Postgres.First(&userModel, "id = ?", userID).Error; err != nil {
		return badRequest(c, "Unknown user")
	}

	if err := database.Postgres.Model(&userModel).Update("role", role).Error; err != nil {
		return internalError(c)
	}
	database.Postgres.Where("user_id = ?", userID).Delete(&model.UserRole{})
	database.Postgres.Create(&model.UserRole{UserID: userID, Role: role})

	enforcer := database.Casbin()
	enforcer.RemoveGroupingPolicy(userID, userModel.Role)
	enforcer.AddGroupingPolicy(userID, role)

	return success(c, fiber.Map{"id": userID, "role": role})
}

func AdminAnomalies(c *fiber.Ctx) error {
	anomalies, err := Security.DetectAnomalies(c.UserContext())
	if err != nil {
		return internalError(c)
	}
	return success(c, anomalies)
}

func AdminLoginAttempts(c *fiber.Ctx) error {
	var attempts []model.LoginAttempt
	err := database.Postgres.Order("created_at desc").Limit(200).Find(&attempts).Error
	if err != nil {
		return internalError(c)
	}
	return success(c, attempts)
}
