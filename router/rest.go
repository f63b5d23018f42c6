package router

import (
	"crm-service/config"
	"crm-service/controller"
	"crm-service/database"
	"crm-service/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func Rest(app *fiber.App) {
	api := app.Group("/v1", logger.New())

	// Auth
	auth := api.Group("/auth")
	auth.Post("/signup", controller.AuthSignup)
	auth.Post("/signin", controller.AuthSignin)
	auth.Post("/signout", middleware.JWT(), controller.AuthSignout)
	auth.Post("/token/renew", controller.AuthTokenRenew)
	auth.Post("/reset/request", controller.AuthResetRequest)
	auth.Post("/reset/confirm", controller.AuthResetConfirm)
	auth.Post("/invitations/accept", controller.InvitationsAccept)
	auth.Post("/2fa/secret", middleware.JWT(), middleware.OTP(), controller.AuthOtpSecret)
	auth.Post("/2fa/verify", middleware.JWT(), middleware.OTP(), controller.AuthOtpVerify)
	auth.Post("/2fa/validate", middleware.JWT(), controller.AuthOtpValidate)
	auth.Post("/2fa/disable", middleware.JWT(), middleware.OTP(), controller.AuthOtpDisable)

	// User
	user := api.Group("/user", middleware.JWT(), middleware.OTP(), middleware.Activity(controller.Security))
	user.Get("/profile", controller.UserProfile)
	user.Get("/sessions", controller.UserSessions)
	user.Delete("/sessions/:id", controller.UserSessionTerminate)

	// Contacts
	contacts := user.Group("/contacts")
	contacts.Get("/", controller.ContactsList)
	contacts.Post("/", controller.ContactsCreate)
	contacts.Put("/:id", controller.ContactsUpdate)
	contacts.Delete("/:id", controller.ContactsDelete)

	// CRM pipeline
	leads := user.Group("/leads")
	leads.Get("/", controller.LeadsList)
	leads.Post("/", controller.LeadsCreate)
	leads.Put("/:id", controller.LeadsUpdate)

	deals := user.Group("/deals")
	deals.Get("/", controller.DealsList)
	deals.Post("/", controller.DealsCreate)
	deals.Put("/:id", controller.DealsUpdate)

	// Messaging
	messages := user.Group("/messages")
	messages.Get("/", controller.MessagesList)
	messages.Post("/", controller.MessagesSend)
	messages.Put("/:id/read", controller.MessagesMarkRead)
	messages.Put("/:id/archive", controller.MessagesMarkArchived)
	messages.Post("/:id/video-room", controller.MessagesVideoRoom)

	reactions := user.Group("/reactions")
	reactions.Post("/", controller.ReactionsAdd)
	reactions.Delete("/:id", controller.ReactionsRemove)

	user.Put("/presence", controller.PresenceUpdate)

	// Content and news, read side
	user.Get("/content", controller.ContentList)
	user.Get("/news", controller.NewsList)

	// Assistant
	ai := user.Group("/assistant")
	ai.Post("/chat", controller.AssistantChat)
	ai.Post("/memory", controller.AssistantRemember)
	ai.Delete("/memory", controller.AssistantForget)

	// Admin
	admin := api.Group(
		"/admin",
		middleware.JWT(),
		middleware.OTP(),
		middleware.Activity(controller.Security),
		middleware.RBAC(database.Casbin(), config.Config("RBAC_FAIL_OPEN") != "false"),
	)
	admin.Get("/users", controller.AdminUsers)
	admin.Put("/users/:id/role", controller.AdminUserRoleUpdate)
	admin.Get("/anomalies", controller.AdminAnomalies)
	admin.Get("/login-attempts", controller.AdminLoginAttempts)

	admin.Get("/invitations", controller.InvitationsList)
	admin.Post("/invitations", controller.InvitationsCreate)

	admin.Post("/content", controller.ContentCreate)
	admin.Put("/content/:id", controller.ContentUpdate)
	admin.Delete("/content/:id", controller.ContentDelete)

	admin.Get("/settings", controller.SettingsList)
	admin.Put("/settings", controller.SettingsUpsert)

	admin.Post("/news/refresh", controller.NewsRefresh)
}
