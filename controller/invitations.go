package controller

import (
	"fmt"
	"net/mail"
	"time"

	"crm-service/config"
	"crm-service/database"
	"crm-service/model"
	"crm-service/roles"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

const invitationTTL = 7 * 24 * time.Hour

type InvitationInput struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type InvitationAcceptInput struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func InvitationsList(c *fiber.Ctx) error {
	var invitations []model.Invitation
	err := database.Postgres.Order("created_at desc").Find(&invitations).Error
	if err != nil {
		return internalError(c)
	}
	return success(c, invitations)
}

func InvitationsCreate(c *fiber.Ctx) error {
	input := new(InvitationInput)
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Review your input")
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return badRequest(c, "Review the email address")
	}

	if count := database.Postgres.
		Where(&model.User{Email: input.Email}).
		First(new(model.User)).
		RowsAffected; count > 0 {
		return badRequest(c, "Email is already registered")
	}

	invitation := model.Invitation{
		Email:     input.Email,
		Role:      string(roles.Normalize(input.Role)),
		Token:     uuid.NewString(),
		InvitedBy: callerID(c),
		ExpiresAt: time.Now().Add(invitationTTL),
	}
	if err := database.Postgres.Create(&invitation).Error; err != nil {
		return internalError(c)
	}

	QueueInvitation(invitation.Email, invitation.Token)

	return success(c, fiber.Map{
		"id":         invitation.ID,
		"email":      invitation.Email,
		"role":       invitation.Role,
		"expires_at": invitation.ExpiresAt,
	})
}

func InvitationsAccept(c *fiber.Ctx) error {
	input := new(InvitationAcceptInput)
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Review your input")
	}
	if input.Username == "" || len(input.Password) < 8 {
		return badRequest(c, "Review your input")
	}

	var invitation model.Invitation
	err := database.Postgres.Where("token = ?", input.Token).First(&invitation).Error
	if err != nil {
		return badRequest(c, "Invalid invitation")
	}
	if invitation.AcceptedAt != nil {
		return badRequest(c, "Invitation was already accepted")
	}
	if time.Now().After(invitation.ExpiresAt) {
		return badRequest(c, "Invitation has expired")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), 14)
	if err != nil {
		return internalError(c)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      config.Config("OTP_ISSUER"),
		AccountName: invitation.Email,
		SecretSize:  15,
	})
	if err != nil {
		return internalError(c)
	}

	user := model.User{
		Username:   input.Username,
		Email:      invitation.Email,
		Password:   string(hash),
		Role:       invitation.Role,
		Otp_secret: key.Secret(),
	}
	if err := database.Postgres.Create(&user).Error; err != nil {
		return badRequest(c, "Username or email is already registered")
	}

	database.Postgres.Create(&model.UserRole{UserID: user.ID, Role: user.Role})
	database.Casbin().AddGroupingPolicy(fmt.Sprint(user.ID), user.Role)

	now := time.Now()
	invitation.AcceptedAt = &now
	database.Postgres.Save(&invitation)

	return success(c, fiber.Map{"id": user.ID})
}
