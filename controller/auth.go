package controller

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"crm-service/config"
	"crm-service/database"
	"crm-service/model"
	"crm-service/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

type AuthLoginInput struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type AuthRenewTokenInput struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthResetRequestInput struct {
	Email string `json:"email"`
}

type AuthResetConfirmInput struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type AuthOtpSecretInput struct {
	Password string `json:"password"`
}

type AuthOtpVerifyInput struct {
	Token string `json:"token"`
}

type AuthOtpValidateInput struct {
	Token string `json:"token"`
}

type AuthOtpDisableInput struct {
	Password string `json:"password"`
	Token    string `json:"token"`
}

func AuthSignup(c *fiber.Ctx) error {
	user := new(model.User)
	if err := c.BodyParser(user); err != nil {
		return badRequest(c, "Review your input")
	}
	if user.Email == "" || user.Username == "" || user.Password == "" {
		return badRequest(c, "Review your input")
	}

	// If existed email is found, return error
	if count := database.Postgres.
		Where(&model.User{Email: user.Email}).
		First(new(model.User)).
		RowsAffected; count > 0 {
		return badRequest(c, "Email is already registered")
	}

	// If existed username is found, return error
	if count := database.Postgres.
		Where(&model.User{Username: user.Username}).
		First(new(model.User)).
		RowsAffected; count > 0 {
		return badRequest(c, "Username is already registered")
	}

	// Generate hash from password.
	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), 14)
	if err != nil {
		return internalError(c)
	}
	user.Password = string(hash)

	// Generate OTP secret
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      config.Config("OTP_ISSUER"),
		AccountName: user.Email,
		SecretSize:  15,
	})
	if err != nil {
		return internalError(c)
	}
	user.Otp_secret = key.Secret()

	// Set user role
	user.Role = "user"

	if err := database.Postgres.Create(&user).Error; err != nil {
		return internalError(c)
	}

	// Role row for predicates plus casbin grouping policy for the guard
	database.Postgres.Create(&model.UserRole{UserID: user.ID, Role: user.Role})
	database.Casbin().AddGroupingPolicy(fmt.Sprint(user.ID), user.Role)

	return success(c, fiber.Map{
		"id": user.ID,
	})
}

func AuthSignin(c *fiber.Ctx) error {
	input := new(AuthLoginInput)
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Review your input")
	}

	ctx := c.UserContext()
	userAgent := c.Get("User-Agent")
	remoteIP := c.IP()

	// Lockout brake before touching credentials
	lockout := Security.CheckAccountLockout(ctx, input.Login)
	if lockout.Locked {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"status":  "error",
			"message": "Account temporarily locked, try again later",
			"data": fiber.Map{
				"lockout_until": lockout.LockoutUntil,
			},
		})
	}

	userModel, err := new(model.User), *new(error)

	_, errParse := mail.ParseAddress(input.Login)
	if errParse == nil {
		err = database.Postgres.Where(&model.User{Email: input.Login}).First(&userModel).Error
	} else {
		err = database.Postgres.Where(&model.User{Username: input.Login}).First(&userModel).Error
	}

	if err != nil {
		Security.LogLoginAttempt(ctx, input.Login, nil, "password", false, userAgent, remoteIP)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid login or password",
			"data":    nil,
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(userModel.Password), []byte(input.Password)); err != nil {
		Security.LogLoginAttempt(ctx, input.Login, &userModel.ID, "password", false, userAgent, remoteIP)

		// The attempt that trips the lockout also warns the owner.
		if after := Security.CheckAccountLockout(ctx, input.Login); after.Locked {
			QueueSecurityAlert(
				userModel.Email,
				"account_lockout",
				"high",
				fmt.Sprintf("Sign-in was locked for 15 minutes after %d failed attempts from %s.", after.Attempts, remoteIP),
			)
		}

		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid login or password",
			"data":    nil,
		})
	}

	sid, err := Security.CreateSession(ctx, userModel.ID, userAgent)
	if err != nil {
		return internalError(c)
	}

	// Generate JWT Access & Refresh tokens
	tokens, err := utils.GenerateTokens(userModel.ID, sid, userModel.Otp_enabled)
	if err != nil {
		return internalError(c)
	}

	if err := database.Redis[0].Set(context.Background(), userModel.ID, tokens.Refresh, 0).Err(); err != nil {
		return internalError(c)
	}

	Security.LogLoginAttempt(ctx, input.Login, &userModel.ID, "password", true, userAgent, remoteIP)

	return success(c, fiber.Map{
		"access":  tokens.Access,
		"refresh": tokens.Refresh,
		"2fa":     userModel.Otp_enabled,
	})
}

func AuthSignout(c *fiber.Ctx) error {
	user := c.Locals("user").(*jwt.Token)
	claims := user.Claims.(jwt.MapClaims)
	id, _ := claims["id"].(string)
	sid, _ := claims["sid"].(string)

	if err := Security.TerminateSession(c.UserContext(), sid); err != nil {
		return internalError(c)
	}
	database.Redis[0].Del(context.Background(), id)

	return success(c, nil)
}

func AuthTokenRenew(c *fiber.Ctx) error {
	renew := &AuthRenewTokenInput{}
	if err := c.BodyParser(renew); err != nil {
		return badRequest(c, "Review your input")
	}

	claims, err := utils.CheckAndExtractTokenMetadata(renew.RefreshToken, "JWT_REFRESH_KEY")
	if err != nil {
		return c.JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid token",
			"data":    nil,
		})
	}

	userToken, err := database.Redis[0].Get(context.Background(), claims.Id).Result()
	if err != nil {
		return internalError(c)
	}

	if userToken != renew.RefreshToken {
		return c.JSON(fiber.Map{
			"status":  "error",
			"message": "Unauthorized, your refresh token was already used",
			"data":    nil,
		})
	}

	// Generate JWT Access & Refresh tokens
	tokens, err := utils.GenerateTokens(claims.Id, claims.Sid, claims.Otp)
	if err != nil {
		return internalError(c)
	}

	// Save refresh token to Redis
	if err := database.Redis[0].Set(context.Background(), claims.Id, tokens.Refresh, 0).Err(); err != nil {
		return internalError(c)
	}

	return success(c, fiber.Map{
		"access":  tokens.Access,
		"refresh": tokens.Refresh,
		"2fa":     claims.Otp,
	})
}

// AuthResetRequest mails a one-time reset token. The response is the same
// whether or not the address exists.
func AuthResetRequest(c *fiber.Ctx) error {
	input := new(AuthResetRequestInput)
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Review your input")
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return badRequest(c, "Review your input")
	}

	userModel := new(model.User)
	if err := database.Postgres.Where(&model.User{Email: input.Email}).First(&userModel).Error; err == nil {
		token := uuid.NewString()
		if err := database.Redis[0].Set(context.Background(), "reset:"+token, userModel.ID, time.Hour).Err(); err != nil {
			return internalError(c)
		}
		QueuePasswordReset(userModel.Email, token)
	}

	return success(c, nil)
}

func AuthResetConfirm(c *fiber.Ctx) error {
	input := new(AuthResetConfirmInput)
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Review your input")
	}
	if len(input.Password) < 8 {
		return badRequest(c, "Password must be at least 8 characters")
	}

	userID, err := database.Redis[0].Get(context.Background(), "reset:"+input.Token).Result()
	if err != nil {
		return badRequest(c, "Invalid or expired reset token")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), 14)
	if err != nil {
		return internalError(c)
	}

	err = database.Postgres.Model(&model.User{}).
		Where("id = ?", userID).
		Update("password", string(hash)).Error
	if err != nil {
		return internalError(c)
	}

	database.Redis[0].Del(context.Background(), "reset:"+input.Token)
	return success(c, nil)
}

func AuthOtpSecret(c *fiber.Ctx) error {
	secret := &AuthOtpSecretInput{}
	if err := c.BodyParser(secret); err != nil {
		return badRequest(c, "Review your input")
	}

	userModel := new(model.User)
	if err := database.Postgres.First(&userModel, "id = ?", callerID(c)).Error; err != nil {
		return internalError(c)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(userModel.Password), []byte(secret.Password)); err != nil {
		return c.JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid password",
			"data":    nil,
		})
	}

	return success(c, fiber.Map{
		"secret": userModel.Otp_secret,
		"url": fmt.Sprintf("otpauth://totp/%s:%s?algorithm=SHA1&digits=6&issuer=%s&period=30&secret=%s",
			config.Config("OTP_ISSUER"),
			userModel.Email,
			config.Config("OTP_ISSUER"),
			userModel.Otp_secret,
		),
	})
}

func AuthOtpVerify(c *fiber.Ctx) error {
	verify := &AuthOtpVerifyInput{}
	if err := c.BodyParser(verify); err != nil {
		return badRequest(c, "Review your input")
	}

	userModel := new(model.User)
	if err := database.Postgres.First(&userModel, "id = ?", callerID(c)).Error; err != nil {
		return internalError(c)
	}

	if userModel.Otp_enabled {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  "error",
			"message": "Verification has already been performed earlier",
			"data":    nil,
		})
	}

	if !totp.Validate(verify.Token, userModel.Otp_secret) {
		return c.JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid token",
			"data":    nil,
		})
	}

	userModel.Otp_enabled = true
	database.Postgres.Save(&userModel)

	return success(c, nil)
}

func AuthOtpValidate(c *fiber.Ctx) error {
	validate := &AuthOtpValidateInput{}
	if err := c.BodyParser(&validate); err != nil {
		return badRequest(c, "Review your input")
	}

	user := c.Locals("user").(*jwt.Token)
	claims := user.Claims.(jwt.MapClaims)
	id, _ := claims["id"].(string)
	sid, _ := claims["sid"].(string)

	userModel := new(model.User)
	if err := database.Postgres.First(&userModel, "id = ?", id).Error; err != nil {
		return internalError(c)
	}

	if !userModel.Otp_enabled {
		return c.JSON(fiber.Map{
			"status":  "error",
			"message": "2FA has been disabled",
			"data":    nil,
		})
	}

	if !totp.Validate(validate.Token, userModel.Otp_secret) {
		return c.JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid token",
			"data":    nil,
		})
	}

	// Generate JWT Access & Refresh tokens
	tokens, err := utils.GenerateTokens(id, sid, false)
	if err != nil {
		return internalError(c)
	}

	// Save refresh token to Redis
	if err := database.Redis[0].Set(context.Background(), id, tokens.Refresh, 0).Err(); err != nil {
		return internalError(c)
	}

	return success(c, fiber.Map{
		"access":  tokens.Access,
		"refresh": tokens.Refresh,
	})
}

func AuthOtpDisable(c *fiber.Ctx) error {
	disable := &AuthOtpDisableInput{}
	if err := c.BodyParser(&disable); err != nil {
		return badRequest(c, "Review your input")
	}

	userModel := new(model.User)
	if err := database.Postgres.First(&userModel, "id = ?", callerID(c)).Error; err != nil {
		return internalError(c)
	}

	if !userModel.Otp_enabled {
		return c.JSON(fiber.Map{
			"status":  "error",
			"message": "2fa not enabled",
			"data":    nil,
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(userModel.Password), []byte(disable.Password)); err != nil {
		return c.JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid password",
			"data":    nil,
		})
	}

	if !totp.Validate(disable.Token, userModel.Otp_secret) {
		return c.JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid token",
			"data":    nil,
		})
	}

	userModel.Otp_enabled = false
	database.Postgres.Save(&userModel)

	return success(c, nil)
}
