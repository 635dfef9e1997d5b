package controller

import (
	"fmt"
	"net/url"

	"github.com/Top-Pesinde/backend-sub001/apperror"
	"github.com/Top-Pesinde/backend-sub001/database"
	"github.com/Top-Pesinde/backend-sub001/model"
	"github.com/Top-Pesinde/backend-sub001/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

type AuthSignupInput struct {
	DeviceInput
	Username string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type AuthLoginInput struct {
	DeviceInput
	Login    string `json:"login" validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=72"`
}

type AuthRenewTokenInput struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type AuthOtpSecretInput struct {
	Password string `json:"password" validate:"required,max=72"`
}

type AuthOtpTokenInput struct {
	Token string `json:"token" validate:"required,len=6,numeric"`
}

type AuthOtpDisableInput struct {
	Password string `json:"password" validate:"required,max=72"`
	Token    string `json:"token" validate:"required,len=6,numeric"`
}

func tokensResponse(tokens *utils.Tokens) fiber.Map {
	return fiber.Map{
		"access":           tokens.Access,
		"refresh":          tokens.Refresh,
		"accessExpiresAt":  tokens.AccessExpiresAt,
		"refreshExpiresAt": tokens.RefreshExpiresAt,
		"2fa":              tokens.OtpPending,
	}
}

func (h *Controller) AuthSignup(c *fiber.Ctx) error {
	input := new(AuthSignupInput)
	if err := parse(c, input); err != nil {
		return utils.Fail(c, err)
	}

	// Generate hash from password.
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), h.passwordCost)
	if err != nil {
		return utils.Fail(c, apperror.Internal(err))
	}

	// Generate OTP secret
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      h.otpIssuer,
		AccountName: input.Email,
		SecretSize:  15,
	})
	if err != nil {
		return utils.Fail(c, apperror.Internal(err))
	}

	user := &model.User{
		Username:  input.Username,
		Email:     input.Email,
		Password:  string(hash),
		Role:      database.RoleUser,
		OtpSecret: key.Secret(),
	}
	if err := h.users.Create(c.UserContext(), user); err != nil {
		return utils.Fail(c, err)
	}

	// Add casbin policy
	if _, err := h.roles.AddGroupingPolicy(user.ID, user.Role); err != nil {
		h.log.Error("Failed to assign role", "user_id", user.ID, "error", err)
	}

	_, tokens, err := h.sessions.Create(c.UserContext(), user.ID, deviceFrom(c, input.DeviceInput), false)
	if err != nil {
		return utils.Fail(c, err)
	}

	response := tokensResponse(tokens)
	response["id"] = user.ID
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data":    response,
	})
}

func (h *Controller) AuthSignin(c *fiber.Ctx) error {
	input := new(AuthLoginInput)
	if err := parse(c, input); err != nil {
		return utils.Fail(c, err)
	}

	user, err := h.users.FindByLogin(c.UserContext(), input.Login)
	if err != nil {
		if apperror.CodeOf(err) == apperror.CodeNotFound {
			return utils.Fail(c, apperror.Auth("Invalid login or password"))
		}
		return utils.Fail(c, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		return utils.Fail(c, apperror.Auth("Invalid login or password"))
	}

	_, tokens, err := h.sessions.Create(c.UserContext(), user.ID, deviceFrom(c, input.DeviceInput), user.OtpEnabled)
	if err != nil {
		return utils.Fail(c, err)
	}

	return utils.Success(c, tokensResponse(tokens))
}

func (h *Controller) AuthTokenRenew(c *fiber.Ctx) error {
	input := new(AuthRenewTokenInput)
	if err := parse(c, input); err != nil {
		return utils.Fail(c, err)
	}

	_, tokens, err := h.sessions.Refresh(c.UserContext(), input.RefreshToken)
	if err != nil {
		return utils.Fail(c, err)
	}

	return utils.Success(c, tokensResponse(tokens))
}

func (h *Controller) AuthLogout(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	if err := h.sessions.Terminate(c.UserContext(), claims.Jti()); err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, nil)
}

func (h *Controller) AuthOtpSecret(c *fiber.Ctx) error {
	input := new(AuthOtpSecretInput)
	if err := parse(c, input); err != nil {
		return utils.Fail(c, err)
	}

	user, err := h.me(c)
	if err != nil {
		return utils.Fail(c, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		return utils.Fail(c, apperror.Validation("Invalid password"))
	}

	return utils.Success(c, fiber.Map{
		"secret": user.OtpSecret,
		"url": fmt.Sprintf("otpauth://totp/%s:%s?algorithm=SHA1&digits=6&issuer=%s&period=30&secret=%s",
			url.PathEscape(h.otpIssuer),
			url.PathEscape(user.Email),
			url.QueryEscape(h.otpIssuer),
			user.OtpSecret,
		),
	})
}

func (h *Controller) AuthOtpVerify(c *fiber.Ctx) error {
	input := new(AuthOtpTokenInput)
	if err := parse(c, input); err != nil {
		return utils.Fail(c, err)
	}

	user, err := h.me(c)
	if err != nil {
		return utils.Fail(c, err)
	}

	if user.OtpEnabled {
		return utils.Fail(c, apperror.Conflict("Verification has already been performed earlier"))
	}

	if !totp.Validate(input.Token, user.OtpSecret) {
		return utils.Fail(c, apperror.Validation("Invalid token"))
	}

	if err := h.users.SetOtp(c.UserContext(), user.ID, true, user.OtpSecret); err != nil {
		return utils.Fail(c, apperror.Internal(err))
	}
	return utils.Success(c, nil)
}

// AuthOtpValidate completes the second factor of a session opened with a
// pending token pair.
func (h *Controller) AuthOtpValidate(c *fiber.Ctx) error {
	input := new(AuthOtpTokenInput)
	if err := parse(c, input); err != nil {
		return utils.Fail(c, err)
	}

	claims, err := currentUser(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	user, err := h.me(c)
	if err != nil {
		return utils.Fail(c, err)
	}

	if !user.OtpEnabled {
		return utils.Fail(c, apperror.Validation("2FA has been disabled"))
	}

	if !totp.Validate(input.Token, user.OtpSecret) {
		return utils.Fail(c, apperror.Validation("Invalid token"))
	}

	_, tokens, err := h.sessions.CompleteSecondFactor(c.UserContext(), claims)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, tokensResponse(tokens))
}

func (h *Controller) AuthOtpDisable(c *fiber.Ctx) error {
	input := new(AuthOtpDisableInput)
	if err := parse(c, input); err != nil {
		return utils.Fail(c, err)
	}

	user, err := h.me(c)
	if err != nil {
		return utils.Fail(c, err)
	}

	if !user.OtpEnabled {
		return utils.Fail(c, apperror.Validation("2fa not enabled"))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		return utils.Fail(c, apperror.Validation("Invalid password"))
	}

	if !totp.Validate(input.Token, user.OtpSecret) {
		return utils.Fail(c, apperror.Validation("Invalid token"))
	}

	if err := h.users.SetOtp(c.UserContext(), user.ID, false, user.OtpSecret); err != nil {
		return utils.Fail(c, apperror.Internal(err))
	}
	return utils.Success(c, nil)
}

func (h *Controller) me(c *fiber.Ctx) (*model.User, error) {
	claims, err := currentUser(c)
	if err != nil {
		return nil, err
	}
	user, err := h.users.FindByID(c.UserContext(), claims.UserID)
	if err != nil {
		if apperror.CodeOf(err) == apperror.CodeNotFound {
			return nil, apperror.Auth("account no longer exists")
		}
		return nil, err
	}
	return user, nil
}
