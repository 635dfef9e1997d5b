package middleware

import (
	"github.com/Top-Pesinde/backend-sub001/apperror"
	"github.com/Top-Pesinde/backend-sub001/utils"

	"github.com/gofiber/fiber/v2"
)

// OTP rejects tokens issued before the second factor was completed.
func OTP() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := claimsOrFail(c)
		if err != nil {
			return utils.Fail(c, err)
		}

		if claims.Otp {
			return utils.Fail(c, apperror.Auth("2FA required"))
		}

		return c.Next()
	}
}
