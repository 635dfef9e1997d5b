package middleware

import (
	"github.com/Top-Pesinde/backend-sub001/apperror"
	"github.com/Top-Pesinde/backend-sub001/utils"

	"github.com/gofiber/fiber/v2"
)

type Enforcer interface {
	LoadPolicy() error
	Enforce(rvals ...interface{}) (bool, error)
}

func RBAC(enforcer Enforcer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := claimsOrFail(c)
		if err != nil {
			return utils.Fail(c, err)
		}

		// Load policy from Database
		if err := enforcer.LoadPolicy(); err != nil {
			return utils.Fail(c, apperror.Internal(err))
		}

		// Casbin enforces policy
		accepted, err := enforcer.Enforce(claims.UserID, c.Path(), c.Method())
		if err != nil {
			return utils.Fail(c, apperror.Internal(err))
		}

		if !accepted {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"status":  "error",
				"type":    apperror.CodeAuth,
				"message": "Forbidden",
				"data":    nil,
			})
		}

		return c.Next()
	}
}
