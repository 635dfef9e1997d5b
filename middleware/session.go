package middleware

import (
	"context"

	"github.com/Top-Pesinde/backend-sub001/model"
	"github.com/Top-Pesinde/backend-sub001/utils"

	"github.com/gofiber/fiber/v2"
)

type Authenticator interface {
	Authenticate(ctx context.Context, claims *utils.Claims) (*model.Session, error)
}

// Session makes logout effective immediately: the jti of a valid token must
// still reference a live session.
func Session(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := claimsOrFail(c)
		if err != nil {
			return utils.Fail(c, err)
		}

		s, err := auth.Authenticate(c.UserContext(), claims)
		if err != nil {
			return utils.Fail(c, err)
		}
		c.Locals(localSession, s)

		return c.Next()
	}
}

func CurrentSession(c *fiber.Ctx) *model.Session {
	s, _ := c.Locals(localSession).(*model.Session)
	return s
}
