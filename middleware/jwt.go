package middleware

import (
	"errors"

	"github.com/Top-Pesinde/backend-sub001/apperror"
	"github.com/Top-Pesinde/backend-sub001/utils"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	localToken   = "user"
	localSession = "session"
)

func JWT(accessKey []byte) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{
			JWTAlg: "HS512",
			Key:    accessKey,
		},
		Claims:     &utils.Claims{},
		ContextKey: localToken,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
				return utils.Fail(c, apperror.Auth("Missing or malformed JWT"))
			}
			return utils.Fail(c, apperror.Auth("Invalid or expired JWT"))
		},
	})
}

// Claims returns the verified access token claims of the request.
func Claims(c *fiber.Ctx) *utils.Claims {
	token, ok := c.Locals(localToken).(*jwt.Token)
	if !ok {
		return nil
	}
	claims, _ := token.Claims.(*utils.Claims)
	return claims
}

func claimsOrFail(c *fiber.Ctx) (*utils.Claims, error) {
	claims := Claims(c)
	if claims == nil || claims.UserID == "" {
		return nil, apperror.Auth("Invalid or expired JWT")
	}
	return claims, nil
}
