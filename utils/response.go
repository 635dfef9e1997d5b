package utils

import (
	"github.com/Top-Pesinde/backend-sub001/apperror"

	"github.com/gofiber/fiber/v2"
)

func Success(c *fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data":    data,
	})
}

// Fail writes err with the status matching its code.
func Fail(c *fiber.Ctx, err error) error {
	appErr := apperror.From(err)
	return c.Status(apperror.HTTPStatus(appErr.Code)).JSON(fiber.Map{
		"status":  "error",
		"type":    appErr.Code,
		"message": appErr.Message,
		"data":    appErr.Data,
	})
}
