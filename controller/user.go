package controller

import (
	"github.com/Top-Pesinde/backend-sub001/utils"

	"github.com/gofiber/fiber/v2"
)

func (h *Controller) UserProfile(c *fiber.Ctx) error {
	user, err := h.me(c)
	if err != nil {
		return utils.Fail(c, err)
	}

	return utils.Success(c, fiber.Map{
		"id":       user.ID,
		"created":  user.CreatedAt.Unix(),
		"username": user.Username,
		"email":    user.Email,
		"role":     user.Role,
		"otp":      user.OtpEnabled,
	})
}
