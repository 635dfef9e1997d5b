package controller

import (
	"github.com/Top-Pesinde/backend-sub001/apperror"
	"github.com/Top-Pesinde/backend-sub001/utils"

	"github.com/gofiber/fiber/v2"
)

type BanInput struct {
	Reason string `json:"reason" validate:"max=500"`
}

// AdminBan bans an account from messaging and signs it out everywhere.
func (h *Controller) AdminBan(c *fiber.Ctx) error {
	input := new(BanInput)
	if len(c.Body()) > 0 {
		if err := parse(c, input); err != nil {
			return utils.Fail(c, err)
		}
	}

	userID := c.Params("userId")
	if err := h.bans.Ban(c.UserContext(), userID, input.Reason); err != nil {
		return utils.Fail(c, apperror.Internal(err))
	}
	n, err := h.sessions.TerminateAll(c.UserContext(), userID)
	if err != nil {
		return utils.Fail(c, err)
	}

	h.log.Info("User banned", "user_id", userID, "sessions", n)
	return utils.Success(c, fiber.Map{"terminated": n})
}

func (h *Controller) AdminUnban(c *fiber.Ctx) error {
	userID := c.Params("userId")
	if err := h.bans.Unban(c.UserContext(), userID); err != nil {
		return utils.Fail(c, apperror.Internal(err))
	}

	h.log.Info("User unbanned", "user_id", userID)
	return utils.Success(c, nil)
}

func (h *Controller) AdminSweepSessions(c *fiber.Ctx) error {
	report, err := h.sessions.ComprehensiveCleanup(c.UserContext())
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, report)
}
