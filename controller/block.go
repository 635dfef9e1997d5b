package controller

import (
	"github.com/Top-Pesinde/backend-sub001/utils"

	"github.com/gofiber/fiber/v2"
)

type BlockInput struct {
	Reason string `json:"reason" validate:"max=500"`
}

func (h *Controller) BlockList(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return utils.Fail(c, err)
	}

	blocks, err := h.blocks.List(c.UserContext(), claims.UserID)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, blocks)
}

func (h *Controller) BlockCreate(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return utils.Fail(c, err)
	}

	input := new(BlockInput)
	if len(c.Body()) > 0 {
		if err := parse(c, input); err != nil {
			return utils.Fail(c, err)
		}
	}

	target := c.Params("userId")
	if err := h.blocks.Block(c.UserContext(), claims.UserID, target, input.Reason); err != nil {
		return utils.Fail(c, err)
	}
	h.chat.NotifyBlocked(claims.UserID, target)

	return h.blockStatus(c, claims.UserID, target)
}

func (h *Controller) BlockDelete(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return utils.Fail(c, err)
	}

	target := c.Params("userId")
	if err := h.blocks.Unblock(c.UserContext(), claims.UserID, target); err != nil {
		return utils.Fail(c, err)
	}
	h.chat.NotifyUnblocked(claims.UserID, target)

	return h.blockStatus(c, claims.UserID, target)
}

func (h *Controller) BlockStatus(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	return h.blockStatus(c, claims.UserID, c.Params("userId"))
}

func (h *Controller) blockStatus(c *fiber.Ctx, me, other string) error {
	status, err := h.blocks.Status(c.UserContext(), me, other)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, status)
}
