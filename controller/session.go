package controller

import (
	"github.com/Top-Pesinde/backend-sub001/model"
	"github.com/Top-Pesinde/backend-sub001/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

type SessionView struct {
	model.Session
	Current bool `json:"current"`
}

func (h *Controller) SessionList(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return utils.Fail(c, err)
	}

	sessions, err := h.sessions.List(c.UserContext(), claims.UserID)
	if err != nil {
		return utils.Fail(c, err)
	}

	return utils.Success(c, lo.Map(sessions, func(s model.Session, _ int) SessionView {
		return SessionView{Session: s, Current: s.SessionToken == claims.Jti()}
	}))
}

func (h *Controller) SessionTerminate(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return utils.Fail(c, err)
	}

	if err := h.sessions.TerminateByID(c.UserContext(), claims.UserID, c.Params("id")); err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, nil)
}

func (h *Controller) SessionTerminateOthers(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return utils.Fail(c, err)
	}

	n, err := h.sessions.TerminateOthers(c.UserContext(), claims.UserID, claims.Jti())
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.Map{"terminated": n})
}

func (h *Controller) SessionTerminateAll(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return utils.Fail(c, err)
	}

	n, err := h.sessions.TerminateAll(c.UserContext(), claims.UserID)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.Map{"terminated": n})
}
