package controller

import (
	"time"

	"github.com/Top-Pesinde/backend-sub001/apperror"
	"github.com/Top-Pesinde/backend-sub001/chat"
	"github.com/Top-Pesinde/backend-sub001/utils"

	"github.com/gofiber/fiber/v2"
)

func (h *Controller) MessengerConversations(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return utils.Fail(c, err)
	}

	conversations, err := h.chat.Conversations(c.UserContext(), claims.UserID)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, conversations)
}

// MessengerHistory pages backwards with ?before=<RFC3339>&limit=<n>.
func (h *Controller) MessengerHistory(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return utils.Fail(c, err)
	}

	var before time.Time
	if raw := c.Query("before"); raw != "" {
		before, err = time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return utils.Fail(c, apperror.Validation("before must be an RFC3339 timestamp"))
		}
	}
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		return utils.Fail(c, apperror.Validation("limit must be positive"))
	}

	messages, err := h.chat.History(c.UserContext(), claims.UserID, c.Params("id"), before, limit)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, messages)
}

func (h *Controller) MessengerMarkRead(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return utils.Fail(c, err)
	}

	ack, err := h.chat.MarkRead(c.UserContext(), claims.UserID, c.Params("id"), nil)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, ack)
}

func (h *Controller) MessengerUnread(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return utils.Fail(c, err)
	}

	n, err := h.chat.UnreadCount(c.UserContext(), claims.UserID, c.Params("id"))
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, chat.UnreadCountPayload{ConversationID: c.Params("id"), UnreadCount: n})
}

func (h *Controller) MessengerUnreadTotal(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return utils.Fail(c, err)
	}

	n, err := h.chat.UnreadTotal(c.UserContext(), claims.UserID)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.Map{"unreadCount": n})
}

// MessengerSend is the REST twin of send_chat_message.
func (h *Controller) MessengerSend(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return utils.Fail(c, err)
	}

	input := new(chat.SendInput)
	if err := c.BodyParser(input); err != nil {
		return utils.Fail(c, apperror.Validation("Review your input"))
	}

	message, err := h.chat.SendMessage(c.UserContext(), claims.UserID, *input, nil)
	if err != nil {
		return utils.Fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data":    chat.MessagePayload{Message: message},
	})
}
