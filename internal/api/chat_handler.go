package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

func (h *Handlers) createChat(c *fiber.Ctx) error {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()
	chat, err := h.chats.CreateOrGet(ctx, userID(c), req.UserID)
	if err != nil {
		return fail(c, err)
	}
	return created(c, chat)
}

func (h *Handlers) listChats(c *fiber.Ctx) error {
	chats, err := h.chats.ListUserChats(c.Context(), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, chats)
}

func (h *Handlers) potentialChats(c *fiber.Ctx) error {
	page := int64(c.QueryInt("page", 1))
	limit := int64(c.QueryInt("limit", 50))
	ids, err := h.chats.PotentialChats(c.Context(), userID(c), page, limit)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, ids)
}

func (h *Handlers) getChat(c *fiber.Ctx) error {
	chat, err := h.chats.GetByID(c.Context(), c.Params("chat_id"), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, chat)
}

func (h *Handlers) deleteChat(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()
	if err := h.chats.Deactivate(ctx, c.Params("chat_id"), userID(c)); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"deleted": true})
}
