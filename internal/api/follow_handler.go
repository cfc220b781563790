package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

func (h *Handlers) follow(c *fiber.Ctx) error {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()
	f, err := h.follows.Follow(ctx, userID(c), req.UserID)
	if err != nil {
		return fail(c, err)
	}
	return created(c, f)
}

func (h *Handlers) unfollow(c *fiber.Ctx) error {
	if err := h.follows.Unfollow(c.Context(), userID(c), c.Params("user_id")); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"unfollowed": true})
}

func (h *Handlers) followers(c *fiber.Ctx) error {
	page := int64(c.QueryInt("page", 1))
	limit := int64(c.QueryInt("limit", 50))
	fs, err := h.follows.Followers(c.Context(), userID(c), page, limit)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fs)
}

func (h *Handlers) following(c *fiber.Ctx) error {
	page := int64(c.QueryInt("page", 1))
	limit := int64(c.QueryInt("limit", 50))
	fs, err := h.follows.Following(c.Context(), userID(c), page, limit)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fs)
}

func (h *Handlers) followStats(c *fiber.Ctx) error {
	// stats for another user via ?user_id=, defaults to the caller
	target := c.Query("user_id", userID(c))
	stats, err := h.follows.Stats(c.Context(), target)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, stats)
}

func (h *Handlers) block(c *fiber.Ctx) error {
	var req struct {
		UserID string `json:"user_id"`
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()
	if err := h.follows.Block(ctx, userID(c), req.UserID, req.Reason); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"blocked": true})
}

func (h *Handlers) unblock(c *fiber.Ctx) error {
	if err := h.follows.Unblock(c.Context(), userID(c), c.Params("user_id")); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"unblocked": true})
}

func (h *Handlers) blockedUsers(c *fiber.Ctx) error {
	page := int64(c.QueryInt("page", 1))
	limit := int64(c.QueryInt("limit", 50))
	bs, err := h.follows.BlockedUsers(c.Context(), userID(c), page, limit)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, bs)
}
