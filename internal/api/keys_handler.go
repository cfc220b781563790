package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

func (h *Handlers) issueKeys(c *fiber.Ctx) error {
	var req struct {
		Secret string `json:"secret"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()
	kp, err := h.keys.IssueKeys(ctx, userID(c), req.Secret)
	if err != nil {
		return fail(c, err)
	}
	return created(c, kp)
}

func (h *Handlers) publicKey(c *fiber.Ctx) error {
	pub, err := h.keys.GetPublicKey(c.Context(), c.Params("user_id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"public_key": pub})
}
