package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/fathima-sithara/messaging-service/internal/domain"
)

// fail maps domain sentinels to HTTP statuses. Crypto failures stay opaque so
// the response never leaks whether a key or a secret was the problem.
func fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": "error", "error": err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"status": "error", "error": err.Error()})
	case errors.Is(err, domain.ErrBadRequest):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "error", "error": err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"status": "error", "error": err.Error()})
	case errors.Is(err, domain.ErrEncryption), errors.Is(err, domain.ErrDecryption):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "error": "cryptographic operation failed"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "error": "internal error"})
	}
}

func ok(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{"status": "ok", "data": data})
}

func created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "ok", "data": data})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "error", "error": msg})
}

func userID(c *fiber.Ctx) string {
	v, _ := c.Locals("user_id").(string)
	return v
}
