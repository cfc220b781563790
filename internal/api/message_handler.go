package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/fathima-sithara/messaging-service/internal/domain"
)

type sendMessageRequest struct {
	ChatID      string             `json:"chat_id"`
	Content     string             `json:"content"`
	MessageType domain.MessageType `json:"message_type"`
	ReplyTo     string             `json:"reply_to"`

	// Attachment.Data arrives base64-encoded in the JSON body.
	Attachment *struct {
		Filename    string `json:"filename"`
		ContentType string `json:"content_type"`
		Data        []byte `json:"data"`
	} `json:"attachment"`
	Location *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Address   string  `json:"address"`
	} `json:"location"`
	Contact *struct {
		Name        string `json:"name"`
		PhoneNumber string `json:"phone_number"`
		Email       string `json:"email"`
	} `json:"contact"`
}

func (r *sendMessageRequest) payload() (domain.Payload, bool) {
	if r.MessageType == "" {
		r.MessageType = domain.TypeText
	}
	switch {
	case r.MessageType == domain.TypeText:
		return domain.TextPayload{}, true
	case r.MessageType == domain.TypeLocation:
		if r.Location == nil {
			return nil, false
		}
		return domain.LocationPayload{
			Latitude:  r.Location.Latitude,
			Longitude: r.Location.Longitude,
			Address:   r.Location.Address,
		}, true
	case r.MessageType == domain.TypeContact:
		if r.Contact == nil {
			return nil, false
		}
		return domain.ContactPayload{
			Name:        r.Contact.Name,
			PhoneNumber: r.Contact.PhoneNumber,
			Email:       r.Contact.Email,
		}, true
	case r.MessageType.IsMedia():
		if r.Attachment == nil {
			return nil, false
		}
		return domain.MediaPayload{
			Kind:        r.MessageType,
			Filename:    r.Attachment.Filename,
			ContentType: r.Attachment.ContentType,
			Data:        r.Attachment.Data,
		}, true
	}
	return nil, false
}

func (h *Handlers) sendMessage(c *fiber.Ctx) error {
	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	payload, valid := req.payload()
	if !valid {
		return badRequest(c, "message_type and its payload do not match")
	}
	ctx, cancel := context.WithTimeout(c.Context(), 30*time.Second)
	defer cancel()
	msg, err := h.messages.Send(ctx, req.ChatID, userID(c), req.Content, payload, req.ReplyTo)
	if err != nil {
		return fail(c, err)
	}
	return created(c, msg)
}

func (h *Handlers) listMessages(c *fiber.Ctx) error {
	page := int64(c.QueryInt("page", 1))
	limit := int64(c.QueryInt("limit", 50))
	msgs, err := h.messages.ListChat(c.Context(), c.Params("chat_id"), userID(c), page, limit)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, msgs)
}

func (h *Handlers) markChatRead(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()
	n, err := h.messages.MarkChatRead(ctx, c.Params("chat_id"), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"marked_read": n})
}

func (h *Handlers) markDelivered(c *fiber.Ctx) error {
	var req struct {
		MessageIDs []string `json:"message_ids"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()
	n, err := h.messages.MarkDelivered(ctx, req.MessageIDs)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"marked_delivered": n})
}

func (h *Handlers) decryptMessage(c *fiber.Ctx) error {
	var req struct {
		Secret string `json:"secret"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	plaintext, err := h.messages.Decrypt(c.Context(), c.Params("msg_id"), userID(c), req.Secret)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"content": plaintext})
}

func (h *Handlers) deleteMessage(c *fiber.Ctx) error {
	if err := h.messages.SoftDelete(c.Context(), c.Params("msg_id"), userID(c)); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"deleted": true})
}

func (h *Handlers) searchMessages(c *fiber.Ctx) error {
	page := int64(c.QueryInt("page", 1))
	limit := int64(c.QueryInt("limit", 20))
	msgs, err := h.messages.Search(c.Context(), c.Params("chat_id"), userID(c), c.Query("q"), page, limit)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, msgs)
}

func (h *Handlers) listMedia(c *fiber.Ctx) error {
	page := int64(c.QueryInt("page", 1))
	limit := int64(c.QueryInt("limit", 20))
	mediaType := domain.MessageType(c.Query("type", string(domain.TypeImage)))
	msgs, err := h.messages.Media(c.Context(), c.Params("chat_id"), userID(c), mediaType, page, limit)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, msgs)
}

func (h *Handlers) unreadCount(c *fiber.Ctx) error {
	n, err := h.messages.UnreadCount(c.Context(), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"unread_count": n})
}
