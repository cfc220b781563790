package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/fathima-sithara/messaging-service/internal/auth"
	"github.com/fathima-sithara/messaging-service/internal/service"
)

type Handlers struct {
	chats    *service.ChatService
	messages *service.MessageService
	follows  *service.FollowService
	keys     *service.KeysService
	log      *zap.SugaredLogger
}

func NewHandlers(
	chats *service.ChatService,
	messages *service.MessageService,
	follows *service.FollowService,
	keys *service.KeysService,
	log *zap.SugaredLogger,
) *Handlers {
	return &Handlers{chats: chats, messages: messages, follows: follows, keys: keys, log: log}
}

func NewServer(h *Handlers, jv *auth.JWTValidator) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: 32 * 1024 * 1024, // attachment bytes travel in the request body
	})
	app.Use(recover.New())
	app.Use(logger.New())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/v1")

	api.Use(func(c *fiber.Ctx) error {
		hdr := c.Get("Authorization")
		const pref = "Bearer "
		if !strings.HasPrefix(hdr, pref) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"status": "error", "error": "missing bearer token"})
		}
		sub, err := jv.Validate(hdr[len(pref):])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"status": "error", "error": "invalid token"})
		}
		c.Locals("user_id", sub)
		return c.Next()
	})

	api.Post("/chats", h.createChat)
	api.Get("/chats", h.listChats)
	api.Get("/chats/potential", h.potentialChats)
	api.Get("/chats/:chat_id", h.getChat)
	api.Delete("/chats/:chat_id", h.deleteChat)

	api.Post("/messages", h.sendMessage)
	api.Get("/chats/:chat_id/messages", h.listMessages)
	api.Post("/chats/:chat_id/read", h.markChatRead)
	api.Post("/messages/delivered", h.markDelivered)
	api.Post("/messages/:msg_id/decrypt", h.decryptMessage)
	api.Delete("/messages/:msg_id", h.deleteMessage)
	api.Get("/chats/:chat_id/search", h.searchMessages)
	api.Get("/chats/:chat_id/media", h.listMedia)
	api.Get("/users/unread-count", h.unreadCount)

	api.Post("/follow", h.follow)
	api.Delete("/follow/:user_id", h.unfollow)
	api.Get("/followers", h.followers)
	api.Get("/following", h.following)
	api.Get("/follow/stats", h.followStats)
	api.Post("/block", h.block)
	api.Post("/unblock/:user_id", h.unblock)
	api.Get("/blocked", h.blockedUsers)

	api.Post("/keys", h.issueKeys)
	api.Get("/users/:user_id/public-key", h.publicKey)

	return app
}
