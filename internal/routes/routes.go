package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/kiffoh/messaging-app-mongoDB/internal/handlers"
	"github.com/kiffoh/messaging-app-mongoDB/internal/middleware"
)

type Deps struct {
	Users    *handlers.UserHandler
	Chats    *handlers.ChatHandler
	Messages *handlers.MessageHandler
	Auth     *middleware.JWTMiddleware
	// Limiter is nil when Redis is not configured.
	Limiter *middleware.RateLimiter
	Socket  func(*websocket.Conn)
}

func Setup(app *fiber.App, d Deps) {
	app.Get("/ws", d.Auth.WebsocketUpgrade(), websocket.New(d.Socket))

	// limit runs after auth so signed-in users are counted by id
	limit := func(c *fiber.Ctx) error { return c.Next() }
	if d.Limiter != nil {
		limit = d.Limiter.MiddlewareByKey(middleware.ByUserOrIP)
	}
	authed := d.Auth.Handler()

	api := app.Group("/api/v1")

	users := api.Group("/users")
	users.Post("/signup", limit, d.Users.Signup)
	users.Post("/login", limit, d.Users.Login)
	users.Get("/", authed, limit, d.Users.List)
	users.Get("/:userId/profile", authed, limit, d.Users.Profile)
	users.Get("/:userId/presence", authed, limit, d.Users.Presence)
	users.Put("/:userId/contacts", authed, limit, d.Users.UpdateContacts)
	users.Put("/:userId", authed, limit, d.Users.Update)
	users.Delete("/:userId", authed, limit, d.Users.Delete)

	groups := api.Group("/groups", authed, limit)
	groups.Post("/", d.Chats.CreateGroup)
	groups.Post("/direct", d.Chats.CreateDirectMessage)
	groups.Get("/:groupId/profile", d.Chats.Profile)
	groups.Put("/:groupId", d.Chats.Update)
	groups.Delete("/:groupId", d.Chats.Delete)

	messages := api.Group("/messages", authed, limit)
	messages.Get("/:userId", d.Messages.Inbox)
	messages.Post("/:chatId", d.Messages.Create)
	messages.Put("/:chatId/:messageId", d.Messages.Update)
	messages.Delete("/:chatId/:messageId", d.Messages.Delete)
}
