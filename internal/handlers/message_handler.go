package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/kiffoh/messaging-app-mongoDB/internal/domain"
	"github.com/kiffoh/messaging-app-mongoDB/internal/middleware"
	"github.com/kiffoh/messaging-app-mongoDB/internal/services"
	"go.uber.org/zap"
)

type MessageService interface {
	Create(ctx context.Context, in services.CreateMessageInput) (*domain.Message, error)
	Update(ctx context.Context, chatID, messageID, requesterID, content string) (*domain.Message, error)
	Delete(ctx context.Context, chatID, messageID, requesterID string) error
}

type InboxService interface {
	List(ctx context.Context, userID string) ([]domain.Chat, error)
}

type MessageHandler struct {
	messages MessageService
	inbox    InboxService
	log      *zap.Logger
}

func NewMessageHandler(messages MessageService, inbox InboxService, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, inbox: inbox, log: logger}
}

type createMessageRequest struct {
	Content  string  `json:"content" validate:"max=2000"`
	PhotoURL *string `json:"photoUrl" validate:"omitempty,max=2048"`
}

type updateMessageRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// Inbox lists the caller's chats, most recently active first.
func (h *MessageHandler) Inbox(c *fiber.Ctx) error {
	userID := c.Params("userId")
	if err := requireSelf(c, userID); err != nil {
		return writeError(c, h.log, err)
	}
	chats, err := h.inbox.List(c.UserContext(), userID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(chats)
}

func (h *MessageHandler) Create(c *fiber.Ctx) error {
	var req createMessageRequest
	if err := parseBody(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	msg, err := h.messages.Create(c.UserContext(), services.CreateMessageInput{
		Content:  req.Content,
		ChatID:   c.Params("chatId"),
		AuthorID: middleware.UserID(c),
		PhotoURL: req.PhotoURL,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

func (h *MessageHandler) Update(c *fiber.Ctx) error {
	var req updateMessageRequest
	if err := parseBody(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	msg, err := h.messages.Update(c.UserContext(), c.Params("chatId"), c.Params("messageId"), middleware.UserID(c), req.Content)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(msg)
}

func (h *MessageHandler) Delete(c *fiber.Ctx) error {
	if err := h.messages.Delete(c.UserContext(), c.Params("chatId"), c.Params("messageId"), middleware.UserID(c)); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "message deleted"})
}
