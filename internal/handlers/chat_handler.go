package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/kiffoh/messaging-app-mongoDB/internal/domain"
	"github.com/kiffoh/messaging-app-mongoDB/internal/middleware"
	"github.com/kiffoh/messaging-app-mongoDB/internal/services"
	"go.uber.org/zap"
)

type ChatService interface {
	CreateDirectMessage(ctx context.Context, memberIDs []string) (*domain.Chat, bool, error)
	CreateGroup(ctx context.Context, in services.CreateGroupInput) (*domain.Chat, bool, error)
	GetChat(ctx context.Context, chatID, viewerID string) (*domain.Chat, error)
	UpdateChat(ctx context.Context, chatID, viewerID string, patch services.ChatPatch) (*domain.Chat, error)
	DeleteChat(ctx context.Context, chatID, requesterID string) error
}

type ChatHandler struct {
	svc ChatService
	log *zap.Logger
}

func NewChatHandler(svc ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{svc: svc, log: logger}
}

type createGroupRequest struct {
	Members []memberRef `json:"members" validate:"required,min=1,dive"`
	Name    *string     `json:"name" validate:"omitempty,max=20"`
	Bio     *string     `json:"bio" validate:"omitempty,max=200"`
	Photo   *string     `json:"photo" validate:"omitempty,max=2048"`
}

type directMessageRequest struct {
	Members []memberRef `json:"members" validate:"required,min=1,max=2,dive"`
}

type updateChatRequest struct {
	Name  *string `json:"name" validate:"omitempty,max=20"`
	Bio   *string `json:"bio" validate:"omitempty,max=200"`
	Photo *string `json:"photo" validate:"omitempty,max=2048"`
}

// CreateGroup creates a group administered by the caller. An identical named
// group is answered with 409 and the existing chat.
func (h *ChatHandler) CreateGroup(c *fiber.Ctx) error {
	var req createGroupRequest
	if err := parseBody(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	chat, existed, err := h.svc.CreateGroup(c.UserContext(), services.CreateGroupInput{
		MemberIDs: withRequesterFirst(middleware.UserID(c), refIDs(req.Members)),
		Name:      req.Name,
		Bio:       req.Bio,
		Photo:     req.Photo,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	if existed {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "group already exists", "group": chat})
	}
	return c.Status(fiber.StatusCreated).JSON(chat)
}

// CreateDirectMessage opens the caller's direct chat with the other member.
// When the pair already has one it is returned with 409.
func (h *ChatHandler) CreateDirectMessage(c *fiber.Ctx) error {
	var req directMessageRequest
	if err := parseBody(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	ids := withRequesterFirst(middleware.UserID(c), refIDs(req.Members))
	chat, existed, err := h.svc.CreateDirectMessage(c.UserContext(), ids)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if existed {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "direct message already exists", "group": chat})
	}
	return c.Status(fiber.StatusCreated).JSON(chat)
}

func (h *ChatHandler) Profile(c *fiber.Ctx) error {
	chat, err := h.svc.GetChat(c.UserContext(), c.Params("groupId"), middleware.UserID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(chat)
}

func (h *ChatHandler) Update(c *fiber.Ctx) error {
	var req updateChatRequest
	if err := parseBody(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	chat, err := h.svc.UpdateChat(c.UserContext(), c.Params("groupId"), middleware.UserID(c), services.ChatPatch{
		Name:  req.Name,
		Bio:   req.Bio,
		Photo: req.Photo,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(chat)
}

func (h *ChatHandler) Delete(c *fiber.Ctx) error {
	if err := h.svc.DeleteChat(c.UserContext(), c.Params("groupId"), middleware.UserID(c)); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "group deleted"})
}
