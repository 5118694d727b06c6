package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/kiffoh/messaging-app-mongoDB/internal/cache"
	"github.com/kiffoh/messaging-app-mongoDB/internal/domain"
	"github.com/kiffoh/messaging-app-mongoDB/internal/services"
	"go.uber.org/zap"
)

type UserService interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*services.LoginResult, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	UpdateUser(ctx context.Context, userID string, patch services.UserPatch) (*domain.User, error)
	UpdateContacts(ctx context.Context, userID string, contactIDs []string) (*domain.User, error)
	ListUsernames(ctx context.Context) ([]domain.Member, error)
	DeleteUser(ctx context.Context, userID string) error
}

// PresenceReader reports whether a user has a live socket. It is optional.
type PresenceReader interface {
	Get(ctx context.Context, userID string) (cache.Status, error)
}

type UserHandler struct {
	svc      UserService
	presence PresenceReader
	log      *zap.Logger
}

func NewUserHandler(svc UserService, presence PresenceReader, logger *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, presence: presence, log: logger}
}

type credentialsRequest struct {
	Username string `json:"username" validate:"required,max=10"`
	Password string `json:"password" validate:"required,min=3,max=72"`
}

type updateUserRequest struct {
	Username *string `json:"username" validate:"omitempty,min=1,max=10"`
	Bio      *string `json:"bio" validate:"omitempty,max=200"`
	Photo    *string `json:"photo" validate:"omitempty,max=2048"`
}

type contactsRequest struct {
	Contacts []memberRef `json:"contacts" validate:"dive"`
}

func (h *UserHandler) Signup(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := parseBody(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	user, err := h.svc.Register(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "user created", "user": user})
}

func (h *UserHandler) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := parseBody(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	res, err := h.svc.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(res)
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	users, err := h.svc.ListUsernames(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(users)
}

func (h *UserHandler) Profile(c *fiber.Ctx) error {
	user, err := h.svc.GetUser(c.UserContext(), c.Params("userId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(user)
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	userID := c.Params("userId")
	if err := requireSelf(c, userID); err != nil {
		return writeError(c, h.log, err)
	}
	var req updateUserRequest
	if err := parseBody(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	user, err := h.svc.UpdateUser(c.UserContext(), userID, services.UserPatch{
		Username: req.Username,
		Bio:      req.Bio,
		Photo:    req.Photo,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(user)
}

func (h *UserHandler) UpdateContacts(c *fiber.Ctx) error {
	userID := c.Params("userId")
	if err := requireSelf(c, userID); err != nil {
		return writeError(c, h.log, err)
	}
	var req contactsRequest
	if err := parseBody(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	user, err := h.svc.UpdateContacts(c.UserContext(), userID, refIDs(req.Contacts))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(user)
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	userID := c.Params("userId")
	if err := requireSelf(c, userID); err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.svc.DeleteUser(c.UserContext(), userID); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "user deleted"})
}

func (h *UserHandler) Presence(c *fiber.Ctx) error {
	if h.presence == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "presence is not enabled"})
	}
	status, err := h.presence.Get(c.UserContext(), c.Params("userId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(status)
}
