package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/kiffoh/messaging-app-mongoDB/internal/utils"
	"go.uber.org/zap"
)

// LocalUserID is the Locals key holding the authenticated user id.
const LocalUserID = "user_id"

type TokenVerifier interface {
	VerifyToken(token string) (*utils.CustomClaims, error)
}

type JWTMiddleware struct {
	verifier TokenVerifier
	log      *zap.Logger
}

func NewJWTMiddleware(verifier TokenVerifier, logger *zap.Logger) *JWTMiddleware {
	return &JWTMiddleware{verifier: verifier, log: logger}
}

// Handler requires an "Authorization: Bearer <token>" header.
func (j *JWTMiddleware) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := c.Get(fiber.HeaderAuthorization)
		if auth == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization"})
		}
		if !strings.HasPrefix(auth, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid authorization header"})
		}
		return j.authenticate(c, strings.TrimPrefix(auth, "Bearer "))
	}
}

// WebsocketUpgrade accepts only websocket upgrades carrying a valid ?token=.
func (j *JWTMiddleware) WebsocketUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		token := c.Query("token")
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing token"})
		}
		return j.authenticate(c, token)
	}
}

func (j *JWTMiddleware) authenticate(c *fiber.Ctx, token string) error {
	claims, err := j.verifier.VerifyToken(token)
	if err != nil {
		j.log.Debug("jwt invalid", zap.Error(err))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
	}
	c.Locals(LocalUserID, claims.UserID)
	return c.Next()
}

// UserID returns the authenticated user id set by the JWT middleware.
func UserID(c *fiber.Ctx) string {
	uid, _ := c.Locals(LocalUserID).(string)
	return uid
}
