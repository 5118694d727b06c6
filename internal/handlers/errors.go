package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/kiffoh/messaging-app-mongoDB/internal/ident"
	"github.com/kiffoh/messaging-app-mongoDB/internal/middleware"
	"github.com/kiffoh/messaging-app-mongoDB/internal/services"
	"github.com/kiffoh/messaging-app-mongoDB/internal/utils"
	"go.uber.org/zap"
)

type validationFailure struct {
	details []utils.ValidationError
}

func (v *validationFailure) Error() string { return "validation failed" }

// writeError renders an error returned by a service or a request check.
// Unknown errors are logged and reported without detail.
func writeError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	var vf *validationFailure
	if errors.As(err, &vf) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   vf.Error(),
			"details": vf.details,
		})
	}

	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, ident.ErrInvalidID):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		status = fiber.StatusUnauthorized
	case errors.Is(err, services.ErrPermissionDenied):
		status = fiber.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		status = fiber.StatusConflict
	}

	if status == fiber.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(status).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// parseBody decodes and validates the request body into dst.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fmt.Errorf("%w: malformed request body", services.ErrInvalidInput)
	}
	if err := utils.Validate.Struct(dst); err != nil {
		return &validationFailure{details: utils.FormatValidationErrors(err)}
	}
	return nil
}

// requireSelf rejects requests acting on another user's resources.
func requireSelf(c *fiber.Ctx, userID string) error {
	if middleware.UserID(c) != userID {
		return services.ErrPermissionDenied
	}
	return nil
}
