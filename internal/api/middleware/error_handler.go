package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ids-rs/idsrs/internal/ierrors"
)

// ErrorHandler is a custom Fiber error handler that converts ierrors.APIError
// instances to structured JSON responses. Use this as the app's ErrorHandler
// config.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var apiErr *ierrors.APIError
	if errors.As(err, &apiErr) {
		return c.Status(apiErr.Status).JSON(fiber.Map{
			"error":   apiErr.Code,
			"message": apiErr.Message,
		})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"error":   "HTTP_ERROR",
			"message": fiberErr.Message,
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   "INTERNAL_ERROR",
		"message": "an unexpected error occurred",
	})
}
