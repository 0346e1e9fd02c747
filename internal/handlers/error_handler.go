package handlers

import (
	"errors"
	"log"

	"accounts/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler is the app-wide Fiber error handler. Every error funnels
// through here and becomes a `{"error": message}` body with the status code
// of its kind. Wrapped internal causes are logged, never sent to the caller.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		if appErr.Kind == apperr.Internal {
			log.Printf("Internal error on %s %s: %v", c.Method(), c.Path(), err)
		}
		return c.Status(appErr.Status()).JSON(fiber.Map{
			"error": appErr.Message,
		})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"error": fiberErr.Message,
		})
	}

	log.Printf("Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}
