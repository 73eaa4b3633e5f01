package middlewares

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders unhandled errors as JSON. Internal errors are logged
// with their cause but only a generic message leaves the service.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}
	if code == fiber.StatusInternalServerError {
		slog.Error("unhandled error", "path", ctx.Path(), "code", code, "error", err)
		message = "Internal server error"
	}
	return ctx.Status(code).JSON(fiber.Map{
		"message": message,
	})
}
