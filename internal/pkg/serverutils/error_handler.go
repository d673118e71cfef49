package serverutils

import (
	"errors"

	"support-chat-be/internal/apperror"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware maps the chat core's error taxonomy to HTTP status
// codes. NotFound -> 404, Unauthorized -> 403, InvalidRole -> 422,
// claim conflicts and closed-chat mutations -> 409. Anything unrecognized is
// a 500 with a generic message so internals never leak.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(fiber.Map{"message": fiberErr.Message})
		}

		status := fiber.StatusInternalServerError
		message := "internal server error"

		switch {
		case errors.Is(err, apperror.ErrChatNotFound),
			errors.Is(err, apperror.ErrMessageNotFound),
			errors.Is(err, apperror.ErrUserNotFound):
			status = fiber.StatusNotFound
			message = err.Error()
		case errors.Is(err, apperror.ErrUnauthorized):
			status = fiber.StatusForbidden
			message = err.Error()
		case errors.Is(err, apperror.ErrInvalidRole):
			status = fiber.StatusUnprocessableEntity
			message = err.Error()
		case errors.Is(err, apperror.ErrChatAlreadyClaimed),
			errors.Is(err, apperror.ErrChatClosed):
			status = fiber.StatusConflict
			message = err.Error()
		}

		return ctx.Status(status).JSON(fiber.Map{"message": message})
	}
}
