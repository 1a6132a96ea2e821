package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"reminderapi/internal/http/middleware"
	"reminderapi/internal/repository"
	"reminderapi/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// serviceError maps reminder service errors onto HTTP responses.
// Unexpected errors are logged and reported as 500.
func serviceError(c *fiber.Ctx, log *slog.Logger, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidDate):
		return writeError(c, fiber.StatusBadRequest, "INVALID_DATE", "date must be in YYYY-MM-DD format")
	case errors.Is(err, service.ErrAgentRequired):
		return writeError(c, fiber.StatusBadRequest, "AGENT_REQUIRED", "agent id is required")
	case errors.Is(err, repository.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "call record not found")
	case errors.Is(err, service.ErrArchiveDisabled):
		return writeError(c, fiber.StatusServiceUnavailable, "ARCHIVE_DISABLED", "report archive is not configured")
	default:
		log.Error("request failed", "request_id", requestIDFromCtx(c), "path", c.Path(), "error", err)
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusUpgradeRequired:
			return writeError(c, status, "UPGRADE_REQUIRED", "websocket upgrade required")
		case fiber.StatusUnprocessableEntity:
			return writeError(c, status, "UNPROCESSABLE_ENTITY", "unprocessable entity")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
