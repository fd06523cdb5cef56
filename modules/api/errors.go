package api

import (
	"errors"
	"log"

	"github.com/example/jobboard-auth/domain/apperr"
	"github.com/gofiber/fiber/v2"
)

const internalErrorMessage = "Internal Server Error"

// statusOf maps an error kind onto its HTTP status. Conflict is reported as
// 400, which is what clients of the register endpoint expect.
func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindBadRequest, apperr.KindConflict:
		return fiber.StatusBadRequest
	case apperr.KindUnauthorized:
		return fiber.StatusUnauthorized
	case apperr.KindForbidden:
		return fiber.StatusForbidden
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// sendMessage writes the error body shared by every failure response.
func sendMessage(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(ErrorResponse{
		Message: message,
		Status:  status,
	})
}

// sendError writes err as a JSON error response. Internal details are
// logged and replaced with a generic message.
func sendError(c *fiber.Ctx, err error) error {
	appErr, ok := apperr.As(err)
	if !ok || appErr.Kind == apperr.KindInternal {
		log.Printf("[api] Error: %s %s: %v", c.Method(), c.Path(), err)
		return sendMessage(c, fiber.StatusInternalServerError, internalErrorMessage)
	}
	return sendMessage(c, statusOf(appErr.Kind), appErr.Message)
}

// customErrorHandler handles errors returned from handlers and Fiber itself.
func customErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return sendMessage(c, fiberErr.Code, fiberErr.Message)
	}
	return sendError(c, err)
}
