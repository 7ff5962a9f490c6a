package handler

import (
	"encoding/json"
	"errors"
	"strings"

	"go-inventory-ledger/internal/logger"
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// responder writes the response envelope shared by every endpoint:
// {success, data, message, errors, summary}.
type responder struct {
	logger *zap.Logger
}

func respond(c *fiber.Ctx, status int, data interface{}, message string) error {
	body := fiber.Map{"success": true, "data": data}
	if message != "" {
		body["message"] = message
	}
	return c.Status(status).JSON(body)
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "message": message})
}

// Helper untuk ambil User ID dari JWT Context (set by auth middleware)
func getUserID(c *fiber.Ctx) string {
	if userID, ok := c.Locals("user_id").(string); ok {
		return userID
	}
	return "system"
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

// parseBody decodes the JSON body. It answers the request itself and returns
// false when the body is unusable.
func (r responder) parseBody(c *fiber.Ctx, out interface{}) (bool, error) {
	err := c.BodyParser(out)
	if err == nil {
		return true, nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return false, c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"message": "Validation failed",
			"errors":  fiber.Map{typeErr.Field: typeErr.Field + " must be a " + typeErr.Type.String()},
		})
	}
	return false, fail(c, fiber.StatusBadRequest, "Invalid JSON body")
}

// respondError maps service errors onto HTTP statuses.
func (r responder) respondError(c *fiber.Ctx, err error) error {
	var invalid *service.ValidationError
	var insufficient *service.InsufficientStockError

	switch {
	case errors.As(err, &invalid):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"message": "Validation failed",
			"errors":  invalid.Fields,
		})
	case errors.As(err, &insufficient):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success":   false,
			"message":   insufficient.Error(),
			"available": insufficient.Available,
		})
	case errors.Is(err, service.ErrNotFound):
		return fail(c, fiber.StatusNotFound, capitalize(err.Error()))
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrUserInactive):
		return fail(c, fiber.StatusUnauthorized, capitalize(err.Error()))
	}

	r.logger.Error("Request failed",
		zap.String("request_id", logger.GetRequestID(c.UserContext())),
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err))
	return fail(c, fiber.StatusInternalServerError, "Internal server error")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
