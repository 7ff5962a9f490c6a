package handler

import (
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthHandler struct {
	responder
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{responder: responder{logger: log.Named("handler")}, authService: authService}
}

// Login handles user authentication
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req service.LoginRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}
	if fields := validator.Fields(req); fields != nil {
		return h.respondError(c, &service.ValidationError{Fields: fields})
	}

	response, err := h.authService.Login(c.UserContext(), req)
	if err != nil {
		return h.respondError(c, err)
	}
	return respond(c, fiber.StatusOK, response, "")
}

// Me returns the identity attached by RequireAuth
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return respond(c, fiber.StatusOK, fiber.Map{
		"id":         c.Locals("user_id"),
		"email":      c.Locals("user_email"),
		"name":       c.Locals("user_name"),
		"role":       c.Locals("user_role"),
		"privileges": c.Locals("user_privileges"),
	}, "")
}

// Logout revokes the caller's session
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	userID, err := uuid.Parse(getUserID(c))
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Invalid or expired token")
	}
	if err := h.authService.Logout(c.UserContext(), userID); err != nil {
		return h.respondError(c, err)
	}
	return respond(c, fiber.StatusOK, nil, "Logged out successfully")
}
