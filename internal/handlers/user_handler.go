package handlers

import (
	"authapi/internal/middleware"
	"authapi/internal/services"

	"github.com/gofiber/fiber/v2"
)

// UserHandler serves resources that need an authenticated user.
type UserHandler struct {
	authService *services.AuthService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(authService *services.AuthService) *UserHandler {
	return &UserHandler{
		authService: authService,
	}
}

// RegisterRoutes registers the protected user routes behind gate.
func (h *UserHandler) RegisterRoutes(router fiber.Router, gate fiber.Handler) {
	router.Get("/users/:id", gate, h.HandleSecret)
}

// HandleSecret returns a message for the token owner. The :id segment is
// accepted but the token alone decides who the message is for.
func (h *UserHandler) HandleSecret(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"loggedOut": true,
			"message":   "Please try logging in again",
		})
	}
	return c.JSON(fiber.Map{
		"secretMessage": h.authService.SecretMessage(user),
	})
}
