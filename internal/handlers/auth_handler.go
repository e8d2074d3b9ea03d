package handlers

import (
	"errors"

	"authapi/internal/logutil"
	"authapi/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for registration and login.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// RegisterRoutes registers the public authentication routes.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/users", h.HandleRegister)
	router.Post("/sessions", h.HandleLogin)
}

// CredentialsRequest is the body of both register and login.
type CredentialsRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// SessionResponse is returned by a successful register or login.
type SessionResponse struct {
	UserID      string `json:"userId"`
	AccessToken string `json:"accessToken"`
}

// HandleRegister creates a user and answers with its id and access token.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	logger := logutil.GetOrDefault(c.UserContext())

	var req CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Debug().Err(err).Msg("Error parsing register request body")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Could not create user",
			"error":   "Invalid request body",
		})
	}

	user, err := h.authService.Register(c.UserContext(), req.Name, req.Password)
	if err != nil {
		var validationErr *services.ValidationError
		switch {
		case errors.As(err, &validationErr):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Could not create user",
				"errors":  validationErr.Fields,
			})
		case errors.Is(err, services.ErrDuplicateName):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Could not create user",
				"error":   "User name is already taken",
			})
		case errors.Is(err, services.ErrStoreUnavailable):
			logger.Error().Err(err).Msg("Error registering user")
			return serviceUnavailable(c)
		default:
			logger.Error().Err(err).Msg("Error registering user")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Could not create user",
			})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(SessionResponse{
		UserID:      user.ID,
		AccessToken: user.AccessToken,
	})
}

// HandleLogin checks credentials and answers with the user's existing access token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	logger := logutil.GetOrDefault(c.UserContext())

	var req CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Debug().Err(err).Msg("Error parsing login request body")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Could not log in",
			"error":   "Invalid request body",
		})
	}

	user, err := h.authService.Login(c.UserContext(), req.Name, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid username or password",
			})
		}
		logger.Error().Err(err).Msg("Error during login")
		if errors.Is(err, services.ErrStoreUnavailable) {
			return serviceUnavailable(c)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not log in",
		})
	}

	return c.JSON(SessionResponse{
		UserID:      user.ID,
		AccessToken: user.AccessToken,
	})
}

func serviceUnavailable(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"message": "Service temporarily unavailable",
	})
}
