package middleware

import (
	"context"
	"errors"
	"strings"

	"authapi/internal/logutil"
	"authapi/internal/models"
	"authapi/internal/services"

	"github.com/gofiber/fiber/v2"
)

// UserLocalsKey is where AuthRequired stores the resolved *models.User.
const UserLocalsKey = "user"

// Authenticator resolves an access token to its owner.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// AuthRequired is a Fiber middleware that admits only requests carrying a known access token.
// The token is read from the Authorization header, either raw or as "Bearer <token>".
func AuthRequired(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := tokenFromHeader(c.Get(fiber.HeaderAuthorization))

		user, err := auth.Authenticate(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, services.ErrUnauthenticated) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"loggedOut": true,
					"message":   "Please try logging in again",
				})
			}
			logger := logutil.GetOrDefault(c.UserContext())
			logger.Error().Err(err).Msg("Token lookup failed")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"message": "Service temporarily unavailable",
			})
		}

		c.Locals(UserLocalsKey, user)
		return c.Next()
	}
}

// CurrentUser returns the user stored by AuthRequired, or nil outside a protected route.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(UserLocalsKey).(*models.User)
	return user
}

func tokenFromHeader(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}
