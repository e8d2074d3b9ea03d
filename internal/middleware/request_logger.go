package middleware

import (
	"authapi/internal/logutil"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog/log"
)

// RequestLogger puts a logger tagged with the request id into the request's user context.
// It must run after the requestid middleware.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		logger := log.With().
			Str("request.id", requestID(c)).
			Str("http.method", c.Method()).
			Str("http.path", c.Path()).
			Logger()
		c.SetUserContext(logutil.WithLogger(c.UserContext(), logger))
		return c.Next()
	}
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok {
		return id
	}
	return c.Get(fiber.HeaderXRequestID)
}
