package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// SystemHandler serves the route listing and the health check.
type SystemHandler struct {
	db Pinger
}

// NewSystemHandler creates a new SystemHandler. db may be nil.
func NewSystemHandler(db Pinger) *SystemHandler {
	return &SystemHandler{db: db}
}

// RegisterRoutes registers "/" and "/health".
func (h *SystemHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.HandleRoutes)
	router.Get("/health", h.HandleHealth)
}

// Endpoint is one entry of the route listing.
type Endpoint struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// HandleRoutes lists every route registered on the app.
func (h *SystemHandler) HandleRoutes(c *fiber.Ctx) error {
	routes := c.App().GetRoutes(true)
	endpoints := make([]Endpoint, 0, len(routes))
	for _, r := range routes {
		if r.Method == fiber.MethodHead {
			continue
		}
		endpoints = append(endpoints, Endpoint{Method: r.Method, Path: r.Path})
	}
	return c.JSON(endpoints)
}

// HandleHealth reports the service status and whether the database answers.
func (h *SystemHandler) HandleHealth(c *fiber.Ctx) error {
	database := "unknown"
	status := fiber.StatusOK
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			database = "unreachable"
			status = fiber.StatusServiceUnavailable
		} else {
			database = "connected"
		}
	}

	health := "healthy"
	if status != fiber.StatusOK {
		health = "degraded"
	}
	return c.Status(status).JSON(fiber.Map{
		"status":   health,
		"database": database,
		"time":     time.Now().Format(time.RFC3339),
	})
}
