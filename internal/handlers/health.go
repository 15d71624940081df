package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"lingorelay/internal/services"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	store *services.CorrelationStore
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store *services.CorrelationStore) *HealthHandler {
	return &HealthHandler{store: store}
}

// Handle responds with server health status
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"cacheSize": h.store.CacheSize(),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
