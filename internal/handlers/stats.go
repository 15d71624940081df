package handlers

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"lingorelay/internal/services"
)

// StatsHandler serves the aggregated analytics the dashboard reads.
// Endpoints return 503 when the MongoDB mirror is not configured.
type StatsHandler struct {
	analytics *services.AnalyticsService // nil when mirror disabled
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(analytics *services.AnalyticsService) *StatsHandler {
	return &StatsHandler{analytics: analytics}
}

// GetStats returns message totals, unique users, and per-language counts
func (h *StatsHandler) GetStats(c *fiber.Ctx) error {
	if h.analytics == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "analytics mirror not configured",
		})
	}

	stats, err := h.analytics.Stats(c.Context())
	if err != nil {
		log.Printf("❌ [STATS] Failed to aggregate stats: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to aggregate stats",
		})
	}

	return c.JSON(stats)
}

// GetRecentTranslations returns the most recently relayed messages
func (h *StatsHandler) GetRecentTranslations(c *fiber.Ctx) error {
	if h.analytics == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "analytics mirror not configured",
		})
	}

	limit := int64(50)
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	docs, err := h.analytics.Recent(c.Context(), limit)
	if err != nil {
		log.Printf("❌ [STATS] Failed to query recent translations: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to query recent translations",
		})
	}

	return c.JSON(fiber.Map{
		"translations": docs,
		"count":        len(docs),
	})
}
