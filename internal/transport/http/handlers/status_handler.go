package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/znakly/agent/internal/config"
	"github.com/znakly/agent/internal/core/services"
	"github.com/znakly/agent/internal/infrastructure/storage"
)

type StatusHandler struct {
	store  *storage.Store
	poller *services.PollerService
	stats  *services.StatsService
}

func NewStatusHandler(store *storage.Store, poller *services.PollerService, stats *services.StatsService) *StatusHandler {
	return &StatusHandler{store: store, poller: poller, stats: stats}
}

// GetStatus reports agent liveness: auth state, poller state and host stats.
func (h *StatusHandler) GetStatus(c *fiber.Ctx) error {
	_, err := h.store.LoadToken()

	var lastCycle string
	if t := h.poller.LastCycle(); !t.IsZero() {
		lastCycle = t.Format(time.RFC3339)
	}

	return c.JSON(fiber.Map{
		"version":         config.Version,
		"authenticated":   err == nil,
		"poller_running":  h.poller.Running(),
		"last_poll_cycle": lastCycle,
		"host":            h.stats.Collect(),
	})
}
