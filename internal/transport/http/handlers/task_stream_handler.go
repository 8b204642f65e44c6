package handlers

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/znakly/agent/internal/core/services"
	"github.com/znakly/agent/internal/infrastructure/logger"
)

type TaskStreamHandler struct {
	poller *services.PollerService
	logger *logger.Logger
}

func NewTaskStreamHandler(poller *services.PollerService, logger *logger.Logger) *TaskStreamHandler {
	return &TaskStreamHandler{poller: poller, logger: logger}
}

// Handle pushes the current task status snapshot to the UI until the peer
// goes away.
func (h *TaskStreamHandler) Handle(c *websocket.Conn) {
	defer c.Close()

	if err := c.WriteJSON(h.poller.Views()); err != nil {
		return
	}

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		if err := c.WriteJSON(h.poller.Views()); err != nil {
			h.logger.Debugw("task_stream_closed", "error", err)
			return
		}
	}
}
