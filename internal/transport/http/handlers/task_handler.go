package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/znakly/agent/internal/core/services"
	"github.com/znakly/agent/internal/infrastructure/logger"
	"github.com/znakly/agent/internal/infrastructure/storage"
	"github.com/znakly/agent/internal/transport/http/dto"
)

type TaskHandler struct {
	dispatcher *services.DispatchService
	poller     *services.PollerService
	logger     *logger.Logger
}

func NewTaskHandler(dispatcher *services.DispatchService, poller *services.PollerService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{dispatcher: dispatcher, poller: poller, logger: logger}
}

// Submit triggers a submission round and reports the per-category outcomes
// in configured order.
func (h *TaskHandler) Submit(c *fiber.Ctx) error {
	outcomes, err := h.dispatcher.SubmitAll(c.Context())
	if err != nil {
		if errors.Is(err, storage.ErrNotAuthenticated) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "not logged in"})
		}
		h.logger.Errorw("submission_round_error", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(dto.SubmissionResponse{Outcomes: outcomes})
}

// GetStatus returns the latest completed poll snapshot.
func (h *TaskHandler) GetStatus(c *fiber.Ctx) error {
	return c.JSON(h.poller.Views())
}
