package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/znakly/agent/internal/domain"
	"github.com/znakly/agent/internal/infrastructure/certs"
	"github.com/znakly/agent/internal/infrastructure/logger"
	"github.com/znakly/agent/internal/transport/http/dto"
)

type CertificateHandler struct {
	directory certs.Directory
	logger    *logger.Logger
}

func NewCertificateHandler(directory certs.Directory, logger *logger.Logger) *CertificateHandler {
	return &CertificateHandler{directory: directory, logger: logger}
}

// GetCertificates lists the selectable identities, optionally filtered by a
// case-insensitive subject substring.
func (h *CertificateHandler) GetCertificates(c *fiber.Ctx) error {
	identities, err := h.directory.ListIdentities()
	if err != nil {
		h.logger.Errorw("certificate_list_failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	search := strings.ToLower(c.Query("search"))
	if search != "" {
		filtered := make([]domain.Identity, 0, len(identities))
		for _, identity := range identities {
			if strings.Contains(strings.ToLower(identity.SubjectName), search) {
				filtered = append(filtered, identity)
			}
		}
		identities = filtered
	}

	return c.JSON(identities)
}
