package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/znakly/agent/internal/core/services"
	"github.com/znakly/agent/internal/domain"
	"github.com/znakly/agent/internal/infrastructure/certs"
	"github.com/znakly/agent/internal/infrastructure/logger"
	"github.com/znakly/agent/internal/transport/http/dto"
)

type AuthHandler struct {
	auth      *services.AuthService
	directory certs.Directory
	logger    *logger.Logger
}

func NewAuthHandler(auth *services.AuthService, directory certs.Directory, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, directory: directory, logger: logger}
}

// Login resolves the selected certificate by thumbprint and runs the
// challenge/response protocol. Blocks until the login settles; the follow-up
// submission round runs detached.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.Thumbprint == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "thumbprint is required"})
	}

	identity, err := h.findIdentity(req.Thumbprint)
	if err != nil {
		h.logger.Warnw("login_certificate_lookup_failed", "thumbprint", req.Thumbprint, "error", err)
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	if err := h.auth.Login(c.Context(), identity); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	state, _ := h.auth.State()
	return c.JSON(dto.LoginResponse{
		State:   string(state),
		Message: "login successful, token saved",
	})
}

func (h *AuthHandler) findIdentity(thumbprint string) (domain.Identity, error) {
	identities, err := h.directory.ListIdentities()
	if err != nil {
		return domain.Identity{}, err
	}

	want := normalizeThumbprint(thumbprint)
	for _, identity := range identities {
		if normalizeThumbprint(identity.Thumbprint) == want {
			return identity, nil
		}
	}
	return domain.Identity{}, services.ErrIdentityNotFound
}

func normalizeThumbprint(s string) string {
	return strings.ToUpper(strings.NewReplacer(":", "", " ", "").Replace(s))
}
