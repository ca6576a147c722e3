package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edudefi-go-api/internal/service"
	"github.com/noah-isme/edudefi-go-api/internal/utils"
	"github.com/noah-isme/edudefi-go-api/pkg/sui"
)

// ProfileHandler serves the cached profile session of a wallet.
type ProfileHandler struct {
	sessions service.ProfileSessionService
	logger   zerolog.Logger
}

func NewProfileHandler(sessions service.ProfileSessionService, logger zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{
		sessions: sessions,
		logger:   logger.With().Str("component", "profile_handler").Logger(),
	}
}

// Register mounts the read route. Refresh is mounted separately behind wallet auth.
func (h *ProfileHandler) Register(router fiber.Router) {
	router.Get("/:address", h.Session)
}

// Session returns the profile, contracts and view for :address.
func (h *ProfileHandler) Session(c *fiber.Ctx) error {
	address, ok := addressParam(c)
	if !ok {
		return utils.SendErrorCode(c, fiber.StatusBadRequest, "invalid_address", "invalid wallet address")
	}
	snapshot, err := h.sessions.Session(c.UserContext(), address)
	if err != nil {
		return sendServiceError(c, h.logger, err, nil)
	}
	return utils.SendSuccess(c, "profile session retrieved", snapshot)
}

// Refresh bypasses the cache and re-resolves :address.
func (h *ProfileHandler) Refresh(c *fiber.Ctx) error {
	address, ok := addressParam(c)
	if !ok {
		return utils.SendErrorCode(c, fiber.StatusBadRequest, "invalid_address", "invalid wallet address")
	}
	snapshot, err := h.sessions.Refresh(c.UserContext(), address)
	if err != nil {
		return sendServiceError(c, h.logger, err, nil)
	}
	requestLogger(h.logger, c).Debug().Str("address", snapshot.Address).Msg("profile session refreshed")
	return utils.SendSuccess(c, "profile session refreshed", snapshot)
}

func addressParam(c *fiber.Ctx) (string, bool) {
	address := strings.TrimSpace(c.Params("address"))
	if !sui.IsValidAddress(address) {
		return "", false
	}
	return sui.NormalizeAddress(address), true
}
