package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edudefi-go-api/internal/middleware"
	"github.com/noah-isme/edudefi-go-api/internal/service"
	"github.com/noah-isme/edudefi-go-api/internal/utils"
)

// DocumentHandler uploads contract PDFs to the configured blob store.
type DocumentHandler struct {
	service service.DocumentService
	logger  zerolog.Logger
}

func NewDocumentHandler(documents service.DocumentService, logger zerolog.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: documents,
		logger:  logger.With().Str("component", "document_handler").Logger(),
	}
}

// Register mounts the upload route.
func (h *DocumentHandler) Register(router fiber.Router) {
	router.Post("/", middleware.WithWallet(h.Upload, middleware.WalletOptions{}))
}

// Upload stores the "document" form part and returns its blob id.
func (h *DocumentHandler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("document")
	if err != nil {
		return sendServiceError(c, h.logger, service.ErrDocumentRequired, nil)
	}

	document, err := h.service.Upload(c.UserContext(), file, middleware.WalletFromContext(c))
	if err != nil {
		if errors.Is(err, service.ErrDocumentStoreFailed) {
			requestLogger(h.logger, c).Warn().Err(err).Str("file", file.Filename).Msg("document upload failed")
		}
		return sendServiceError(c, h.logger, err, nil)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "document uploaded", document)
}
