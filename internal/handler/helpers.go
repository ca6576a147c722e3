package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edudefi-go-api/internal/middleware"
	"github.com/noah-isme/edudefi-go-api/internal/service"
	"github.com/noah-isme/edudefi-go-api/internal/transaction"
	"github.com/noah-isme/edudefi-go-api/internal/utils"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// errorMappings is checked in order; the first sentinel matched by errors.Is wins.
var errorMappings = []errorMapping{
	{transaction.ErrInvalidParams, fiber.StatusBadRequest, "invalid_params"},
	{service.ErrContractDocumentMissing, fiber.StatusBadRequest, "document_missing"},
	{service.ErrDocumentRequired, fiber.StatusBadRequest, "document_missing"},
	{service.ErrDocumentNotPDF, fiber.StatusUnsupportedMediaType, "document_not_pdf"},
	{service.ErrDocumentTooLarge, fiber.StatusRequestEntityTooLarge, "document_too_large"},
	{service.ErrDocumentStoreFailed, fiber.StatusBadGateway, "document_store_failed"},
	{service.ErrEntityNotFound, fiber.StatusNotFound, "not_found"},
	{service.ErrDemoSessionNotFound, fiber.StatusNotFound, "not_found"},
	{service.ErrDemoSessionClosed, fiber.StatusConflict, "session_closed"},
	{service.ErrDemoStepPrecondition, fiber.StatusConflict, "step_precondition"},
	{service.ErrSignerUnavailable, fiber.StatusServiceUnavailable, "signer_unavailable"},
	{service.ErrSubmissionFailed, fiber.StatusBadGateway, "submission_failed"},
	{service.ErrConfirmationFailed, fiber.StatusGatewayTimeout, "confirmation_failed"},
	{service.ErrTransactionAborted, fiber.StatusUnprocessableEntity, "transaction_aborted"},
	{service.ErrExpectedObjectNotFound, fiber.StatusUnprocessableEntity, "expected_object_not_found"},
}

// sendServiceError maps a service failure to a response. data is attached to ledger failures
// so callers keep the digest of a transaction that may have committed.
func sendServiceError(c *fiber.Ctx, logger zerolog.Logger, err error, data interface{}) error {
	if isValidationError(err) {
		return utils.SendErrorCode(c, fiber.StatusBadRequest, "validation_failed", err.Error())
	}

	var fieldErr *service.FieldError
	if errors.As(err, &fieldErr) {
		requestLogger(logger, c).Warn().Err(err).Str("field", fieldErr.Field).Msg("ledger object failed to decode")
		return utils.SendErrorCode(c, fiber.StatusUnprocessableEntity, "invalid_object", fieldErr.Error())
	}

	for _, mapping := range errorMappings {
		if !errors.Is(err, mapping.target) {
			continue
		}
		if mapping.status >= fiber.StatusInternalServerError {
			requestLogger(logger, c).Error().Err(err).Msg(mapping.code)
		}
		if data != nil {
			return utils.SendErrorCode(c, mapping.status, mapping.code, err.Error(), data)
		}
		return utils.SendErrorCode(c, mapping.status, mapping.code, err.Error())
	}

	requestLogger(logger, c).Error().Err(err).Msg("request failed")
	return utils.SendErrorCode(c, fiber.StatusInternalServerError, "internal_error", "internal server error")
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

func invalidBody(c *fiber.Ctx) error {
	return utils.SendErrorCode(c, fiber.StatusBadRequest, "invalid_body", "invalid request body")
}
