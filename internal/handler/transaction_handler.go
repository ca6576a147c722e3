package handler

import (
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/edudefi-go-api/internal/dto"
	"github.com/noah-isme/edudefi-go-api/internal/middleware"
	"github.com/noah-isme/edudefi-go-api/internal/service"
	"github.com/noah-isme/edudefi-go-api/internal/utils"
)

// TransactionHandler prepares unsigned payloads for the caller's wallet and confirms the
// digests it reports back.
type TransactionHandler struct {
	service service.TransactionService
	logger  zerolog.Logger
}

func NewTransactionHandler(transactions service.TransactionService, logger zerolog.Logger) *TransactionHandler {
	return &TransactionHandler{
		service: transactions,
		logger:  logger.With().Str("component", "transaction_handler").Logger(),
	}
}

// Register mounts the transaction routes. The router must already carry wallet auth.
func (h *TransactionHandler) Register(router fiber.Router) {
	router.Post("/student-profile", middleware.WithWallet(h.StudentProfile, middleware.WalletOptions{}))
	router.Post("/investor-profile", middleware.WithWallet(h.InvestorProfile, middleware.WalletOptions{}))
	router.Post("/contracts", middleware.WithWallet(h.CreateContract, middleware.WalletOptions{}))
	router.Post("/contracts/:id/accept", middleware.WithWallet(h.Accept, middleware.WalletOptions{}))
	router.Post("/contracts/:id/reject", middleware.WithWallet(h.Reject, middleware.WalletOptions{}))
	router.Post("/contracts/:id/fund", middleware.WithWallet(h.Fund, middleware.WalletOptions{}))
	router.Post("/dividends/pay", middleware.WithWallet(h.PayDividend, middleware.WalletOptions{}))
	router.Post("/dividends/claim", middleware.WithWallet(h.ClaimDividend, middleware.WalletOptions{}))
	router.Post("/confirm", middleware.WithWallet(h.Confirm, middleware.WalletOptions{}))
}

func (h *TransactionHandler) StudentProfile(c *fiber.Ctx) error {
	var req dto.StudentProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	prepared, err := h.service.PrepareStudentProfile(c.UserContext(), middleware.WalletFromContext(c), req)
	if err != nil {
		return sendServiceError(c, h.logger, err, nil)
	}
	return utils.SendSuccess(c, "transaction prepared", prepared)
}

func (h *TransactionHandler) InvestorProfile(c *fiber.Ctx) error {
	var req dto.InvestorProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	prepared, err := h.service.PrepareInvestorProfile(c.UserContext(), middleware.WalletFromContext(c), req)
	if err != nil {
		return sendServiceError(c, h.logger, err, nil)
	}
	return utils.SendSuccess(c, "transaction prepared", prepared)
}

// CreateContract accepts JSON, or a multipart form whose "document" part is uploaded and its
// blob id used as the contract's pdf hash.
func (h *TransactionHandler) CreateContract(c *fiber.Ctx) error {
	var (
		req      dto.CreateContractRequest
		document *multipart.FileHeader
		err      error
	)

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		req, err = contractRequestFromForm(c)
		if err != nil {
			return utils.SendErrorCode(c, fiber.StatusBadRequest, "invalid_body", err.Error())
		}
		if file, fileErr := c.FormFile("document"); fileErr == nil {
			document = file
		}
	} else if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	prepared, err := h.service.PrepareContract(c.UserContext(), middleware.WalletFromContext(c), req, document)
	if err != nil {
		return sendServiceError(c, h.logger, err, nil)
	}
	return utils.SendSuccess(c, "transaction prepared", prepared)
}

func (h *TransactionHandler) Accept(c *fiber.Ctx) error {
	id, ok := objectIDParam(c)
	if !ok {
		return utils.SendErrorCode(c, fiber.StatusBadRequest, "invalid_id", "invalid contract id")
	}
	prepared, err := h.service.PrepareAccept(c.UserContext(), middleware.WalletFromContext(c), id)
	if err != nil {
		return sendServiceError(c, h.logger, err, nil)
	}
	return utils.SendSuccess(c, "transaction prepared", prepared)
}

func (h *TransactionHandler) Reject(c *fiber.Ctx) error {
	id, ok := objectIDParam(c)
	if !ok {
		return utils.SendErrorCode(c, fiber.StatusBadRequest, "invalid_id", "invalid contract id")
	}
	prepared, err := h.service.PrepareReject(c.UserContext(), middleware.WalletFromContext(c), id)
	if err != nil {
		return sendServiceError(c, h.logger, err, nil)
	}
	return utils.SendSuccess(c, "transaction prepared", prepared)
}

func (h *TransactionHandler) Fund(c *fiber.Ctx) error {
	id, ok := objectIDParam(c)
	if !ok {
		return utils.SendErrorCode(c, fiber.StatusBadRequest, "invalid_id", "invalid contract id")
	}
	var req dto.FundContractRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	prepared, err := h.service.PrepareFund(c.UserContext(), middleware.WalletFromContext(c), id, req)
	if err != nil {
		return sendServiceError(c, h.logger, err, nil)
	}
	return utils.SendSuccess(c, "transaction prepared", prepared)
}

func (h *TransactionHandler) PayDividend(c *fiber.Ctx) error {
	var req dto.PayDividendRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	prepared, err := h.service.PreparePayDividend(c.UserContext(), middleware.WalletFromContext(c), req)
	if err != nil {
		return sendServiceError(c, h.logger, err, nil)
	}
	return utils.SendSuccess(c, "transaction prepared", prepared)
}

func (h *TransactionHandler) ClaimDividend(c *fiber.Ctx) error {
	var req dto.ClaimDividendRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	prepared, err := h.service.PrepareClaimDividend(c.UserContext(), middleware.WalletFromContext(c), req)
	if err != nil {
		return sendServiceError(c, h.logger, err, nil)
	}
	return utils.SendSuccess(c, "transaction prepared", prepared)
}

// Confirm waits for the reported digest and returns its receipt. Failed outcomes still carry
// the receipt in the error payload.
func (h *TransactionHandler) Confirm(c *fiber.Ctx) error {
	var req dto.ConfirmTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	receipt, err := h.service.Confirm(c.UserContext(), middleware.WalletFromContext(c), req)
	if err != nil {
		var data interface{}
		if receipt.Digest != "" {
			data = receipt
		}
		return sendServiceError(c, h.logger, err, data)
	}
	return utils.SendSuccess(c, "transaction confirmed", receipt)
}

func contractRequestFromForm(c *fiber.Ctx) (dto.CreateContractRequest, error) {
	req := dto.CreateContractRequest{
		StudentAddress: strings.TrimSpace(c.FormValue("student_address")),
		PDFHash:        strings.TrimSpace(c.FormValue("pdf_hash")),
	}

	var err error
	if raw := strings.TrimSpace(c.FormValue("funding_amount")); raw != "" {
		if req.FundingAmount, err = decimal.NewFromString(raw); err != nil {
			return req, fmt.Errorf("funding_amount: %w", err)
		}
	}
	if req.ReleaseIntervalDays, err = formUint(c, "release_interval_days"); err != nil {
		return req, err
	}
	if req.EquityPercentage, err = formUint(c, "equity_percentage"); err != nil {
		return req, err
	}
	if req.DurationMonths, err = formUint(c, "duration_months"); err != nil {
		return req, err
	}
	return req, nil
}

func formUint(c *fiber.Ctx, key string) (uint64, error) {
	raw := strings.TrimSpace(c.FormValue(key))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return value, nil
}
