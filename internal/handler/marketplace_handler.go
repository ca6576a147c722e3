package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edudefi-go-api/internal/service"
	"github.com/noah-isme/edudefi-go-api/internal/utils"
	"github.com/noah-isme/edudefi-go-api/pkg/sui"
)

// MarketplaceHandler exposes registry listings and single entity lookups.
type MarketplaceHandler struct {
	service service.MarketplaceService
	logger  zerolog.Logger
}

// NewMarketplaceHandler constructs the handler.
func NewMarketplaceHandler(marketplace service.MarketplaceService, logger zerolog.Logger) *MarketplaceHandler {
	return &MarketplaceHandler{
		service: marketplace,
		logger:  logger.With().Str("component", "marketplace_handler").Logger(),
	}
}

// Register mounts the marketplace routes.
func (h *MarketplaceHandler) Register(router fiber.Router) {
	router.Get("/students", h.ListStudents)
	router.Get("/students/:id", h.GetStudent)
	router.Get("/investors", h.ListInvestors)
	router.Get("/investors/:id", h.GetInvestor)
	router.Get("/contracts", h.ContractsFor)
	router.Get("/contracts/:id", h.GetContract)
}

// ListStudents returns every student registered in the registry.
func (h *MarketplaceHandler) ListStudents(c *fiber.Ctx) error {
	students, err := h.service.ListStudents(c.UserContext())
	if err != nil {
		return sendServiceError(c, h.logger, err, nil)
	}
	return utils.SendSuccess(c, "students retrieved", students)
}

// ListInvestors returns every investor registered in the registry.
func (h *MarketplaceHandler) ListInvestors(c *fiber.Ctx) error {
	investors, err := h.service.ListInvestors(c.UserContext())
	if err != nil {
		return sendServiceError(c, h.logger, err, nil)
	}
	return utils.SendSuccess(c, "investors retrieved", investors)
}

func (h *MarketplaceHandler) GetStudent(c *fiber.Ctx) error {
	id, ok := objectIDParam(c)
	if !ok {
		return utils.SendErrorCode(c, fiber.StatusBadRequest, "invalid_id", "invalid object id")
	}
	student, err := h.service.GetStudent(c.UserContext(), id)
	if err != nil {
		return sendServiceError(c, h.logger, err, nil)
	}
	return utils.SendSuccess(c, "student retrieved", student)
}

func (h *MarketplaceHandler) GetInvestor(c *fiber.Ctx) error {
	id, ok := objectIDParam(c)
	if !ok {
		return utils.SendErrorCode(c, fiber.StatusBadRequest, "invalid_id", "invalid object id")
	}
	investor, err := h.service.GetInvestor(c.UserContext(), id)
	if err != nil {
		return sendServiceError(c, h.logger, err, nil)
	}
	return utils.SendSuccess(c, "investor retrieved", investor)
}

func (h *MarketplaceHandler) GetContract(c *fiber.Ctx) error {
	id, ok := objectIDParam(c)
	if !ok {
		return utils.SendErrorCode(c, fiber.StatusBadRequest, "invalid_id", "invalid object id")
	}
	contract, err := h.service.GetContract(c.UserContext(), id)
	if err != nil {
		return sendServiceError(c, h.logger, err, nil)
	}
	return utils.SendSuccess(c, "contract retrieved", contract)
}

// ContractsFor lists the contracts in which ?address= is the student or the investor.
func (h *MarketplaceHandler) ContractsFor(c *fiber.Ctx) error {
	address := strings.TrimSpace(c.Query("address"))
	if !sui.IsValidAddress(address) {
		return utils.SendErrorCode(c, fiber.StatusBadRequest, "invalid_address", "address query parameter must be a wallet address")
	}
	contracts, err := h.service.ContractsFor(c.UserContext(), address)
	if err != nil {
		return sendServiceError(c, h.logger, err, nil)
	}
	return utils.SendSuccess(c, "contracts retrieved", contracts)
}

func objectIDParam(c *fiber.Ctx) (string, bool) {
	id := strings.TrimSpace(c.Params("id"))
	if !sui.IsValidAddress(id) {
		return "", false
	}
	return id, true
}
