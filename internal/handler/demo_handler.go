package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edudefi-go-api/internal/dto"
	"github.com/noah-isme/edudefi-go-api/internal/middleware"
	"github.com/noah-isme/edudefi-go-api/internal/service"
	"github.com/noah-isme/edudefi-go-api/internal/utils"
)

// DemoHandler drives the guided contract lifecycle walkthrough.
type DemoHandler struct {
	service service.LifecycleService
	logger  zerolog.Logger
}

func NewDemoHandler(lifecycle service.LifecycleService, logger zerolog.Logger) *DemoHandler {
	return &DemoHandler{
		service: lifecycle,
		logger:  logger.With().Str("component", "demo_handler").Logger(),
	}
}

// Register mounts the demo session routes. The router must already carry wallet auth.
func (h *DemoHandler) Register(router fiber.Router) {
	opts := middleware.WalletOptions{}
	router.Post("/", middleware.WithWallet(h.Start, opts))
	router.Get("/:id", middleware.WithWallet(h.Get, opts))
	router.Post("/:id/prepare", middleware.WithWallet(h.Prepare, opts))
	router.Post("/:id/complete", middleware.WithWallet(h.Complete, opts))
	router.Post("/:id/reject", middleware.WithWallet(h.Reject, opts))
	router.Post("/:id/advance", middleware.WithWallet(h.Advance, opts))
	router.Post("/:id/reset", middleware.WithWallet(h.Reset, opts))
}

func (h *DemoHandler) Start(c *fiber.Ctx) error {
	var req dto.DemoSessionCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	session, err := h.service.Start(c.UserContext(), middleware.WalletFromContext(c), req)
	if err != nil {
		return sendServiceError(c, h.logger, err, nil)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "demo session started", session)
}

func (h *DemoHandler) Get(c *fiber.Ctx) error {
	session, err := h.service.Get(c.UserContext(), c.Params("id"), middleware.WalletFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, nil)
	}
	return utils.SendSuccess(c, "demo session retrieved", session)
}

func (h *DemoHandler) Reset(c *fiber.Ctx) error {
	session, err := h.service.Reset(c.UserContext(), c.Params("id"), middleware.WalletFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, nil)
	}
	return utils.SendSuccess(c, "demo session reset", session)
}

// Prepare builds the payload for the current step; ?reject=true builds the rejection of the
// proposed contract instead.
func (h *DemoHandler) Prepare(c *fiber.Ctx) error {
	reject := c.QueryBool("reject", false)
	prepared, err := h.service.Prepare(c.UserContext(), c.Params("id"), middleware.WalletFromContext(c), reject)
	if err != nil {
		return sendServiceError(c, h.logger, err, nil)
	}
	return utils.SendSuccess(c, "transaction prepared", prepared)
}

func (h *DemoHandler) Complete(c *fiber.Ctx) error {
	var req dto.DemoDigestRequest
	if err := c.BodyParser(&req); err != nil || req.Digest == "" {
		return invalidBody(c)
	}
	result, err := h.service.Complete(c.UserContext(), c.Params("id"), middleware.WalletFromContext(c), req.Digest)
	return h.stepResult(c, "demo step completed", result, err)
}

func (h *DemoHandler) Reject(c *fiber.Ctx) error {
	var req dto.DemoDigestRequest
	if err := c.BodyParser(&req); err != nil || req.Digest == "" {
		return invalidBody(c)
	}
	result, err := h.service.Reject(c.UserContext(), c.Params("id"), middleware.WalletFromContext(c), req.Digest)
	return h.stepResult(c, "demo contract rejected", result, err)
}

// Advance signs and executes the current step server-side.
func (h *DemoHandler) Advance(c *fiber.Ctx) error {
	result, err := h.service.Advance(c.UserContext(), c.Params("id"), middleware.WalletFromContext(c))
	return h.stepResult(c, "demo step executed", result, err)
}

func (h *DemoHandler) stepResult(c *fiber.Ctx, message string, result dto.DemoStepResponse, err error) error {
	if err != nil {
		var data interface{}
		if result.Session.ID != "" {
			data = result
		}
		return sendServiceError(c, h.logger, err, data)
	}
	return utils.SendSuccess(c, message, result)
}
