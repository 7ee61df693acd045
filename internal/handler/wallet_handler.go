package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/terraed/terra-api/internal/dto"
	"github.com/terraed/terra-api/internal/service"
	"github.com/terraed/terra-api/internal/utils"
)

// WalletHandler manages the points wallet endpoints.
type WalletHandler struct {
	service   service.WalletService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewWalletHandler builds a wallet handler instance.
func NewWalletHandler(service service.WalletService, validator *validator.Validate, logger zerolog.Logger) *WalletHandler {
	return &WalletHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "wallet_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *WalletHandler) Register(router fiber.Router) {
	router.Post("/redeem", h.redeem)
	router.Get("/:userID", h.wallet)
}

func (h *WalletHandler) wallet(c *fiber.Ctx) error {
	userID, err := parseUintParam(c, "userID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
	}

	wallet, err := h.service.GetWallet(c.Context(), userID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "wallet retrieved", wallet)
}

func (h *WalletHandler) redeem(c *fiber.Ctx) error {
	var payload dto.RedeemRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	voucher, err := h.service.Redeem(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "voucher issued", voucher)
}

func (h *WalletHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrBelowRedemptionMinimum):
		return utils.SendError(c, fiber.StatusConflict, "balance below redemption minimum")
	case errors.Is(err, service.ErrInsufficientBalance):
		return utils.SendError(c, fiber.StatusConflict, "insufficient balance")
	case errors.Is(err, service.ErrRedemptionLimit):
		return utils.SendError(c, fiber.StatusTooManyRequests, "weekly redemption limit reached")
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
