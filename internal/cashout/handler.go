package cashout

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/flash-wallet/flash_ledger/internal/ledger"
	"github.com/flash-wallet/flash_ledger/internal/money"
)

// Handler exposes cash-out endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a cash-out handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Record books a cash-out offer.
func (h *Handler) Record(c *fiber.Ctx) error {
	var offer Offer
	if err := c.BodyParser(&offer); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if offer.UserWalletID == "" {
		return fiber.NewError(http.StatusBadRequest, "user_wallet_id is required")
	}

	entry, err := h.service.RecordCashOut(c.UserContext(), offer)
	if err != nil {
		return errorResponse(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"ledger_trx_id": entry.ID,
		"created_at":    entry.CreatedAt,
	})
}

// Settled handles the bank payout webhook.
func (h *Handler) Settled(c *fiber.Ctx) error {
	var settlement Settlement
	if err := c.BodyParser(&settlement); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if settlement.LedgerTrxID == "" {
		return fiber.NewError(http.StatusBadRequest, "ledger_trx_id is required")
	}

	res, err := h.service.RecordSettledCashOut(c.UserContext(), settlement)
	if err != nil {
		return errorResponse(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"entry_id":  res.Entry.ID,
		"duplicate": res.Duplicate,
	})
}

func errorResponse(err error) error {
	var conv *money.ConversionError
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, "ledger transaction not found")
	case errors.Is(err, ErrNotCashOut):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ledger.ErrCurrencyMismatch), errors.Is(err, money.ErrCurrencyMismatch):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.As(err, &conv), errors.Is(err, ErrInvalidSettlement):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrUnbalancedEntry), errors.Is(err, ledger.ErrInvalidLine):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case ledger.IsRetryable(err):
		return fiber.NewError(http.StatusServiceUnavailable, "ledger unavailable")
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
