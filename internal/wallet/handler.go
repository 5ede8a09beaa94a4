package wallet

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/flash-wallet/flash_ledger/internal/ledger"
	"github.com/flash-wallet/flash_ledger/internal/money"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	OwnerID  string `json:"owner_id"`
	Currency string `json:"currency"`
}

type walletResponse struct {
	ID       string `json:"id"`
	OwnerID  string `json:"owner_id"`
	Account  string `json:"account"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// Create registers a wallet for an owner.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	wallet, err := h.service.Create(c.UserContext(), CreateInput{OwnerID: req.OwnerID, Currency: req.Currency})
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(walletResponse{
		ID:       wallet.ID,
		OwnerID:  wallet.OwnerID,
		Account:  wallet.Account().String(),
		Currency: string(wallet.Currency),
		Status:   wallet.Status,
	})
}

// Balance returns the wallet balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	walletID := c.Params("walletId")
	balance, err := h.service.Balance(c.UserContext(), walletID)
	if err != nil {
		return errorResponse(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"wallet_id": walletID,
		"balance":   balance.Amount,
		"display":   balance.Amount.String(),
		"timestamp": balance.AsOf,
	})
}

// Transactions lists the wallet's journal entries, newest first.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	walletID := c.Params("walletId")
	entries, err := h.service.Transactions(c.UserContext(), walletID)
	if err != nil {
		return errorResponse(err)
	}
	if entries == nil {
		entries = []ledger.Entry{}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"wallet_id":    walletID,
		"transactions": entries,
	})
}

// Imbalance returns the swap-out imbalance used to size withdrawal fees.
func (h *Handler) Imbalance(c *fiber.Ctx) error {
	walletID := c.Params("walletId")
	imbalance, err := h.service.Imbalance(c.UserContext(), walletID)
	if err != nil {
		return errorResponse(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"wallet_id": walletID,
		"imbalance": imbalance,
	})
}

func errorResponse(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, money.ErrCurrencyMismatch):
		return fiber.NewError(http.StatusConflict, err.Error())
	case ledger.IsRetryable(err):
		return fiber.NewError(http.StatusServiceUnavailable, "ledger unavailable")
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
