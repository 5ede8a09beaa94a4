package funding

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/flash-wallet/flash_ledger/internal/ledger"
	"github.com/flash-wallet/flash_ledger/internal/money"
)

// Handler exposes the top-up webhook.
type Handler struct {
	service           *Service
	providers         Providers
	bankOwnerWalletID string
}

// NewHandler constructs a funding handler. Deposits are floated from the
// bank owner's wallet.
func NewHandler(service *Service, providers Providers, bankOwnerWalletID string) *Handler {
	return &Handler{service: service, providers: providers, bankOwnerWalletID: bankOwnerWalletID}
}

// Topup handles POST /webhooks/topups/:provider.
func (h *Handler) Topup(c *fiber.Ctx) error {
	provider, err := h.providers.Lookup(c.Params("provider"))
	if err != nil {
		return fiber.NewError(http.StatusNotFound, err.Error())
	}

	n, err := provider.Decode(c.Body())
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.RecordTopup(c.UserContext(), TopupInput{
		RecipientWalletID:     n.RecipientWalletID,
		BankOwnerWalletID:     h.bankOwnerWalletID,
		Amount:                n.Amount,
		Provider:              provider.Name(),
		ExternalTransactionID: n.ExternalTransactionID,
		Fee:                   n.Fee,
	})
	if err != nil {
		var conv *money.ConversionError
		switch {
		case errors.Is(err, ErrInvalidTopup), errors.As(err, &conv):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ledger.ErrCurrencyMismatch):
			return fiber.NewError(http.StatusConflict, err.Error())
		case ledger.IsRetryable(err):
			return fiber.NewError(http.StatusServiceUnavailable, "ledger unavailable")
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	return c.Status(status).JSON(TopupResponse{EntryID: result.Entry.ID, Duplicate: result.Duplicate})
}
