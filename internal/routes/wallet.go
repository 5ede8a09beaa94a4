package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/flash-wallet/flash_ledger/internal/ledger"
	"github.com/flash-wallet/flash_ledger/internal/wallet"
)

// RegisterWalletRoutes wires wallet-related endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Post("/wallets", h.Create)
	r.Get("/wallets/:walletId/balance", h.Balance)
	r.Get("/wallets/:walletId/transactions", h.Transactions)
	r.Get("/wallets/:walletId/imbalance", h.Imbalance)
}

// RegisterJournalRoutes exposes read access to posted entries.
func RegisterJournalRoutes(r fiber.Router, h *ledger.Handler) {
	r.Get("/journal/:entryId", h.Entry)
}
