package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/flash-wallet/flash_ledger/internal/cashout"
	"github.com/flash-wallet/flash_ledger/internal/funding"
)

// RegisterFundingRoutes wires provider top-up webhooks.
func RegisterFundingRoutes(r fiber.Router, h *funding.Handler) {
	r.Post("/topups/:provider", h.Topup)
}

// RegisterCashoutRoutes wires cash-out initiation. The idempotency middleware
// applies to this route only.
func RegisterCashoutRoutes(r fiber.Router, h *cashout.Handler, idempotency fiber.Handler) {
	r.Post("/cashouts", idempotency, h.Record)
}

// RegisterSettlementRoutes wires the bank settlement webhook.
func RegisterSettlementRoutes(r fiber.Router, h *cashout.Handler) {
	r.Post("/cashouts/settled", h.Settled)
}
