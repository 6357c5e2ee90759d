package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dompet-pay/dompet_pay/internal/wallet"
)

// RegisterWalletRoutes wires wallet lifecycle endpoints for the caller's own wallets.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Post("/wallets", h.Create)
	r.Get("/wallets", h.List)
	r.Get("/wallets/:walletId", h.Get)
	r.Get("/wallets/:walletId/history", h.History)
	r.Delete("/wallets/:walletId", h.Delete)
}
