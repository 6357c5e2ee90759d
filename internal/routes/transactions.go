package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dompet-pay/dompet_pay/internal/transaction"
)

// RegisterTransactionRoutes wires transaction endpoints. Creation carries the
// per-account rate limit; reads do not.
func RegisterTransactionRoutes(r fiber.Router, h *transaction.Handler, rateLimit fiber.Handler) {
	r.Post("/transactions", rateLimit, h.Create)
	r.Get("/transactions", h.List)
	r.Get("/transactions/:transactionId", h.Get)
}
