package routes

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dompet-pay/dompet_pay/internal/audit"
	"github.com/dompet-pay/dompet_pay/internal/fraud"
	"github.com/dompet-pay/dompet_pay/internal/wallet"
)

type verdictResponse struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Amount    int64     `json:"amount"`
	Label     string    `json:"label"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

type auditRecordResponse struct {
	TransactionID string    `json:"transaction_id"`
	AccountID     string    `json:"account_id"`
	WalletID      string    `json:"wallet_id"`
	Amount        int64     `json:"amount"`
	Kind          string    `json:"kind"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// RegisterAdminRoutes wires the operator surface: wallet controls plus
// read-only views over fraud verdicts and the audit log.
func RegisterAdminRoutes(r fiber.Router, h *wallet.Handler, verdicts fraud.VerdictRepository, records audit.Lister) {
	r.Post("/wallets/:walletId/freeze", h.Freeze)
	r.Post("/wallets/:walletId/unfreeze", h.Unfreeze)
	r.Post("/wallets/:walletId/reconcile", h.Reconcile)

	r.Get("/fraud/verdicts", func(c *fiber.Ctx) error {
		list, err := verdicts.List(c.UserContext())
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, "list verdicts")
		}
		out := make([]verdictResponse, 0, len(list))
		for _, v := range list {
			out = append(out, verdictResponse{
				ID:        v.ID,
				AccountID: v.AccountID,
				Amount:    v.Amount,
				Label:     v.Label,
				Reason:    v.Reason,
				CreatedAt: v.CreatedAt,
			})
		}
		return c.JSON(fiber.Map{"verdicts": out})
	})

	r.Get("/audit/records", func(c *fiber.Ctx) error {
		recs, err := records.List(c.UserContext())
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, "list audit records")
		}
		accountID := c.Query("account_id")
		walletID := c.Query("wallet_id")
		out := make([]auditRecordResponse, 0, len(recs))
		for _, rec := range recs {
			if accountID != "" && rec.AccountID != accountID {
				continue
			}
			if walletID != "" && rec.WalletID != walletID {
				continue
			}
			out = append(out, auditRecordResponse{
				TransactionID: rec.TransactionID,
				AccountID:     rec.AccountID,
				WalletID:      rec.WalletID,
				Amount:        rec.Amount,
				Kind:          rec.Kind,
				Status:        rec.Status,
				CreatedAt:     rec.CreatedAt,
			})
		}
		return c.JSON(fiber.Map{"records": out})
	})
}
