package wallet

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dompet-pay/dompet_pay/internal/ledger"
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
	Name string `json:"name"`
}

type walletResponse struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Name      string    `json:"name"`
	Balance   int64     `json:"balance"`
	Status    string    `json:"status"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type entryResponse struct {
	ID            string    `json:"id"`
	Reference     string    `json:"reference,omitempty"`
	Direction     string    `json:"direction"`
	Amount        int64     `json:"amount"`
	BalanceBefore int64     `json:"balance_before"`
	BalanceAfter  int64     `json:"balance_after"`
	Reason        string    `json:"reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toWalletResponse(w ledger.Wallet) walletResponse {
	return walletResponse{
		ID:        w.ID,
		AccountID: w.AccountID,
		Name:      w.Name,
		Balance:   w.Balance,
		Status:    w.Status,
		Version:   w.Version,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

// Create provisions a wallet for the authenticated account.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	accountID, _ := c.Locals("account_id").(string)

	w, err := h.service.Create(c.UserContext(), CreateInput{AccountID: accountID, Name: req.Name})
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(toWalletResponse(w))
}

// Get returns one of the caller's wallets.
func (h *Handler) Get(c *fiber.Ctx) error {
	accountID, _ := c.Locals("account_id").(string)
	w, err := h.service.Get(c.UserContext(), accountID, c.Params("walletId"))
	if err != nil {
		return walletError(err)
	}
	return c.Status(http.StatusOK).JSON(toWalletResponse(w))
}

// List returns the caller's wallets, most recent first.
func (h *Handler) List(c *fiber.Ctx) error {
	accountID, _ := c.Locals("account_id").(string)
	wallets, err := h.service.List(c.UserContext(), accountID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]walletResponse, 0, len(wallets))
	for _, w := range wallets {
		out = append(out, toWalletResponse(w))
	}
	return c.Status(http.StatusOK).JSON(out)
}

// History returns the wallet's mutation log, most recent first.
func (h *Handler) History(c *fiber.Ctx) error {
	accountID, _ := c.Locals("account_id").(string)
	entries, err := h.service.History(c.UserContext(), accountID, c.Params("walletId"))
	if err != nil {
		return walletError(err)
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			ID:            e.ID,
			Reference:     e.Reference,
			Direction:     e.Direction,
			Amount:        e.Amount,
			BalanceBefore: e.BalanceBefore,
			BalanceAfter:  e.BalanceAfter,
			Reason:        e.Reason,
			CreatedAt:     e.CreatedAt,
		})
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Delete removes an empty wallet.
func (h *Handler) Delete(c *fiber.Ctx) error {
	accountID, _ := c.Locals("account_id").(string)
	if err := h.service.Delete(c.UserContext(), accountID, c.Params("walletId")); err != nil {
		return walletError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// Freeze is the admin endpoint blocking wallet mutations.
func (h *Handler) Freeze(c *fiber.Ctx) error {
	if err := h.service.Freeze(c.UserContext(), c.Params("walletId")); err != nil {
		return walletError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": ledger.StatusFrozen})
}

// Unfreeze is the admin endpoint reactivating a wallet.
func (h *Handler) Unfreeze(c *fiber.Ctx) error {
	if err := h.service.Unfreeze(c.UserContext(), c.Params("walletId")); err != nil {
		return walletError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": ledger.StatusActive})
}

// Reconcile is the admin integrity check comparing the wallet balance with
// its mutation log.
func (h *Handler) Reconcile(c *fiber.Ctx) error {
	err := h.service.Reconcile(c.UserContext(), c.Params("walletId"))
	switch {
	case err == nil:
		return c.Status(http.StatusOK).JSON(fiber.Map{"consistent": true})
	case errors.Is(err, ledger.ErrOutOfBalance):
		return c.Status(http.StatusConflict).JSON(fiber.Map{"consistent": false})
	default:
		return walletError(err)
	}
}

func walletError(err error) error {
	switch {
	case errors.Is(err, ledger.ErrWalletNotFound):
		return fiber.NewError(http.StatusNotFound, "wallet not found")
	case errors.Is(err, ledger.ErrWalletNotEmpty):
		return fiber.NewError(http.StatusConflict, "wallet balance must be zero")
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
