package transaction

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the transaction HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a transaction handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	WalletID string `json:"wallet_id"`
	Amount   int64  `json:"amount"`
	Kind     string `json:"kind"`
	VANumber string `json:"va_number"`
}

type transactionResponse struct {
	ID           string    `json:"id"`
	WalletID     string    `json:"wallet_id"`
	WalletName   string    `json:"wallet_name,omitempty"`
	Amount       int64     `json:"amount"`
	Kind         string    `json:"kind"`
	VANumber     string    `json:"va_number,omitempty"`
	Status       string    `json:"status"`
	FailureCode  string    `json:"failure_code,omitempty"`
	Retryable    bool      `json:"retryable"`
	BalanceAfter int64     `json:"balance_after,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toResponse(tx Transaction) transactionResponse {
	return transactionResponse{
		ID:           tx.ID,
		WalletID:     tx.WalletID,
		WalletName:   tx.WalletName,
		Amount:       tx.Amount,
		Kind:         tx.Kind,
		VANumber:     tx.VANumber,
		Status:       tx.Status,
		FailureCode:  tx.FailureCode,
		Retryable:    Retryable(tx.FailureCode),
		BalanceAfter: tx.BalanceAfter,
		CreatedAt:    tx.CreatedAt,
		UpdatedAt:    tx.UpdatedAt,
	}
}

// Create processes a transaction request to a terminal state. Business
// refusals come back as data on the transaction, not as protocol faults.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	accountID, _ := c.Locals("account_id").(string)

	tx, err := h.service.Create(c.UserContext(), CreateInput{
		AccountID: accountID,
		WalletID:  req.WalletID,
		Amount:    req.Amount,
		Kind:      req.Kind,
		VANumber:  req.VANumber,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidRequest) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	return c.Status(http.StatusCreated).JSON(toResponse(tx))
}

// Get returns one of the caller's transactions by id.
func (h *Handler) Get(c *fiber.Ctx) error {
	accountID, _ := c.Locals("account_id").(string)
	tx, err := h.service.Get(c.UserContext(), accountID, c.Params("transactionId"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "transaction not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(toResponse(tx))
}

// List returns the caller's transactions, most recent first.
func (h *Handler) List(c *fiber.Ctx) error {
	accountID, _ := c.Locals("account_id").(string)
	txs, err := h.service.List(c.UserContext(), accountID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toResponse(tx))
	}
	return c.Status(http.StatusOK).JSON(out)
}
