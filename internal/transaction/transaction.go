package transaction

import (
	"errors"
	"time"
)

const (
	// KindDeposit credits the wallet.
	KindDeposit = "DEPOSIT"
	// KindPayment debits the wallet after settlement confirmation.
	KindPayment = "PAYMENT"
	// KindTransfer debits the wallet in favor of another party.
	KindTransfer = "TRANSFER"
)

// Transaction statuses. SUCCESS, FAILED and REJECTED are terminal; the rest
// are intermediate states of the orchestration state machine.
const (
	StatusPending    = "PENDING"
	StatusFraudCheck = "FRAUD_CHECK"
	StatusSafe       = "SAFE"
	StatusSuspicious = "SUSPICIOUS"
	StatusRejected   = "REJECTED"
	StatusSuccess    = "SUCCESS"
	StatusFailed     = "FAILED"
)

// Failure codes carried on a terminal transaction as data. Callers use the
// code, not a transport fault, to distinguish "evaluated and refused" from
// "could not be evaluated".
const (
	FailureFraudRejected         = "FRAUD_REJECTED"
	FailureFraudCheckUnavailable = "FRAUD_CHECK_UNAVAILABLE"
	FailureInsufficientBalance   = "INSUFFICIENT_BALANCE"
	FailureWalletFrozen          = "WALLET_FROZEN"
	FailureWalletNotFound        = "WALLET_NOT_FOUND"
	FailureSettlementMismatch    = "SETTLEMENT_MISMATCH"
	FailureSettlementUnavailable = "SETTLEMENT_UNAVAILABLE"
	FailureLedgerUnavailable     = "LEDGER_UNAVAILABLE"
	FailureCancelled             = "CANCELLED"
)

var (
	// ErrInvalidRequest rejects malformed input before a transaction record
	// is created. Not retryable as-is.
	ErrInvalidRequest = errors.New("invalid transaction request")

	// ErrNotFound indicates no transaction exists for the account and id.
	ErrNotFound = errors.New("transaction not found")
)

// Transaction is the orchestrator's record of one payment or deposit attempt.
type Transaction struct {
	ID           string
	AccountID    string
	WalletID     string
	WalletName   string
	Amount       int64
	Kind         string
	VANumber     string
	Status       string
	FailureCode  string
	VerdictID    string
	BalanceAfter int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Terminal reports whether no further transition can occur.
func (t Transaction) Terminal() bool {
	switch t.Status {
	case StatusSuccess, StatusFailed, StatusRejected:
		return true
	}
	return false
}

// Retryable reports whether resubmitting (with a fresh transaction id) can
// reasonably succeed. Business refusals are not retryable with the same
// inputs; infrastructure failures are.
func Retryable(failureCode string) bool {
	switch failureCode {
	case FailureFraudCheckUnavailable, FailureLedgerUnavailable, FailureSettlementUnavailable, FailureCancelled:
		return true
	}
	return false
}

// ValidKind reports whether the kind is one the orchestrator accepts.
func ValidKind(kind string) bool {
	switch kind {
	case KindDeposit, KindPayment, KindTransfer:
		return true
	}
	return false
}
