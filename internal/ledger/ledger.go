package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrWalletNotFound indicates the referenced wallet does not exist.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrWalletFrozen occurs when a mutation targets a frozen wallet.
	ErrWalletFrozen = errors.New("wallet is frozen")

	// ErrInsufficientBalance occurs when a debit exceeds the available balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidAmount indicates a non-positive mutation amount.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrDuplicateReference indicates the transaction reference was already
	// applied to this wallet and the operation should be treated as idempotent.
	ErrDuplicateReference = errors.New("duplicate mutation reference")

	// ErrWalletNotEmpty blocks deletion of a wallet that still holds funds.
	ErrWalletNotEmpty = errors.New("wallet balance must be zero")

	// ErrOutOfBalance is a fatal integrity fault: the stored balance does not
	// equal the sum of the wallet's mutation log.
	ErrOutOfBalance = errors.New("ledger out of balance")
)

const (
	// StatusActive marks a wallet that accepts mutations.
	StatusActive = "ACTIVE"
	// StatusFrozen marks a wallet that rejects all debits and credits.
	StatusFrozen = "FROZEN"
)

const (
	// DirectionDebit records money leaving the wallet.
	DirectionDebit = "DEBIT"
	// DirectionCredit records money entering the wallet.
	DirectionCredit = "CREDIT"
)

// Wallet is a stored value account. Balance is kept in minor currency units
// and is never negative. Version increases by one on every applied mutation.
type Wallet struct {
	ID        string
	AccountID string
	Name      string
	Balance   int64
	Status    string
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Entry is one immutable mutation log record. The mutation log is the sole
// source of truth for balance reconstruction.
type Entry struct {
	ID            string
	WalletID      string
	Reference     string
	Direction     string
	Amount        int64
	BalanceBefore int64
	BalanceAfter  int64
	Reason        string
	CreatedAt     time.Time
}

// Store is the ledger contract implemented by backends (in-memory, Postgres).
// Credit and Debit are atomic per wallet: the balance read, balance write and
// log append happen as one unit, serialized against concurrent mutations on
// the same wallet. Both are idempotent on a non-empty reference.
type Store interface {
	CreateWallet(ctx context.Context, accountID, name string) (Wallet, error)
	GetWallet(ctx context.Context, walletID string) (Wallet, error)
	WalletsByAccount(ctx context.Context, accountID string) ([]Wallet, error)
	Credit(ctx context.Context, walletID string, amount int64, reference, reason string) (Entry, error)
	Debit(ctx context.Context, walletID string, amount int64, reference, reason string) (Entry, error)
	Freeze(ctx context.Context, walletID string) error
	Unfreeze(ctx context.Context, walletID string) error
	Entries(ctx context.Context, walletID string) ([]Entry, error)
	DeleteWallet(ctx context.Context, walletID string) error
	Reconcile(ctx context.Context, walletID string) error
}
