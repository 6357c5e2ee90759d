package settlement

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// OutcomeConfirmed means the virtual account reference is valid, unpaid
	// and now marked settled for the given amount.
	OutcomeConfirmed = "CONFIRMED"
	// OutcomeMismatch means the reference exists but cannot settle this
	// payment (already settled or amount differs).
	OutcomeMismatch = "MISMATCH"
	// OutcomeUnknown means the counterparty does not recognize the reference.
	OutcomeUnknown = "UNKNOWN"
)

// ErrUnavailable indicates the settlement counterparty could not be reached;
// distinct from a mismatch, which is a definitive business answer.
var ErrUnavailable = errors.New("settlement adapter unavailable")

// Confirmation is the counterparty's answer for a virtual account reference.
type Confirmation struct {
	Outcome   string
	Reference string
	SettledAt time.Time
}

// Adapter confirms a payment's virtual account reference with the external
// counterparty. Confirmation must precede any ledger mutation for a payment.
type Adapter interface {
	ConfirmSettlement(ctx context.Context, vaNumber string, amount int64) (Confirmation, error)
}

// StaticAdapter confirms every reference with a synthetic settlement id.
// Used in development when no counterparty is wired.
type StaticAdapter struct{}

// ConfirmSettlement approves the reference unconditionally.
func (StaticAdapter) ConfirmSettlement(_ context.Context, _ string, _ int64) (Confirmation, error) {
	return Confirmation{Outcome: OutcomeConfirmed, Reference: uuid.NewString(), SettledAt: time.Now().UTC()}, nil
}

type directoryEntry struct {
	amount  int64
	settled bool
}

// DirectoryAdapter simulates the counterparty's virtual account directory:
// references must be registered up front, settle exactly once, and settle
// only for the registered amount.
type DirectoryAdapter struct {
	mu      sync.Mutex
	entries map[string]*directoryEntry
}

// NewDirectoryAdapter builds an empty directory.
func NewDirectoryAdapter() *DirectoryAdapter {
	return &DirectoryAdapter{entries: make(map[string]*directoryEntry)}
}

// Register adds an unpaid virtual account reference expecting the amount.
func (a *DirectoryAdapter) Register(vaNumber string, amount int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries[vaNumber] = &directoryEntry{amount: amount}
}

// ConfirmSettlement resolves the reference against the directory.
func (a *DirectoryAdapter) ConfirmSettlement(_ context.Context, vaNumber string, amount int64) (Confirmation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	entry, ok := a.entries[vaNumber]
	if !ok {
		return Confirmation{Outcome: OutcomeUnknown}, nil
	}
	if entry.settled || entry.amount != amount {
		return Confirmation{Outcome: OutcomeMismatch}, nil
	}
	entry.settled = true
	return Confirmation{Outcome: OutcomeConfirmed, Reference: uuid.NewString(), SettledAt: time.Now().UTC()}, nil
}
