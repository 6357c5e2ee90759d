package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type inMemoryStore struct {
	mu      sync.RWMutex
	wallets map[string]Wallet
	entries map[string][]Entry
	byRef   map[string]Entry
	locks   map[string]*sync.Mutex
}

// NewInMemory creates a concurrency-safe in-memory ledger store. Mutations on
// one wallet are serialized through a per-wallet lock; wallets mutate
// independently of each other.
func NewInMemory() Store {
	return &inMemoryStore{
		wallets: make(map[string]Wallet),
		entries: make(map[string][]Entry),
		byRef:   make(map[string]Entry),
		locks:   make(map[string]*sync.Mutex),
	}
}

func (s *inMemoryStore) walletLock(walletID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[walletID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[walletID] = lock
	}
	return lock
}

func (s *inMemoryStore) CreateWallet(_ context.Context, accountID, name string) (Wallet, error) {
	now := time.Now().UTC()
	w := Wallet{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Name:      name,
		Balance:   0,
		Status:    StatusActive,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallets[w.ID] = w
	return w, nil
}

func (s *inMemoryStore) GetWallet(_ context.Context, walletID string) (Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wallets[walletID]
	if !ok {
		return Wallet{}, ErrWalletNotFound
	}
	return w, nil
}

func (s *inMemoryStore) WalletsByAccount(_ context.Context, accountID string) ([]Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Wallet
	for _, w := range s.wallets {
		if w.AccountID == accountID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *inMemoryStore) Credit(ctx context.Context, walletID string, amount int64, reference, reason string) (Entry, error) {
	return s.mutate(ctx, walletID, DirectionCredit, amount, reference, reason)
}

func (s *inMemoryStore) Debit(ctx context.Context, walletID string, amount int64, reference, reason string) (Entry, error) {
	return s.mutate(ctx, walletID, DirectionDebit, amount, reference, reason)
}

func (s *inMemoryStore) mutate(_ context.Context, walletID, direction string, amount int64, reference, reason string) (Entry, error) {
	if amount <= 0 {
		return Entry{}, ErrInvalidAmount
	}

	// The per-wallet lock is the serialization point: mutations on one wallet
	// apply one at a time.
	lock := s.walletLock(walletID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if reference != "" {
		if prior, exists := s.byRef[walletID+":"+reference]; exists {
			return prior, ErrDuplicateReference
		}
	}

	w, ok := s.wallets[walletID]
	if !ok {
		return Entry{}, ErrWalletNotFound
	}
	if w.Status == StatusFrozen {
		return Entry{}, ErrWalletFrozen
	}

	before := w.Balance
	after := before
	switch direction {
	case DirectionCredit:
		after = before + amount
	case DirectionDebit:
		if before < amount {
			return Entry{}, ErrInsufficientBalance
		}
		after = before - amount
	}

	now := time.Now().UTC()
	entry := Entry{
		ID:            uuid.NewString(),
		WalletID:      walletID,
		Reference:     reference,
		Direction:     direction,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Reason:        reason,
		CreatedAt:     now,
	}

	w.Balance = after
	w.Version++
	w.UpdatedAt = now
	s.wallets[walletID] = w
	s.entries[walletID] = append(s.entries[walletID], entry)
	if reference != "" {
		s.byRef[walletID+":"+reference] = entry
	}
	return entry, nil
}

func (s *inMemoryStore) Freeze(_ context.Context, walletID string) error {
	return s.setStatus(walletID, StatusFrozen)
}

func (s *inMemoryStore) Unfreeze(_ context.Context, walletID string) error {
	return s.setStatus(walletID, StatusActive)
}

func (s *inMemoryStore) setStatus(walletID, status string) error {
	lock := s.walletLock(walletID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[walletID]
	if !ok {
		return ErrWalletNotFound
	}
	if w.Status == status {
		return nil
	}
	w.Status = status
	w.UpdatedAt = time.Now().UTC()
	s.wallets[walletID] = w
	return nil
}

func (s *inMemoryStore) Entries(_ context.Context, walletID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.wallets[walletID]; !ok {
		return nil, ErrWalletNotFound
	}
	logs := s.entries[walletID]
	out := make([]Entry, len(logs))
	copy(out, logs)
	// Most recent first; entries append in apply order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *inMemoryStore) DeleteWallet(_ context.Context, walletID string) error {
	lock := s.walletLock(walletID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[walletID]
	if !ok {
		return ErrWalletNotFound
	}
	if w.Balance > 0 {
		return ErrWalletNotEmpty
	}
	for _, e := range s.entries[walletID] {
		if e.Reference != "" {
			delete(s.byRef, walletID+":"+e.Reference)
		}
	}
	delete(s.wallets, walletID)
	delete(s.entries, walletID)
	delete(s.locks, walletID)
	return nil
}

func (s *inMemoryStore) Reconcile(_ context.Context, walletID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wallets[walletID]
	if !ok {
		return ErrWalletNotFound
	}
	var sum int64
	for _, e := range s.entries[walletID] {
		switch e.Direction {
		case DirectionCredit:
			sum += e.Amount
		case DirectionDebit:
			sum -= e.Amount
		}
	}
	if sum != w.Balance {
		return ErrOutOfBalance
	}
	return nil
}
