package transaction

import (
	"context"
	"sort"
	"sync"
)

// Repository persists transaction records across state transitions.
type Repository interface {
	Create(ctx context.Context, tx Transaction) error
	Update(ctx context.Context, tx Transaction) error
	Get(ctx context.Context, txID string) (Transaction, error)
	ListByAccount(ctx context.Context, accountID string) ([]Transaction, error)
}

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Transaction
	order   []string
}

// NewMemoryRepository constructs an in-memory repository for tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string]Transaction)}
}

func (r *memoryRepository) Create(_ context.Context, tx Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storage[tx.ID] = tx
	r.order = append(r.order, tx.ID)
	return nil
}

func (r *memoryRepository) Update(_ context.Context, tx Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.storage[tx.ID]; !ok {
		return ErrNotFound
	}
	r.storage[tx.ID] = tx
	return nil
}

func (r *memoryRepository) Get(_ context.Context, txID string) (Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tx, ok := r.storage[txID]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	return tx, nil
}

func (r *memoryRepository) ListByAccount(_ context.Context, accountID string) ([]Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Transaction
	// Walk newest-first so equal timestamps keep insertion order.
	for i := len(r.order) - 1; i >= 0; i-- {
		if tx := r.storage[r.order[i]]; tx.AccountID == accountID {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
