package wallet

import (
	"context"
	"fmt"

	"github.com/dompet-pay/dompet_pay/internal/ledger"
)

// Service exposes wallet lifecycle operations backed by the ledger store.
type Service struct {
	store ledger.Store
}

// NewService builds a wallet service instance.
func NewService(store ledger.Store) *Service {
	return &Service{store: store}
}

// CreateInput captures data required to create a wallet.
type CreateInput struct {
	AccountID string
	Name      string
}

// Create provisions a named wallet for the account. Accounts can hold
// several wallets.
func (s *Service) Create(ctx context.Context, input CreateInput) (ledger.Wallet, error) {
	if input.AccountID == "" {
		return ledger.Wallet{}, fmt.Errorf("account id is required")
	}
	if input.Name == "" {
		return ledger.Wallet{}, fmt.Errorf("wallet name is required")
	}
	return s.store.CreateWallet(ctx, input.AccountID, input.Name)
}

// Get retrieves a wallet owned by the account.
func (s *Service) Get(ctx context.Context, accountID, walletID string) (ledger.Wallet, error) {
	w, err := s.store.GetWallet(ctx, walletID)
	if err != nil {
		return ledger.Wallet{}, err
	}
	if w.AccountID != accountID {
		return ledger.Wallet{}, ledger.ErrWalletNotFound
	}
	return w, nil
}

// List returns the account's wallets, most recent first.
func (s *Service) List(ctx context.Context, accountID string) ([]ledger.Wallet, error) {
	return s.store.WalletsByAccount(ctx, accountID)
}

// History returns the wallet's mutation log, most recent first.
func (s *Service) History(ctx context.Context, accountID, walletID string) ([]ledger.Entry, error) {
	if _, err := s.Get(ctx, accountID, walletID); err != nil {
		return nil, err
	}
	return s.store.Entries(ctx, walletID)
}

// Delete removes an owned wallet holding no funds.
func (s *Service) Delete(ctx context.Context, accountID, walletID string) error {
	if _, err := s.Get(ctx, accountID, walletID); err != nil {
		return err
	}
	return s.store.DeleteWallet(ctx, walletID)
}

// Freeze blocks all mutations on the wallet. Administrative; idempotent.
func (s *Service) Freeze(ctx context.Context, walletID string) error {
	return s.store.Freeze(ctx, walletID)
}

// Unfreeze reactivates the wallet. Administrative; idempotent.
func (s *Service) Unfreeze(ctx context.Context, walletID string) error {
	return s.store.Unfreeze(ctx, walletID)
}

// Reconcile verifies the wallet balance against its mutation log.
func (s *Service) Reconcile(ctx context.Context, walletID string) error {
	return s.store.Reconcile(ctx, walletID)
}
