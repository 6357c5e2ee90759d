package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/dompet-pay/dompet_pay/internal/ledger"
)

func TestServiceCreateAndGet(t *testing.T) {
	svc := NewService(ledger.NewInMemory())
	ctx := context.Background()

	w, err := svc.Create(ctx, CreateInput{AccountID: "acct-1", Name: "holiday savings"})
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	if w.Status != ledger.StatusActive || w.Balance != 0 {
		t.Fatalf("unexpected new wallet: %+v", w)
	}

	fetched, err := svc.Get(ctx, "acct-1", w.ID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if fetched.Name != "holiday savings" {
		t.Fatalf("expected name to round-trip, got %q", fetched.Name)
	}
}

func TestServiceHidesForeignWallets(t *testing.T) {
	svc := NewService(ledger.NewInMemory())
	ctx := context.Background()

	w, _ := svc.Create(ctx, CreateInput{AccountID: "acct-1", Name: "main"})

	if _, err := svc.Get(ctx, "acct-2", w.ID); !errors.Is(err, ledger.ErrWalletNotFound) {
		t.Fatalf("foreign account must not see the wallet, got %v", err)
	}
	if _, err := svc.History(ctx, "acct-2", w.ID); !errors.Is(err, ledger.ErrWalletNotFound) {
		t.Fatalf("foreign account must not see wallet history, got %v", err)
	}
	if err := svc.Delete(ctx, "acct-2", w.ID); !errors.Is(err, ledger.ErrWalletNotFound) {
		t.Fatalf("foreign account must not delete the wallet, got %v", err)
	}
}

func TestServiceValidatesCreateInput(t *testing.T) {
	svc := NewService(ledger.NewInMemory())
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateInput{Name: "no account"}); err == nil {
		t.Fatal("expected error for missing account id")
	}
	if _, err := svc.Create(ctx, CreateInput{AccountID: "acct-1"}); err == nil {
		t.Fatal("expected error for missing name")
	}
}

func TestServiceHistoryAndReconcile(t *testing.T) {
	store := ledger.NewInMemory()
	svc := NewService(store)
	ctx := context.Background()

	w, _ := svc.Create(ctx, CreateInput{AccountID: "acct-1", Name: "main"})
	if _, err := store.Credit(ctx, w.ID, 1_000, "tx-1", "deposit"); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if _, err := store.Debit(ctx, w.ID, 400, "tx-2", "payment"); err != nil {
		t.Fatalf("debit: %v", err)
	}

	entries, err := svc.History(ctx, "acct-1", w.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 2 || entries[0].Reference != "tx-2" {
		t.Fatalf("expected most recent entry first, got %+v", entries)
	}

	if err := svc.Reconcile(ctx, w.ID); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
}
