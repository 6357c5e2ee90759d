package transaction

import (
	"context"
	"errors"
	"testing"

	"github.com/dompet-pay/dompet_pay/internal/audit"
	"github.com/dompet-pay/dompet_pay/internal/fraud"
	"github.com/dompet-pay/dompet_pay/internal/ledger"
	"github.com/dompet-pay/dompet_pay/internal/logging"
	"github.com/dompet-pay/dompet_pay/internal/settlement"
)

type unavailableEvaluator struct{}

func (unavailableEvaluator) Evaluate(context.Context, string, int64) (fraud.Verdict, error) {
	return fraud.Verdict{}, errors.New("evaluator timeout")
}

type failingRecorder struct{}

func (failingRecorder) Record(context.Context, audit.Record) error {
	return errors.New("audit sink unreachable")
}

type fixture struct {
	service  *Service
	store    ledger.Store
	auditor  *audit.MemoryRecorder
	adapter  *settlement.DirectoryAdapter
	verdicts fraud.VerdictRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := ledger.NewInMemory()
	verdicts := fraud.NewMemoryRepository()
	evaluator := fraud.NewThresholdEvaluator(fraud.Thresholds{Suspicious: 10_000_000, Block: 50_000_000}, verdicts)
	auditor := audit.NewMemoryRecorder()
	adapter := settlement.NewDirectoryAdapter()
	svc := NewService(NewMemoryRepository(), store, evaluator, adapter, auditor, logging.Discard(), Timeouts{})
	return &fixture{service: svc, store: store, auditor: auditor, adapter: adapter, verdicts: verdicts}
}

func (f *fixture) newWallet(t *testing.T, accountID string, balance int64) ledger.Wallet {
	t.Helper()
	w, err := f.store.CreateWallet(context.Background(), accountID, "main")
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	if balance > 0 {
		if _, err := f.store.Credit(context.Background(), w.ID, balance, "seed-"+w.ID, "initial funding"); err != nil {
			t.Fatalf("seed wallet: %v", err)
		}
	}
	return w
}

func TestDepositSucceeds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.newWallet(t, "acct-1", 0)

	tx, err := f.service.Create(ctx, CreateInput{AccountID: "acct-1", WalletID: w.ID, Amount: 500_000, Kind: KindDeposit})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tx.Status != StatusSuccess {
		t.Fatalf("expected SUCCESS, got %s (%s)", tx.Status, tx.FailureCode)
	}
	if tx.BalanceAfter != 500_000 {
		t.Fatalf("expected balance_after 500000, got %d", tx.BalanceAfter)
	}

	entries, err := f.store.Entries(ctx, w.ID)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	if entries[0].Direction != ledger.DirectionCredit || entries[0].BalanceAfter != 500_000 {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}

	records, _ := f.auditor.List(ctx)
	if len(records) != 1 || records[0].Status != StatusSuccess {
		t.Fatalf("expected one SUCCESS audit record, got %+v", records)
	}
}

func TestPaymentWithSettlementSucceeds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.newWallet(t, "acct-1", 100_000)
	f.adapter.Register("VA-001", 20_000)

	tx, err := f.service.Create(ctx, CreateInput{AccountID: "acct-1", WalletID: w.ID, Amount: 20_000, Kind: KindPayment, VANumber: "VA-001"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tx.Status != StatusSuccess {
		t.Fatalf("expected SUCCESS, got %s (%s)", tx.Status, tx.FailureCode)
	}
	if tx.BalanceAfter != 80_000 {
		t.Fatalf("expected balance_after 80000, got %d", tx.BalanceAfter)
	}

	entries, _ := f.store.Entries(ctx, w.ID)
	// Seed credit plus one payment debit.
	if len(entries) != 2 || entries[0].Direction != ledger.DirectionDebit {
		t.Fatalf("expected a DEBIT entry, got %+v", entries)
	}
}

func TestPaymentUnknownSettlementReferenceFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.newWallet(t, "acct-1", 100_000)

	tx, err := f.service.Create(ctx, CreateInput{AccountID: "acct-1", WalletID: w.ID, Amount: 20_000, Kind: KindPayment, VANumber: "VA-unknown"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tx.Status != StatusFailed || tx.FailureCode != FailureSettlementMismatch {
		t.Fatalf("expected FAILED/SETTLEMENT_MISMATCH, got %s/%s", tx.Status, tx.FailureCode)
	}

	w2, _ := f.store.GetWallet(ctx, w.ID)
	if w2.Balance != 100_000 {
		t.Fatalf("balance must be unchanged, got %d", w2.Balance)
	}
	entries, _ := f.store.Entries(ctx, w.ID)
	if len(entries) != 1 { // only the seed credit
		t.Fatalf("no debit entry may exist after a settlement mismatch, got %d entries", len(entries))
	}
}

func TestFraudVerdictRejectsWithoutMutation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.newWallet(t, "acct-1", 100_000_000)

	tx, err := f.service.Create(ctx, CreateInput{AccountID: "acct-1", WalletID: w.ID, Amount: 60_000_000, Kind: KindTransfer})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tx.Status != StatusRejected || tx.FailureCode != FailureFraudRejected {
		t.Fatalf("expected REJECTED/FRAUD_REJECTED, got %s/%s", tx.Status, tx.FailureCode)
	}

	w2, _ := f.store.GetWallet(ctx, w.ID)
	if w2.Balance != 100_000_000 {
		t.Fatalf("balance must be unchanged, got %d", w2.Balance)
	}

	verdicts, _ := f.verdicts.List(ctx)
	if len(verdicts) != 1 || verdicts[0].Label != fraud.LabelFraud {
		t.Fatalf("expected FRAUD verdict persisted, got %+v", verdicts)
	}
}

func TestInsufficientBalanceFailsAfterSafeVerdict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.newWallet(t, "acct-1", 10_000)
	f.adapter.Register("VA-001", 25_000)

	tx, err := f.service.Create(ctx, CreateInput{AccountID: "acct-1", WalletID: w.ID, Amount: 25_000, Kind: KindPayment, VANumber: "VA-001"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tx.Status != StatusFailed || tx.FailureCode != FailureInsufficientBalance {
		t.Fatalf("expected FAILED/INSUFFICIENT_BALANCE, got %s/%s", tx.Status, tx.FailureCode)
	}

	w2, _ := f.store.GetWallet(ctx, w.ID)
	if w2.Balance != 10_000 {
		t.Fatalf("balance must be unchanged, got %d", w2.Balance)
	}
}

func TestAuditFailureDoesNotAlterOutcome(t *testing.T) {
	store := ledger.NewInMemory()
	evaluator := fraud.NewThresholdEvaluator(fraud.Thresholds{}, nil)
	svc := NewService(NewMemoryRepository(), store, evaluator, nil, failingRecorder{}, logging.Discard(), Timeouts{})
	ctx := context.Background()

	w, _ := store.CreateWallet(ctx, "acct-1", "main")
	tx, err := svc.Create(ctx, CreateInput{AccountID: "acct-1", WalletID: w.ID, Amount: 500_000, Kind: KindDeposit})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tx.Status != StatusSuccess {
		t.Fatalf("deposit must still report SUCCESS, got %s (%s)", tx.Status, tx.FailureCode)
	}
}

func TestInvalidRequestsRejectedBeforeAnyCall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.newWallet(t, "acct-1", 1_000)

	cases := []struct {
		name  string
		input CreateInput
	}{
		{"zero amount", CreateInput{AccountID: "acct-1", WalletID: w.ID, Amount: 0, Kind: KindDeposit}},
		{"negative amount", CreateInput{AccountID: "acct-1", WalletID: w.ID, Amount: -10, Kind: KindDeposit}},
		{"unknown kind", CreateInput{AccountID: "acct-1", WalletID: w.ID, Amount: 100, Kind: "REFUND"}},
		{"payment without va number", CreateInput{AccountID: "acct-1", WalletID: w.ID, Amount: 100, Kind: KindPayment}},
		{"deposit with va number", CreateInput{AccountID: "acct-1", WalletID: w.ID, Amount: 100, Kind: KindDeposit, VANumber: "VA-1"}},
		{"missing wallet id", CreateInput{AccountID: "acct-1", Amount: 100, Kind: KindDeposit}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.service.Create(ctx, tc.input); !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}

	// No verdicts and no ledger entries may exist after pure validation failures.
	verdicts, _ := f.verdicts.List(ctx)
	if len(verdicts) != 0 {
		t.Fatalf("fraud check ran for invalid request: %+v", verdicts)
	}
	entries, _ := f.store.Entries(ctx, w.ID)
	if len(entries) != 1 { // seed credit only
		t.Fatalf("ledger mutated for invalid request")
	}
}

func TestWalletOwnershipMismatchIsInvalidRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.newWallet(t, "acct-1", 1_000)

	if _, err := f.service.Create(ctx, CreateInput{AccountID: "acct-2", WalletID: w.ID, Amount: 100, Kind: KindDeposit}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for foreign wallet, got %v", err)
	}
}

func TestMissingWalletFailsAtLedgerApply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx, err := f.service.Create(ctx, CreateInput{AccountID: "acct-1", WalletID: "no-such-wallet", Amount: 100, Kind: KindDeposit})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tx.Status != StatusFailed || tx.FailureCode != FailureWalletNotFound {
		t.Fatalf("expected FAILED/WALLET_NOT_FOUND, got %s/%s", tx.Status, tx.FailureCode)
	}
}

func TestFrozenWalletFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.newWallet(t, "acct-1", 50_000)
	if err := f.store.Freeze(ctx, w.ID); err != nil {
		t.Fatalf("freeze: %v", err)
	}

	tx, err := f.service.Create(ctx, CreateInput{AccountID: "acct-1", WalletID: w.ID, Amount: 10_000, Kind: KindTransfer})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tx.Status != StatusFailed || tx.FailureCode != FailureWalletFrozen {
		t.Fatalf("expected FAILED/WALLET_FROZEN, got %s/%s", tx.Status, tx.FailureCode)
	}
}

func TestEvaluatorUnavailableIsRetryableFailure(t *testing.T) {
	store := ledger.NewInMemory()
	svc := NewService(NewMemoryRepository(), store, unavailableEvaluator{}, nil, nil, logging.Discard(), Timeouts{})
	ctx := context.Background()

	w, _ := store.CreateWallet(ctx, "acct-1", "main")
	tx, err := svc.Create(ctx, CreateInput{AccountID: "acct-1", WalletID: w.ID, Amount: 500, Kind: KindDeposit})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tx.Status != StatusFailed || tx.FailureCode != FailureFraudCheckUnavailable {
		t.Fatalf("expected FAILED/FRAUD_CHECK_UNAVAILABLE, got %s/%s", tx.Status, tx.FailureCode)
	}
	if !Retryable(tx.FailureCode) {
		t.Fatal("evaluator unavailability must be retryable")
	}

	w2, _ := store.GetWallet(ctx, w.ID)
	if w2.Balance != 0 {
		t.Fatalf("no mutation may occur without a verdict, balance %d", w2.Balance)
	}
}

func TestCancellationBeforeLedgerMutation(t *testing.T) {
	f := newFixture(t)
	w := f.newWallet(t, "acct-1", 50_000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tx, err := f.service.Create(ctx, CreateInput{AccountID: "acct-1", WalletID: w.ID, Amount: 10_000, Kind: KindTransfer})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tx.Status != StatusFailed || tx.FailureCode != FailureCancelled {
		t.Fatalf("expected FAILED/CANCELLED, got %s/%s", tx.Status, tx.FailureCode)
	}

	w2, _ := f.store.GetWallet(context.Background(), w.ID)
	if w2.Balance != 50_000 {
		t.Fatalf("cancelled transaction must not mutate the ledger, balance %d", w2.Balance)
	}
}

func TestTerminalTransactionReadIsStable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.newWallet(t, "acct-1", 0)

	created, err := f.service.Create(ctx, CreateInput{AccountID: "acct-1", WalletID: w.ID, Amount: 1_000, Kind: KindDeposit})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for i := 0; i < 3; i++ {
		got, err := f.service.Get(ctx, "acct-1", created.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Status != created.Status || got.Amount != created.Amount {
			t.Fatalf("terminal read changed: %+v vs %+v", got, created)
		}
	}

	if _, err := f.service.Get(ctx, "acct-other", created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign account must not see the transaction, got %v", err)
	}
}

func TestListMostRecentFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.newWallet(t, "acct-1", 0)

	var last Transaction
	for i := 0; i < 3; i++ {
		tx, err := f.service.Create(ctx, CreateInput{AccountID: "acct-1", WalletID: w.ID, Amount: 1_000, Kind: KindDeposit})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		last = tx
	}

	txs, err := f.service.List(ctx, "acct-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(txs))
	}
	if txs[0].ID != last.ID {
		t.Fatalf("expected most recent transaction first")
	}
}

func TestSuspiciousAmountProceedsFlagged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.newWallet(t, "acct-1", 0)

	tx, err := f.service.Create(ctx, CreateInput{AccountID: "acct-1", WalletID: w.ID, Amount: 20_000_000, Kind: KindDeposit})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tx.Status != StatusSuccess {
		t.Fatalf("suspicious deposit must still succeed, got %s (%s)", tx.Status, tx.FailureCode)
	}

	verdicts, _ := f.verdicts.List(ctx)
	if len(verdicts) != 1 || verdicts[0].Label != fraud.LabelSuspicious {
		t.Fatalf("expected SUSPICIOUS verdict, got %+v", verdicts)
	}
}
