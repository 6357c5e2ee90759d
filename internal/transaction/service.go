package transaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dompet-pay/dompet_pay/internal/audit"
	"github.com/dompet-pay/dompet_pay/internal/fraud"
	"github.com/dompet-pay/dompet_pay/internal/ledger"
	"github.com/dompet-pay/dompet_pay/internal/settlement"
)

// Timeouts bounds each outbound call the orchestrator makes.
type Timeouts struct {
	FraudCheck time.Duration
	Settlement time.Duration
	Ledger     time.Duration
}

// DefaultTimeouts are conservative bounds for a single-region deployment.
var DefaultTimeouts = Timeouts{
	FraudCheck: 3 * time.Second,
	Settlement: 5 * time.Second,
	Ledger:     5 * time.Second,
}

// Service drives a transaction from initiation through fraud screening,
// settlement confirmation, balance mutation and audit logging. All state
// transitions of the record go through here.
type Service struct {
	repo        Repository
	ledger      ledger.Store
	evaluator   fraud.Evaluator
	settlements settlement.Adapter
	auditor     audit.Recorder
	logger      *slog.Logger
	timeouts    Timeouts
}

// NewService wires the orchestrator. The settlement adapter may be nil when
// payments are disabled; the auditor may be nil to skip audit recording.
func NewService(repo Repository, store ledger.Store, evaluator fraud.Evaluator, settlements settlement.Adapter, auditor audit.Recorder, logger *slog.Logger, timeouts Timeouts) *Service {
	if timeouts.FraudCheck <= 0 {
		timeouts.FraudCheck = DefaultTimeouts.FraudCheck
	}
	if timeouts.Settlement <= 0 {
		timeouts.Settlement = DefaultTimeouts.Settlement
	}
	if timeouts.Ledger <= 0 {
		timeouts.Ledger = DefaultTimeouts.Ledger
	}
	return &Service{
		repo:        repo,
		ledger:      store,
		evaluator:   evaluator,
		settlements: settlements,
		auditor:     auditor,
		logger:      logger,
		timeouts:    timeouts,
	}
}

// CreateInput captures an inbound transaction request. AccountID comes from
// the already-authenticated caller identity.
type CreateInput struct {
	AccountID string
	WalletID  string
	Amount    int64
	Kind      string
	VANumber  string
}

// Create runs the transaction state machine to a terminal state and returns
// the resulting record. Malformed input fails with ErrInvalidRequest before
// any record is persisted; every other outcome is captured on the record as
// status plus failure code.
func (s *Service) Create(ctx context.Context, input CreateInput) (Transaction, error) {
	if err := validate(input); err != nil {
		return Transaction{}, err
	}

	walletName := ""
	if w, err := s.ledger.GetWallet(ctx, input.WalletID); err == nil {
		// Wallet ownership disagreement is a malformed request, not a ledger
		// failure. A missing wallet is left for the apply step to report.
		if w.AccountID != input.AccountID {
			return Transaction{}, fmt.Errorf("%w: wallet does not belong to account", ErrInvalidRequest)
		}
		walletName = w.Name
	}

	now := time.Now().UTC()
	tx := Transaction{
		ID:         uuid.NewString(),
		AccountID:  input.AccountID,
		WalletID:   input.WalletID,
		WalletName: walletName,
		Amount:     input.Amount,
		Kind:       input.Kind,
		VANumber:   input.VANumber,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, tx); err != nil {
		return Transaction{}, fmt.Errorf("persist transaction: %w", err)
	}

	tx = s.run(ctx, tx)
	s.submitAudit(tx)
	return tx, nil
}

// run advances the record through the state machine until terminal.
func (s *Service) run(ctx context.Context, tx Transaction) Transaction {
	tx = s.transition(ctx, tx, StatusFraudCheck, "")

	verdict, err := s.evaluate(ctx, tx)
	if err != nil {
		// An unreachable evaluator is not a FRAUD verdict: surface it as a
		// retryable failure so the caller can resubmit.
		s.logger.Warn("fraud check unavailable", "transaction_id", tx.ID, "error", err)
		return s.fail(ctx, tx, FailureFraudCheckUnavailable)
	}
	tx.VerdictID = verdict.ID

	switch verdict.Label {
	case fraud.LabelFraud:
		tx.Status = StatusRejected
		tx.FailureCode = FailureFraudRejected
		tx.UpdatedAt = time.Now().UTC()
		s.persist(ctx, tx)
		return tx
	case fraud.LabelSuspicious:
		s.logger.Info("transaction flagged suspicious", "transaction_id", tx.ID, "amount", tx.Amount, "reason", verdict.Reason)
		tx = s.transition(ctx, tx, StatusSuspicious, "")
	default:
		tx = s.transition(ctx, tx, StatusSafe, "")
	}

	if ctx.Err() != nil {
		return s.fail(ctx, tx, FailureCancelled)
	}

	if tx.Kind == KindPayment {
		outcome, err := s.confirmSettlement(ctx, tx)
		if err != nil {
			s.logger.Warn("settlement confirmation unavailable", "transaction_id", tx.ID, "error", err)
			return s.fail(ctx, tx, FailureSettlementUnavailable)
		}
		if outcome != settlement.OutcomeConfirmed {
			return s.fail(ctx, tx, FailureSettlementMismatch)
		}
	}

	// Last cancellation point: once the ledger call is issued the transaction
	// runs to completion and the call's outcome is authoritative.
	if ctx.Err() != nil {
		return s.fail(ctx, tx, FailureCancelled)
	}

	entry, err := s.apply(ctx, tx)
	if err != nil {
		return s.fail(ctx, tx, ledgerFailureCode(err))
	}

	tx.Status = StatusSuccess
	tx.BalanceAfter = entry.BalanceAfter
	tx.UpdatedAt = time.Now().UTC()
	s.persist(ctx, tx)
	return tx
}

func (s *Service) evaluate(ctx context.Context, tx Transaction) (fraud.Verdict, error) {
	evalCtx, cancel := context.WithTimeout(ctx, s.timeouts.FraudCheck)
	defer cancel()
	return s.evaluator.Evaluate(evalCtx, tx.AccountID, tx.Amount)
}

func (s *Service) confirmSettlement(ctx context.Context, tx Transaction) (string, error) {
	if s.settlements == nil {
		return "", errors.New("no settlement adapter configured")
	}
	confCtx, cancel := context.WithTimeout(ctx, s.timeouts.Settlement)
	defer cancel()
	conf, err := s.settlements.ConfirmSettlement(confCtx, tx.VANumber, tx.Amount)
	if err != nil {
		return "", err
	}
	return conf.Outcome, nil
}

func (s *Service) apply(ctx context.Context, tx Transaction) (ledger.Entry, error) {
	// Detached from caller cancellation: after this call is issued the
	// mutation must run to completion.
	applyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeouts.Ledger)
	defer cancel()

	reason := fmt.Sprintf("%s %s", tx.Kind, tx.ID)
	var entry ledger.Entry
	var err error
	switch tx.Kind {
	case KindDeposit:
		entry, err = s.ledger.Credit(applyCtx, tx.WalletID, tx.Amount, tx.ID, reason)
	default:
		entry, err = s.ledger.Debit(applyCtx, tx.WalletID, tx.Amount, tx.ID, reason)
	}
	if errors.Is(err, ledger.ErrDuplicateReference) {
		// The reference is this transaction's id, so a duplicate means the
		// mutation already applied; honor at-most-once and keep the entry.
		return entry, nil
	}
	return entry, err
}

func ledgerFailureCode(err error) string {
	switch {
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return FailureInsufficientBalance
	case errors.Is(err, ledger.ErrWalletFrozen):
		return FailureWalletFrozen
	case errors.Is(err, ledger.ErrWalletNotFound):
		return FailureWalletNotFound
	default:
		return FailureLedgerUnavailable
	}
}

func (s *Service) fail(ctx context.Context, tx Transaction, code string) Transaction {
	tx.Status = StatusFailed
	tx.FailureCode = code
	tx.UpdatedAt = time.Now().UTC()
	s.persist(ctx, tx)
	return tx
}

func (s *Service) transition(ctx context.Context, tx Transaction, status, code string) Transaction {
	tx.Status = status
	tx.FailureCode = code
	tx.UpdatedAt = time.Now().UTC()
	s.persist(ctx, tx)
	return tx
}

// persist writes the current state. Transitions are best-effort on the way to
// a terminal state; a write failure is logged and the in-memory record stays
// authoritative for the response.
func (s *Service) persist(ctx context.Context, tx Transaction) {
	if err := s.repo.Update(context.WithoutCancel(ctx), tx); err != nil {
		s.logger.Error("persist transaction state", "transaction_id", tx.ID, "status", tx.Status, "error", err)
	}
}

func (s *Service) submitAudit(tx Transaction) {
	if s.auditor == nil || !tx.Terminal() {
		return
	}
	if err := s.auditor.Record(context.Background(), audit.Record{
		TransactionID: tx.ID,
		AccountID:     tx.AccountID,
		WalletID:      tx.WalletID,
		Amount:        tx.Amount,
		Kind:          tx.Kind,
		Status:        tx.Status,
		CreatedAt:     time.Now().UTC(),
	}); err != nil {
		// Audit recording never fails an already-decided transaction.
		s.logger.Error("audit recording failed", "transaction_id", tx.ID, "error", err)
	}
}

// Get returns the account's transaction by id.
func (s *Service) Get(ctx context.Context, accountID, txID string) (Transaction, error) {
	tx, err := s.repo.Get(ctx, txID)
	if err != nil {
		return Transaction{}, err
	}
	if tx.AccountID != accountID {
		return Transaction{}, ErrNotFound
	}
	return tx, nil
}

// List returns the account's transactions, most recent first.
func (s *Service) List(ctx context.Context, accountID string) ([]Transaction, error) {
	return s.repo.ListByAccount(ctx, accountID)
}

func validate(input CreateInput) error {
	if input.AccountID == "" {
		return fmt.Errorf("%w: account id is required", ErrInvalidRequest)
	}
	if input.WalletID == "" {
		return fmt.Errorf("%w: wallet id is required", ErrInvalidRequest)
	}
	if input.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	}
	if !ValidKind(input.Kind) {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidRequest, input.Kind)
	}
	if input.Kind == KindPayment && input.VANumber == "" {
		return fmt.Errorf("%w: payment requires a virtual account number", ErrInvalidRequest)
	}
	if input.Kind != KindPayment && input.VANumber != "" {
		return fmt.Errorf("%w: virtual account number is only valid for payments", ErrInvalidRequest)
	}
	return nil
}
