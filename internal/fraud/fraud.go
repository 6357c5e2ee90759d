package fraud

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	// LabelSafe lets the transaction proceed without remark.
	LabelSafe = "SAFE"
	// LabelSuspicious lets the transaction proceed but flags it for review.
	LabelSuspicious = "SUSPICIOUS"
	// LabelFraud blocks the transaction before any ledger mutation.
	LabelFraud = "FRAUD"
)

// ErrVerdictNotFound indicates the requested verdict log does not exist.
var ErrVerdictNotFound = errors.New("verdict not found")

// Verdict is the write-once outcome of a fraud evaluation.
type Verdict struct {
	ID        string
	AccountID string
	Amount    int64
	Label     string
	Reason    string
	CreatedAt time.Time
}

// Evaluator scores a proposed transaction. Implementations must be free of
// side effects on the ledger or orchestrator; persisting the verdict is the
// only write they perform.
type Evaluator interface {
	Evaluate(ctx context.Context, accountID string, amount int64) (Verdict, error)
}

// Thresholds configures the static scoring policy.
type Thresholds struct {
	// Suspicious is the amount above which a transaction is flagged.
	Suspicious int64
	// Block is the amount above which a transaction is refused outright.
	Block int64
}

// DefaultThresholds mirror the production rule set.
var DefaultThresholds = Thresholds{Suspicious: 10_000_000, Block: 50_000_000}

// ThresholdEvaluator classifies transactions by amount bands and persists
// every verdict through the repository.
type ThresholdEvaluator struct {
	thresholds Thresholds
	repo       VerdictRepository
}

// NewThresholdEvaluator builds the static evaluator. Zero or inverted
// thresholds fall back to the defaults.
func NewThresholdEvaluator(t Thresholds, repo VerdictRepository) *ThresholdEvaluator {
	if t.Suspicious <= 0 || t.Block <= t.Suspicious {
		t = DefaultThresholds
	}
	return &ThresholdEvaluator{thresholds: t, repo: repo}
}

// Evaluate classifies the amount and records the verdict.
func (e *ThresholdEvaluator) Evaluate(ctx context.Context, accountID string, amount int64) (Verdict, error) {
	label := LabelSafe
	reason := "transaction looks safe"
	switch {
	case amount > e.thresholds.Block:
		label = LabelFraud
		reason = "amount exceeds maximum limit"
	case amount > e.thresholds.Suspicious:
		label = LabelSuspicious
		reason = "large transaction amount"
	}

	v := Verdict{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Amount:    amount,
		Label:     label,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
	if e.repo != nil {
		if err := e.repo.Save(ctx, v); err != nil {
			return Verdict{}, err
		}
	}
	return v, nil
}
