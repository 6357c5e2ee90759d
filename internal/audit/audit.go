package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Record is a write-once snapshot of a finished transaction. Its absence
// never blocks or reverses the transaction it describes.
type Record struct {
	TransactionID string
	AccountID     string
	WalletID      string
	Amount        int64
	Kind          string
	Status        string
	CreatedAt     time.Time
}

// Recorder appends audit records. Implementations must be idempotent on the
// transaction identifier to tolerate at-least-once delivery.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

// Lister reads recorded entries back, most recent first. Durable sinks
// implement it alongside Recorder.
type Lister interface {
	List(ctx context.Context) ([]Record, error)
}

// MemoryRecorder keeps records in process memory. Useful for tests and
// single-node deployments.
type MemoryRecorder struct {
	mu      sync.RWMutex
	records []Record
	seen    map[string]bool
}

// NewMemoryRecorder constructs an in-memory audit store.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{seen: make(map[string]bool)}
}

// Record appends the record unless its transaction id was already seen.
func (r *MemoryRecorder) Record(_ context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen[rec.TransactionID] {
		return nil
	}
	r.seen[rec.TransactionID] = true
	r.records = append(r.records, rec)
	return nil
}

// List returns recorded entries, most recent first.
func (r *MemoryRecorder) List(_ context.Context) ([]Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Record, len(r.records))
	for i, rec := range r.records {
		out[len(r.records)-1-i] = rec
	}
	return out, nil
}

// MultiRecorder fans a record out to every sink. The first sink error is
// returned so the outbox retries the whole fan-out; sinks stay idempotent.
type MultiRecorder []Recorder

// Record delivers the record to each sink in order.
func (m MultiRecorder) Record(ctx context.Context, rec Record) error {
	for _, sink := range m {
		if err := sink.Record(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// LoggerRecorder writes audit records to the structured logger. It acts as a
// last-resort sink when no durable backend is configured.
type LoggerRecorder struct {
	logger *slog.Logger
}

// NewLoggerRecorder constructs a logging recorder.
func NewLoggerRecorder(logger *slog.Logger) *LoggerRecorder {
	return &LoggerRecorder{logger: logger}
}

// Record logs the record.
func (r *LoggerRecorder) Record(_ context.Context, rec Record) error {
	if r == nil || r.logger == nil {
		return nil
	}
	r.logger.Info("audit record",
		"transaction_id", rec.TransactionID,
		"account_id", rec.AccountID,
		"wallet_id", rec.WalletID,
		"amount", rec.Amount,
		"kind", rec.Kind,
		"status", rec.Status,
	)
	return nil
}
