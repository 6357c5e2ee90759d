package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultQueueSize   = 256
	defaultMaxAttempts = 3
	retryBackoff       = 200 * time.Millisecond
)

// Outbox decouples audit recording from the transaction critical path. Submit
// never blocks and never fails the caller: records are queued and delivered
// by a background worker with bounded retries. A full queue or a record that
// keeps failing is dropped with a log line.
type Outbox struct {
	sink    Recorder
	logger  *slog.Logger
	queue   chan Record
	done    chan struct{}
	wg      sync.WaitGroup
	closing sync.Once
}

// OutboxOptions tunes queue sizing and retry behavior.
type OutboxOptions struct {
	QueueSize   int
	MaxAttempts int
}

// NewOutbox starts the background delivery worker for the given sink.
func NewOutbox(sink Recorder, logger *slog.Logger, opts OutboxOptions) *Outbox {
	size := opts.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}

	o := &Outbox{
		sink:   sink,
		logger: logger,
		queue:  make(chan Record, size),
		done:   make(chan struct{}),
	}
	o.wg.Add(1)
	go o.run(attempts)
	return o
}

// Submit enqueues the record for asynchronous delivery. It returns
// immediately; delivery failure is logged, never surfaced.
func (o *Outbox) Submit(rec Record) {
	select {
	case <-o.done:
		o.logger.Warn("audit outbox closed, dropping record", "transaction_id", rec.TransactionID)
		return
	default:
	}
	select {
	case o.queue <- rec:
	default:
		o.logger.Warn("audit outbox full, dropping record", "transaction_id", rec.TransactionID)
	}
}

// Record adapts the outbox to the Recorder interface for callers that hold
// the interface rather than the concrete type.
func (o *Outbox) Record(_ context.Context, rec Record) error {
	o.Submit(rec)
	return nil
}

// Close stops accepting records, drains the queue and waits for the worker.
func (o *Outbox) Close() {
	o.closing.Do(func() {
		close(o.done)
	})
	o.wg.Wait()
}

func (o *Outbox) run(maxAttempts int) {
	defer o.wg.Done()
	for {
		select {
		case rec := <-o.queue:
			o.deliver(rec, maxAttempts)
		case <-o.done:
			// Drain whatever was accepted before the close.
			for {
				select {
				case rec := <-o.queue:
					o.deliver(rec, maxAttempts)
				default:
					return
				}
			}
		}
	}
}

func (o *Outbox) deliver(rec Record, maxAttempts int) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := o.sink.Record(ctx, rec)
		cancel()
		if err == nil {
			return
		}
		if attempt == maxAttempts {
			o.logger.Error("audit recording failed, record dropped",
				"transaction_id", rec.TransactionID,
				"attempts", attempt,
				"error", err,
			)
			return
		}
		o.logger.Warn("audit recording failed, retrying",
			"transaction_id", rec.TransactionID,
			"attempt", attempt,
			"error", err,
		)
		time.Sleep(retryBackoff)
	}
}
