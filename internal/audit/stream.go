package audit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultStream = "stream:audit"

// StreamRecorder publishes audit records to a Redis stream so a downstream
// history consumer can index them off the transaction critical path.
type StreamRecorder struct {
	rdb    redis.UniversalClient
	stream string
}

// NewStreamRecorder builds a Redis stream recorder. An empty stream name
// falls back to the default.
func NewStreamRecorder(rdb redis.UniversalClient, stream string) *StreamRecorder {
	if stream == "" {
		stream = defaultStream
	}
	return &StreamRecorder{rdb: rdb, stream: stream}
}

// Record appends the record to the stream. Consumers dedupe on
// transaction_id, so at-least-once delivery here is acceptable.
func (r *StreamRecorder) Record(ctx context.Context, rec Record) error {
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	return r.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]any{
			"transaction_id": rec.TransactionID,
			"account_id":     rec.AccountID,
			"wallet_id":      rec.WalletID,
			"amount":         strconv.FormatInt(rec.Amount, 10),
			"kind":           rec.Kind,
			"status":         rec.Status,
			"created_at":     created.Format(time.RFC3339Nano),
		},
	}).Err()
}
