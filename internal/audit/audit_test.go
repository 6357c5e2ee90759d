package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dompet-pay/dompet_pay/internal/logging"
)

func TestMemoryRecorderIdempotentOnTransactionID(t *testing.T) {
	rec := NewMemoryRecorder()
	ctx := context.Background()

	first := Record{TransactionID: "tx-1", WalletID: "w-1", Amount: 500, Kind: "DEPOSIT", Status: "SUCCESS", CreatedAt: time.Now().UTC()}
	require.NoError(t, rec.Record(ctx, first))
	require.NoError(t, rec.Record(ctx, first)) // at-least-once redelivery

	records, err := rec.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "tx-1", records[0].TransactionID)
}

func TestMemoryRecorderListMostRecentFirst(t *testing.T) {
	rec := NewMemoryRecorder()
	ctx := context.Background()

	require.NoError(t, rec.Record(ctx, Record{TransactionID: "tx-1"}))
	require.NoError(t, rec.Record(ctx, Record{TransactionID: "tx-2"}))

	records, err := rec.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "tx-2", records[0].TransactionID)
}

func TestStreamRecorderPublishes(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	rec := NewStreamRecorder(rdb, "stream:audit:test")
	ctx := context.Background()

	require.NoError(t, rec.Record(ctx, Record{
		TransactionID: "tx-1",
		AccountID:     "acct-1",
		WalletID:      "w-1",
		Amount:        20_000,
		Kind:          "PAYMENT",
		Status:        "SUCCESS",
	}))

	msgs, err := rdb.XRange(ctx, "stream:audit:test", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "tx-1", msgs[0].Values["transaction_id"])
	assert.Equal(t, "20000", msgs[0].Values["amount"])
}

type failingRecorder struct {
	calls int
}

func (r *failingRecorder) Record(context.Context, Record) error {
	r.calls++
	return errors.New("sink unavailable")
}

func TestOutboxNeverSurfacesSinkFailure(t *testing.T) {
	sink := &failingRecorder{}
	outbox := NewOutbox(sink, logging.Discard(), OutboxOptions{QueueSize: 4, MaxAttempts: 2})

	outbox.Submit(Record{TransactionID: "tx-1"})
	outbox.Close()

	assert.Equal(t, 2, sink.calls, "expected bounded retries")
}

func TestOutboxDeliversToSink(t *testing.T) {
	sink := NewMemoryRecorder()
	outbox := NewOutbox(sink, logging.Discard(), OutboxOptions{})

	outbox.Submit(Record{TransactionID: "tx-1", Status: "SUCCESS"})
	outbox.Submit(Record{TransactionID: "tx-2", Status: "FAILED"})
	outbox.Close()

	records, err := sink.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
