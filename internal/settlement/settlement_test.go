package settlement

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryAdapterConfirmsRegisteredReference(t *testing.T) {
	adapter := NewDirectoryAdapter()
	adapter.Register("VA-001", 20_000)

	conf, err := adapter.ConfirmSettlement(context.Background(), "VA-001", 20_000)
	require.NoError(t, err)
	assert.Equal(t, OutcomeConfirmed, conf.Outcome)
	assert.NotEmpty(t, conf.Reference)
}

func TestDirectoryAdapterUnknownReference(t *testing.T) {
	adapter := NewDirectoryAdapter()

	conf, err := adapter.ConfirmSettlement(context.Background(), "VA-missing", 20_000)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnknown, conf.Outcome)
}

func TestDirectoryAdapterSettlesExactlyOnce(t *testing.T) {
	adapter := NewDirectoryAdapter()
	adapter.Register("VA-001", 20_000)
	ctx := context.Background()

	first, err := adapter.ConfirmSettlement(ctx, "VA-001", 20_000)
	require.NoError(t, err)
	require.Equal(t, OutcomeConfirmed, first.Outcome)

	second, err := adapter.ConfirmSettlement(ctx, "VA-001", 20_000)
	require.NoError(t, err)
	assert.Equal(t, OutcomeMismatch, second.Outcome)
}

func TestDirectoryAdapterAmountMismatch(t *testing.T) {
	adapter := NewDirectoryAdapter()
	adapter.Register("VA-001", 20_000)

	conf, err := adapter.ConfirmSettlement(context.Background(), "VA-001", 25_000)
	require.NoError(t, err)
	assert.Equal(t, OutcomeMismatch, conf.Outcome)
}
