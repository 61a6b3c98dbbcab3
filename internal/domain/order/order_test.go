package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, raw := range []string{"pending", "confirmed", "in_kitchen", "out_for_delivery", "delivered", "cancelled"} {
		st, err := ParseStatus(raw)
		require.NoError(t, err)
		assert.Equal(t, Status(raw), st)
	}

	_, err := ParseStatus("baking")
	var isErr *InvalidStatusError
	require.ErrorAs(t, err, &isErr)
	assert.Equal(t, "baking", isErr.Value)
}

func TestStatus_Transitions(t *testing.T) {
	// Forward path.
	assert.True(t, StatusPending.CanTransitionTo(StatusConfirmed))
	assert.True(t, StatusConfirmed.CanTransitionTo(StatusInKitchen))
	assert.True(t, StatusInKitchen.CanTransitionTo(StatusOutForDelivery))
	assert.True(t, StatusOutForDelivery.CanTransitionTo(StatusDelivered))

	// Cancellation only from pending or confirmed.
	assert.True(t, StatusPending.CanTransitionTo(StatusCancelled))
	assert.True(t, StatusConfirmed.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusInKitchen.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusOutForDelivery.CanTransitionTo(StatusCancelled))

	// No skipping stages or moving backwards.
	assert.False(t, StatusPending.CanTransitionTo(StatusInKitchen))
	assert.False(t, StatusConfirmed.CanTransitionTo(StatusPending))
	assert.False(t, StatusOutForDelivery.CanTransitionTo(StatusConfirmed))
}

func TestStatus_TerminalStatesRejectEverything(t *testing.T) {
	for _, terminal := range []Status{StatusDelivered, StatusCancelled} {
		assert.True(t, terminal.Terminal())
		for _, next := range []Status{
			StatusPending, StatusConfirmed, StatusInKitchen,
			StatusOutForDelivery, StatusDelivered, StatusCancelled,
		} {
			assert.False(t, terminal.CanTransitionTo(next), "%s -> %s", terminal, next)
		}
	}
}

func TestStatus_Cancellable(t *testing.T) {
	assert.True(t, StatusPending.Cancellable())
	assert.True(t, StatusConfirmed.Cancellable())
	assert.False(t, StatusInKitchen.Cancellable())
	assert.False(t, StatusDelivered.Cancellable())
	assert.False(t, StatusCancelled.Cancellable())
}

func TestStatus_Human(t *testing.T) {
	assert.Equal(t, "in kitchen", StatusInKitchen.Human())
	assert.Equal(t, "out for delivery", StatusOutForDelivery.Human())
	assert.Equal(t, "confirmed", StatusConfirmed.Human())
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "PZ000001", FormatNumber(1))
	assert.Equal(t, "PZ000042", FormatNumber(42))
	assert.Equal(t, "PZ1000000", FormatNumber(1000000))
}
