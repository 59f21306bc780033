package handler

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jnst/pull-payment-service/internal/model"
	"github.com/jnst/pull-payment-service/internal/service"
)

var _ service.PayoutHandler = (*Manual)(nil)

func TestManualParseDestination(t *testing.T) {
	h := NewManual(decimal.Zero)

	destination, err := h.ParseDestination(context.Background(), "USD-Manual", "  Bank Account 42  ", false)
	require.NoError(t, err)
	assert.Equal(t, "Bank Account 42", destination.Address)
	assert.Equal(t, "bank account 42", destination.Key)

	_, err = h.ParseDestination(context.Background(), "USD-Manual", "   ", false)
	assert.ErrorIs(t, err, ErrEmptyDestination)
}

func TestManualKeyIsCaseInsensitive(t *testing.T) {
	h := NewManual(decimal.Zero)

	first, err := h.ParseDestination(context.Background(), "USD-Manual", "Alice@Example.com", false)
	require.NoError(t, err)

	second, err := h.ParseDestination(context.Background(), "USD-Manual", "alice@example.com", false)
	require.NoError(t, err)

	assert.Equal(t, first.Key, second.Key, "differently cased spellings must collide on the key")
	assert.NotEqual(t, first.Address, second.Address)
}

func TestManualMinimumPayoutAmount(t *testing.T) {
	minimum := decimal.RequireFromString("0.5")
	h := NewManual(minimum)

	got, err := h.MinimumPayoutAmount(context.Background(), "USD-Manual", model.Destination{Address: "x"})
	require.NoError(t, err)
	assert.True(t, got.Equal(minimum))
}

func TestManualTrackClaim(t *testing.T) {
	h := NewManual(decimal.Zero)

	ctx := context.Background()
	destination := model.Destination{Address: "Alice", Key: "alice"}

	require.NoError(t, h.TrackClaim(ctx, "USD-Manual", destination))
	require.NoError(t, h.TrackClaim(ctx, "USD-Manual", destination))
	require.NoError(t, h.TrackClaim(ctx, "USD-Manual", model.Destination{Address: "Bob"})) // no key, not counted

	assert.Equal(t, 2, h.ClaimCount("alice"))
	assert.Equal(t, 0, h.ClaimCount("bob"))
}
