package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPullPaymentValidity(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(48 * time.Hour)
	pp := &PullPayment{StartDate: start, EndDate: &end}

	assert.False(t, pp.HasStarted(start.Add(-time.Second)))
	assert.True(t, pp.HasStarted(start))
	assert.False(t, pp.IsExpired(end))
	assert.True(t, pp.IsExpired(end.Add(time.Second)))

	noEnd := &PullPayment{StartDate: start}
	assert.False(t, noEnd.IsExpired(start.Add(1000*time.Hour)))
}

func TestPeriodWindow(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	period := int64(24 * 60 * 60)
	pp := &PullPayment{StartDate: start, Period: &period}

	from, to := pp.PeriodWindow(start.Add(36 * time.Hour))
	require.NotNil(t, from)
	require.NotNil(t, to)
	assert.Equal(t, start.Add(24*time.Hour), *from)
	assert.Equal(t, start.Add(48*time.Hour), *to)

	// Exactly on a boundary the new window begins.
	from, to = pp.PeriodWindow(start.Add(24 * time.Hour))
	assert.Equal(t, start.Add(24*time.Hour), *from)
	assert.Equal(t, start.Add(48*time.Hour), *to)

	lifetime := &PullPayment{StartDate: start}
	from, to = lifetime.PeriodWindow(start.Add(36 * time.Hour))
	assert.Nil(t, from)
	assert.Nil(t, to)
}

func TestCreatePullPaymentParamsValidate(t *testing.T) {
	valid := CreatePullPaymentParams{
		StoreID:                 "store1",
		Amount:                  decimal.NewFromInt(100),
		Currency:                "USD",
		SupportedPaymentMethods: []string{"BTC-OnChain"},
	}
	require.NoError(t, valid.Validate())

	zero := valid
	zero.Amount = decimal.Zero
	assert.ErrorIs(t, zero.Validate(), ErrAmountOutOfBound)

	negative := valid
	negative.Amount = decimal.NewFromInt(-5)
	assert.ErrorIs(t, negative.Validate(), ErrAmountOutOfBound)

	noCurrency := valid
	noCurrency.Currency = ""
	assert.ErrorIs(t, noCurrency.Validate(), ErrInvalidCurrency)

	noMethods := valid
	noMethods.SupportedPaymentMethods = nil
	assert.ErrorIs(t, noMethods.Validate(), ErrNoPaymentMethods)
}

func TestPayoutStateTransitionsGates(t *testing.T) {
	assert.True(t, PayoutStateAwaitingApproval.Cancellable())
	assert.True(t, PayoutStateAwaitingPayment.Cancellable())
	assert.True(t, PayoutStateCancelled.Cancellable())
	assert.False(t, PayoutStateInProgress.Cancellable())
	assert.False(t, PayoutStateCompleted.Cancellable())

	assert.True(t, PayoutStateCompleted.Terminal())
	assert.True(t, PayoutStateCancelled.Terminal())
	assert.False(t, PayoutStateAwaitingPayment.Terminal())

	assert.True(t, PayoutStateInProgress.Valid())
	assert.False(t, PayoutState("Paid").Valid())
}

func TestResultMessagesAreDistinct(t *testing.T) {
	// TooLowAmount and OldRevision historically shared a message; they must not.
	assert.NotEqual(t, ApprovalResultTooLowAmount.Message(), ApprovalResultOldRevision.Message())

	claimResults := []ClaimResult{
		ClaimResultDuplicate, ClaimResultExpired, ClaimResultArchived,
		ClaimResultNotStarted, ClaimResultOverdraft, ClaimResultAmountTooLow,
		ClaimResultPaymentMethodNotSupported,
	}
	seen := map[string]bool{}
	for _, r := range claimResults {
		require.NotEmpty(t, r.Message())
		assert.False(t, seen[r.Message()], "duplicate message for %s", r)
		seen[r.Message()] = true
	}
}

func TestCancelRequestValidate(t *testing.T) {
	assert.NoError(t, (&CancelRequest{PullPaymentID: "pp1"}).Validate())
	assert.NoError(t, (&CancelRequest{PayoutIDs: []string{"p1", "p2"}}).Validate())
	assert.ErrorIs(t, (&CancelRequest{}).Validate(), ErrInvalidCancelRequest)
	assert.ErrorIs(t, (&CancelRequest{PullPaymentID: "pp1", PayoutIDs: []string{"p1"}}).Validate(), ErrInvalidCancelRequest)
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.NotEqual(t, a, b)
	assert.GreaterOrEqual(t, len(a), 20)
}
