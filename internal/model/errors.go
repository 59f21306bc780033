package model

import "errors"

var (
	// ErrAmountOutOfBound is returned when a pull payment limit is not positive.
	ErrAmountOutOfBound = errors.New("amount out of bound")
	// ErrInvalidCurrency is returned when the settlement currency is missing.
	ErrInvalidCurrency = errors.New("currency is required")
	// ErrNoPaymentMethods is returned when no supported payment method is given.
	ErrNoPaymentMethods = errors.New("at least one payment method is required")
	// ErrPullPaymentNotFound is returned when a pull payment is not in the store.
	ErrPullPaymentNotFound = errors.New("pull payment not found")
	// ErrPayoutNotFound is returned when a payout is not in the store.
	ErrPayoutNotFound = errors.New("payout not found")
	// ErrDuplicateDestination is returned by the store when a live payout
	// already uses the destination key.
	ErrDuplicateDestination = errors.New("destination already used by a live payout")
	// ErrInvalidCancelRequest is returned when a cancel request selects neither
	// or both of its modes.
	ErrInvalidCancelRequest = errors.New("cancel request must specify a pull payment id or payout ids")
	// ErrInvalidRateRule is returned when a rate rule expression cannot be parsed.
	ErrInvalidRateRule = errors.New("invalid rate rule")
	// ErrServiceClosed is returned when a command is submitted after shutdown.
	ErrServiceClosed = errors.New("pull payment service is shutting down")
)
