package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// PayoutState represents the lifecycle state of a payout.
type PayoutState string

const (
	// PayoutStateAwaitingApproval is the initial state of a freshly claimed payout.
	PayoutStateAwaitingApproval PayoutState = "AwaitingApproval"
	// PayoutStateAwaitingPayment means the payout has been approved and priced.
	PayoutStateAwaitingPayment PayoutState = "AwaitingPayment"
	// PayoutStateInProgress means a payout handler has started executing the payment.
	PayoutStateInProgress PayoutState = "InProgress"
	// PayoutStateCompleted is terminal; the payout has been paid.
	PayoutStateCompleted PayoutState = "Completed"
	// PayoutStateCancelled is terminal; the payout was cancelled before payment.
	PayoutStateCancelled PayoutState = "Cancelled"
)

// Valid reports whether the state is a known payout state.
func (s PayoutState) Valid() bool {
	switch s {
	case PayoutStateAwaitingApproval, PayoutStateAwaitingPayment,
		PayoutStateInProgress, PayoutStateCompleted, PayoutStateCancelled:
		return true
	default:
		return false
	}
}

// Cancellable reports whether a payout in this state may transition to Cancelled.
// Re-cancelling an already cancelled payout is a no-op, so Cancelled stays cancellable.
func (s PayoutState) Cancellable() bool {
	return s != PayoutStateCompleted && s != PayoutStateInProgress
}

// Terminal reports whether the state admits no further transitions.
func (s PayoutState) Terminal() bool {
	return s == PayoutStateCompleted || s == PayoutStateCancelled
}

// Destination identifies where a payout should be sent. Address is the opaque
// payment-method specific representation; Key, when non-empty, is a stable
// identifier used to detect duplicate claims to the same place.
type Destination struct {
	Address string `json:"address"`
	Key     string `json:"key,omitempty"`
}

func (d Destination) String() string {
	return d.Address
}

// Payout represents a single claim against a pull payment's budget.
type Payout struct {
	ID              string      `json:"id"`
	PullPaymentID   string      `json:"pull_payment_id"`
	PaymentMethodID string      `json:"payment_method_id"`
	// Destination holds the stable destination key when the claim carried one;
	// it backs the live-destination uniqueness constraint.
	Destination string      `json:"destination,omitempty"`
	Date        time.Time   `json:"date"`
	State       PayoutState `json:"state"`
	Blob        PayoutBlob  `json:"blob"`
}

// PayoutBlob holds the payout settings stored as a JSON blob.
type PayoutBlob struct {
	// Amount is the claimed amount in the pull payment's settlement currency.
	Amount decimal.Decimal `json:"amount"`
	// CryptoAmount is the amount in the target asset, set on approval.
	CryptoAmount *decimal.Decimal `json:"cryptoAmount,omitempty"`
	// Revision increments whenever approval-relevant fields change.
	Revision    int             `json:"revision"`
	Destination string          `json:"destination"`
	Proof       json.RawMessage `json:"proof,omitempty"`
}
