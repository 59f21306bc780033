package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ClaimRequest asks for a new payout against a pull payment. A nil Value means
// "claim all remaining capacity".
type ClaimRequest struct {
	PullPaymentID   string           `json:"pull_payment_id"`
	PaymentMethodID string           `json:"payment_method_id"`
	Value           *decimal.Decimal `json:"value"`
	Destination     Destination      `json:"destination"`
}

// ClaimResult is the outcome of a claim.
type ClaimResult int

const (
	// ClaimResultOk means a payout was created.
	ClaimResultOk ClaimResult = iota
	// ClaimResultDuplicate means the destination is already used by a live payout.
	ClaimResultDuplicate
	// ClaimResultExpired means the pull payment's validity window has passed.
	ClaimResultExpired
	// ClaimResultArchived means the pull payment does not exist or is archived.
	ClaimResultArchived
	// ClaimResultNotStarted means the pull payment is not yet valid.
	ClaimResultNotStarted
	// ClaimResultOverdraft means the claim would exceed the spending limit.
	ClaimResultOverdraft
	// ClaimResultAmountTooLow means the claimed amount is below a minimum.
	ClaimResultAmountTooLow
	// ClaimResultPaymentMethodNotSupported means the method cannot claim here.
	ClaimResultPaymentMethodNotSupported
)

func (r ClaimResult) String() string {
	switch r {
	case ClaimResultOk:
		return "Ok"
	case ClaimResultDuplicate:
		return "Duplicate"
	case ClaimResultExpired:
		return "Expired"
	case ClaimResultArchived:
		return "Archived"
	case ClaimResultNotStarted:
		return "NotStarted"
	case ClaimResultOverdraft:
		return "Overdraft"
	case ClaimResultAmountTooLow:
		return "AmountTooLow"
	case ClaimResultPaymentMethodNotSupported:
		return "PaymentMethodNotSupported"
	default:
		return "Unknown"
	}
}

// Message returns the stable operator-facing description of the result.
func (r ClaimResult) Message() string {
	switch r {
	case ClaimResultOk:
		return ""
	case ClaimResultDuplicate:
		return "This address is already used for another payout"
	case ClaimResultExpired:
		return "This pull payment is expired"
	case ClaimResultNotStarted:
		return "This pull payment has yet started"
	case ClaimResultArchived:
		return "This pull payment has been archived"
	case ClaimResultOverdraft:
		return "The payout amount overdraft the pull payment's limit"
	case ClaimResultAmountTooLow:
		return "The requested payout amount is too low"
	case ClaimResultPaymentMethodNotSupported:
		return "This payment method is not supported by the pull payment"
	default:
		return "Unknown claim result"
	}
}

// ClaimResponse is the resolved outcome of a claim; Payout is set on Ok only.
type ClaimResponse struct {
	Result ClaimResult `json:"result"`
	Payout *Payout     `json:"payout,omitempty"`
}

// ApprovalRequest approves a payout at a given revision, converting the
// settlement amount into the target asset at Rate. Rate is forced to one when
// the payment method's asset equals the settlement currency.
type ApprovalRequest struct {
	PayoutID string          `json:"payout_id"`
	Revision int             `json:"revision"`
	Rate     decimal.Decimal `json:"rate"`
}

// ApprovalResult is the outcome of an approval.
type ApprovalResult int

const (
	// ApprovalResultOk means the payout moved to AwaitingPayment.
	ApprovalResultOk ApprovalResult = iota
	// ApprovalResultNotFound means no such payout exists.
	ApprovalResultNotFound
	// ApprovalResultInvalidState means the payout is not awaiting approval.
	ApprovalResultInvalidState
	// ApprovalResultTooLowAmount means the converted amount is below the
	// handler's minimum.
	ApprovalResultTooLowAmount
	// ApprovalResultOldRevision means the approver observed a stale revision.
	ApprovalResultOldRevision
)

func (r ApprovalResult) String() string {
	switch r {
	case ApprovalResultOk:
		return "Ok"
	case ApprovalResultNotFound:
		return "NotFound"
	case ApprovalResultInvalidState:
		return "InvalidState"
	case ApprovalResultTooLowAmount:
		return "TooLowAmount"
	case ApprovalResultOldRevision:
		return "OldRevision"
	default:
		return "Unknown"
	}
}

// Message returns the stable operator-facing description of the result.
func (r ApprovalResult) Message() string {
	switch r {
	case ApprovalResultOk:
		return "Ok"
	case ApprovalResultNotFound:
		return "The payout is not found"
	case ApprovalResultInvalidState:
		return "The payout is not in a state that can be approved"
	case ApprovalResultTooLowAmount:
		return "The crypto amount is too small"
	case ApprovalResultOldRevision:
		return "The payout was modified by someone else; refresh and try again"
	default:
		return "Unknown approval result"
	}
}

// CancelRequest cancels either every payout of one pull payment (archiving it)
// or an explicit set of payouts. The two modes are mutually exclusive.
type CancelRequest struct {
	PullPaymentID string   `json:"pull_payment_id,omitempty"`
	PayoutIDs     []string `json:"payout_ids,omitempty"`
}

// Validate checks that exactly one cancellation mode is selected.
func (r *CancelRequest) Validate() error {
	if (r.PullPaymentID == "") == (len(r.PayoutIDs) == 0) {
		return ErrInvalidCancelRequest
	}

	return nil
}

// MarkPaidRequest records the completion of an approved payout, optionally
// attaching a payment-method specific proof.
type MarkPaidRequest struct {
	PayoutID string          `json:"payout_id"`
	Proof    json.RawMessage `json:"proof,omitempty"`
}

// MarkPaidResult is the outcome of marking a payout paid.
type MarkPaidResult int

const (
	// MarkPaidResultOk means the payout moved to Completed.
	MarkPaidResultOk MarkPaidResult = iota
	// MarkPaidResultNotFound means no such payout exists.
	MarkPaidResultNotFound
	// MarkPaidResultInvalidState means the payout is not awaiting payment.
	MarkPaidResultInvalidState
)

func (r MarkPaidResult) String() string {
	switch r {
	case MarkPaidResultOk:
		return "Ok"
	case MarkPaidResultNotFound:
		return "NotFound"
	case MarkPaidResultInvalidState:
		return "InvalidState"
	default:
		return "Unknown"
	}
}

// Message returns the stable operator-facing description of the result.
func (r MarkPaidResult) Message() string {
	switch r {
	case MarkPaidResultOk:
		return "Ok"
	case MarkPaidResultNotFound:
		return "The payout is not found"
	case MarkPaidResultInvalidState:
		return "The payout is not in a state that can be marked as paid"
	default:
		return "Unknown mark paid result"
	}
}

// PayoutNotification is published after a payout is created so downstream
// consumers (email, webhooks) can inform the store owner.
type PayoutNotification struct {
	StoreID       string `json:"store_id"`
	PullPaymentID string `json:"pull_payment_id"`
	PayoutID      string `json:"payout_id"`
	PaymentMethod string `json:"payment_method"`
	Currency      string `json:"currency"`
}
