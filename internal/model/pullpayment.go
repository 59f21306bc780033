// Package model defines domain models and data structures.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PullPayment represents a store-issued spending budget that third parties
// can claim payouts against, valid within [StartDate, EndDate].
type PullPayment struct {
	ID        string          `json:"id"`
	StoreID   string          `json:"store_id"`
	StartDate time.Time       `json:"start_date"`
	EndDate   *time.Time      `json:"end_date"`
	Period    *int64          `json:"period"` // seconds, nil means no recurrence
	Archived  bool            `json:"archived"`
	Blob      PullPaymentBlob `json:"blob"`
}

// PullPaymentBlob holds the settings stored alongside a pull payment.
type PullPaymentBlob struct {
	Name                    string          `json:"name"`
	Currency                string          `json:"currency"`
	Limit                   decimal.Decimal `json:"limit"`
	Period                  *int64          `json:"period"` // seconds, cache of the row value
	MinimumClaim            decimal.Decimal `json:"minimumClaim"`
	SupportedPaymentMethods []string        `json:"supportedPaymentMethods"`
	View                    PullPaymentView `json:"view"`
}

// PullPaymentView carries presentation-only fields.
type PullPaymentView struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Email         string `json:"email,omitempty"`
	CustomCSSLink string `json:"customCSSLink,omitempty"`
	EmbeddedCSS   string `json:"embeddedCSS,omitempty"`
}

// HasStarted reports whether the pull payment accepts claims at the given time.
func (p *PullPayment) HasStarted(now time.Time) bool {
	return !now.Before(p.StartDate)
}

// IsExpired reports whether the pull payment's validity window has passed.
func (p *PullPayment) IsExpired(now time.Time) bool {
	return p.EndDate != nil && now.After(*p.EndDate)
}

// SupportsPaymentMethod reports whether the given payment method may claim
// against this pull payment.
func (p *PullPayment) SupportsPaymentMethod(paymentMethodID string) bool {
	for _, id := range p.Blob.SupportedPaymentMethods {
		if id == paymentMethodID {
			return true
		}
	}

	return false
}

// PeriodWindow returns the bounds of the recurrence window containing now.
// Without a recurrence period both bounds are nil and the spending limit
// applies to the pull payment's lifetime.
func (p *PullPayment) PeriodWindow(now time.Time) (from, to *time.Time) {
	if p.Period == nil || *p.Period <= 0 {
		return nil, nil
	}

	period := time.Duration(*p.Period) * time.Second
	elapsed := now.Sub(p.StartDate)
	if elapsed < 0 {
		elapsed = 0
	}

	windowStart := p.StartDate.Add(elapsed / period * period)
	windowEnd := windowStart.Add(period)

	return &windowStart, &windowEnd
}

// CreatePullPaymentParams represents parameters for creating a new pull payment.
type CreatePullPaymentParams struct {
	StoreID                 string           `json:"store_id"`
	Name                    string           `json:"name"`
	Description             string           `json:"description"`
	Amount                  decimal.Decimal  `json:"amount"`
	Currency                string           `json:"currency"`
	MinimumClaim            decimal.Decimal  `json:"minimum_claim"`
	StartsAt                *time.Time       `json:"starts_at"`
	ExpiresAt               *time.Time       `json:"expires_at"`
	Period                  *time.Duration   `json:"period"`
	SupportedPaymentMethods []string         `json:"supported_payment_methods"`
	CustomCSSLink           string           `json:"custom_css_link"`
	EmbeddedCSS             string           `json:"embedded_css"`
}

// Validate validates the create pull payment parameters.
func (p *CreatePullPaymentParams) Validate() error {
	if !p.Amount.IsPositive() {
		return ErrAmountOutOfBound
	}

	if p.Currency == "" {
		return ErrInvalidCurrency
	}

	if len(p.SupportedPaymentMethods) == 0 {
		return ErrNoPaymentMethods
	}

	return nil
}
