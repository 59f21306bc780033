// Package handler contains built-in payout handler implementations.
package handler

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jnst/pull-payment-service/internal/events"
	"github.com/jnst/pull-payment-service/internal/model"
)

// ErrEmptyDestination is returned when a destination has no content.
var ErrEmptyDestination = errors.New("destination is required")

// Manual is the payout handler for manually settled payment methods: the
// operator pays outside the system and marks the payout paid afterwards.
// Destinations are free-form, the minimum amount is a fixed configuration
// value, and there is nothing to watch in the background.
type Manual struct {
	minimum decimal.Decimal

	mu     sync.Mutex
	claims map[string]int
}

// NewManual creates a manual payout handler with the given minimum amount.
func NewManual(minimum decimal.Decimal) *Manual {
	return &Manual{
		minimum: minimum,
		claims:  make(map[string]int),
	}
}

// Subscriptions implements service.PayoutHandler; manual payouts observe no
// external events.
func (*Manual) Subscriptions() []events.Type {
	return nil
}

// BackgroundCheck implements service.PayoutHandler as a no-op.
func (*Manual) BackgroundCheck(_ context.Context, _ any) error {
	return nil
}

// ParseDestination accepts any non-empty string as a destination. The trimmed,
// lowercased form doubles as the stable key for duplicate detection.
func (*Manual) ParseDestination(_ context.Context, _ string, raw string, _ bool) (model.Destination, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return model.Destination{}, ErrEmptyDestination
	}

	return model.Destination{
		Address: trimmed,
		Key:     strings.ToLower(trimmed),
	}, nil
}

// MinimumPayoutAmount returns the configured minimum regardless of destination.
func (h *Manual) MinimumPayoutAmount(_ context.Context, _ string, _ model.Destination) (decimal.Decimal, error) {
	return h.minimum, nil
}

// TrackClaim counts claims per destination key.
func (h *Manual) TrackClaim(_ context.Context, _ string, destination model.Destination) error {
	if destination.Key == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.claims[destination.Key]++

	return nil
}

// ClaimCount reports how many claims have targeted the destination key.
func (h *Manual) ClaimCount(destinationKey string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.claims[destinationKey]
}
