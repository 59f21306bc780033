// Package service provides business logic layer implementations.
package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jnst/pull-payment-service/internal/events"
	"github.com/jnst/pull-payment-service/internal/model"
)

// PayoutHandler is the per-payment-method collaborator. One handler may serve
// several payment method identifiers; it is registered once per identifier.
type PayoutHandler interface {
	// Subscriptions lists the bus event types the handler wants funneled into
	// the serialized command stream.
	Subscriptions() []events.Type
	// BackgroundCheck observes every dequeued item after command dispatch.
	// It must not mutate pull payments or payouts directly; mutations go back
	// through the service as commands.
	BackgroundCheck(ctx context.Context, item any) error
	// ParseDestination parses a raw destination for the payment method.
	// Permissive parsing tolerates inputs that need network validation later.
	ParseDestination(ctx context.Context, paymentMethodID, raw string, permissive bool) (model.Destination, error)
	// MinimumPayoutAmount returns the smallest payable amount, in the payment
	// method's asset, for the destination.
	MinimumPayoutAmount(ctx context.Context, paymentMethodID string, destination model.Destination) (decimal.Decimal, error)
	// TrackClaim records that a claim now targets the destination.
	TrackClaim(ctx context.Context, paymentMethodID string, destination model.Destination) error
}

// CurrencyPair names the two currencies of a rate quote.
type CurrencyPair struct {
	Left  string
	Right string
}

func (p CurrencyPair) String() string {
	return p.Left + "_" + p.Right
}

// RateRule is an opaque rate expression evaluated by the rate resolver.
type RateRule string

// RateResolver asynchronously quotes a currency pair under a rate rule.
type RateResolver interface {
	FetchRate(ctx context.Context, rule RateRule, pair CurrencyPair) (decimal.Decimal, error)
}

// NotificationSender delivers notifications to a store's operators.
// Fire-and-forget from the caller's perspective.
type NotificationSender interface {
	Send(ctx context.Context, storeID string, notification *model.PayoutNotification) error
}

// HandlerRegistry maps payment method identifiers to payout handlers. It is
// populated at startup, before the service starts, and read-only afterwards.
type HandlerRegistry struct {
	byMethod map[string]PayoutHandler
	handlers []PayoutHandler
}

// NewHandlerRegistry creates an empty registry.
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{byMethod: make(map[string]PayoutHandler)}
}

// Register binds a handler to a payment method identifier.
func (r *HandlerRegistry) Register(paymentMethodID string, handler PayoutHandler) {
	if _, ok := r.byMethod[paymentMethodID]; ok {
		return
	}

	r.byMethod[paymentMethodID] = handler

	for _, h := range r.handlers {
		if h == handler {
			return
		}
	}

	r.handlers = append(r.handlers, handler)
}

// Resolve returns the handler registered for the payment method identifier.
func (r *HandlerRegistry) Resolve(paymentMethodID string) (PayoutHandler, bool) {
	handler, ok := r.byMethod[paymentMethodID]
	return handler, ok
}

// Handlers returns the distinct handlers in registration order.
func (r *HandlerRegistry) Handlers() []PayoutHandler {
	return r.handlers
}
