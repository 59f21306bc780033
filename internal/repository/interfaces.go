// Package repository provides data access interfaces and implementations.
package repository

import (
	"context"
	"time"

	"github.com/jnst/pull-payment-service/internal/model"
)

// PullPaymentRepository defines methods for pull payment data access.
type PullPaymentRepository interface {
	Create(ctx context.Context, pullPayment *model.PullPayment) error
	GetByID(ctx context.Context, id string) (*model.PullPayment, error)
	Archive(ctx context.Context, id string) error
}

// PayoutRepository defines methods for payout data access. Create returns
// model.ErrDuplicateDestination when the live-destination uniqueness
// constraint is violated.
type PayoutRepository interface {
	Create(ctx context.Context, payout *model.Payout) error
	GetByID(ctx context.Context, id string) (*model.Payout, error)
	Update(ctx context.Context, payout *model.Payout) error
	ListByPullPayment(ctx context.Context, pullPaymentID string) ([]*model.Payout, error)
	// ListInWindow lists payouts of a pull payment created within [from, to).
	// A nil bound is unbounded.
	ListInWindow(ctx context.Context, pullPaymentID string, from, to *time.Time) ([]*model.Payout, error)
	ListByIDs(ctx context.Context, ids []string) ([]*model.Payout, error)
	// LiveDestinationExists reports whether any payout outside a terminal state
	// already uses the destination key.
	LiveDestinationExists(ctx context.Context, destinationKey string) (bool, error)
}
