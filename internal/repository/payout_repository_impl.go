package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jnst/pull-payment-service/internal/db"
	"github.com/jnst/pull-payment-service/internal/model"
)

const uniqueViolationCode = "23505"

// PayoutRepositoryImpl implements PayoutRepository using PostgreSQL.
type PayoutRepositoryImpl struct {
	db   *db.Queries
	pool *pgxpool.Pool
}

// NewPayoutRepositoryImpl creates a new PayoutRepository implementation.
func NewPayoutRepositoryImpl(pool *pgxpool.Pool) PayoutRepository {
	return &PayoutRepositoryImpl{
		db:   db.New(pool),
		pool: pool,
	}
}

// Create persists a new payout, mapping the live-destination uniqueness
// violation to model.ErrDuplicateDestination.
func (r *PayoutRepositoryImpl) Create(ctx context.Context, payout *model.Payout) error {
	blob, err := json.Marshal(payout.Blob)
	if err != nil {
		return fmt.Errorf("failed to marshal payout blob: %w", err)
	}

	_, err = r.db.CreatePayout(ctx, &db.CreatePayoutParams{
		ID:              payout.ID,
		PullPaymentID:   payout.PullPaymentID,
		PaymentMethodID: payout.PaymentMethodID,
		Destination:     textPtr(payout.Destination),
		Date:            pgtype.Timestamptz{Time: payout.Date, Valid: true},
		State:           string(payout.State),
		Blob:            blob,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return model.ErrDuplicateDestination
		}

		return err
	}

	return nil
}

// GetByID retrieves a payout by ID.
func (r *PayoutRepositoryImpl) GetByID(ctx context.Context, id string) (*model.Payout, error) {
	row, err := r.db.GetPayout(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPayoutNotFound
		}

		return nil, err
	}

	return toPayout(row)
}

// Update persists a payout's state and blob.
func (r *PayoutRepositoryImpl) Update(ctx context.Context, payout *model.Payout) error {
	blob, err := json.Marshal(payout.Blob)
	if err != nil {
		return fmt.Errorf("failed to marshal payout blob: %w", err)
	}

	return r.db.UpdatePayout(ctx, &db.UpdatePayoutParams{
		ID:    payout.ID,
		State: string(payout.State),
		Blob:  blob,
	})
}

// ListByPullPayment lists all payouts belonging to a pull payment.
func (r *PayoutRepositoryImpl) ListByPullPayment(ctx context.Context, pullPaymentID string) ([]*model.Payout, error) {
	rows, err := r.db.ListPayoutsByPullPayment(ctx, pullPaymentID)
	if err != nil {
		return nil, err
	}

	return toPayouts(rows)
}

// ListInWindow lists payouts of a pull payment created within [from, to).
func (r *PayoutRepositoryImpl) ListInWindow(
	ctx context.Context, pullPaymentID string, from, to *time.Time,
) ([]*model.Payout, error) {
	rows, err := r.db.ListPayoutsInWindow(ctx, &db.ListPayoutsInWindowParams{
		PullPaymentID: pullPaymentID,
		FromDate:      timestamptzPtr(from),
		ToDate:        timestamptzPtr(to),
	})
	if err != nil {
		return nil, err
	}

	return toPayouts(rows)
}

// ListByIDs lists the payouts matching the given IDs.
func (r *PayoutRepositoryImpl) ListByIDs(ctx context.Context, ids []string) ([]*model.Payout, error) {
	rows, err := r.db.ListPayoutsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	return toPayouts(rows)
}

// LiveDestinationExists reports whether a non-terminal payout uses the key.
func (r *PayoutRepositoryImpl) LiveDestinationExists(ctx context.Context, destinationKey string) (bool, error) {
	return r.db.LiveDestinationExists(ctx, textPtr(destinationKey))
}

func toPayout(row *db.Payout) (*model.Payout, error) {
	var blob model.PayoutBlob
	if err := json.Unmarshal(row.Blob, &blob); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payout blob: %w", err)
	}

	payout := &model.Payout{
		ID:              row.ID,
		PullPaymentID:   row.PullPaymentID,
		PaymentMethodID: row.PaymentMethodID,
		Date:            row.Date.Time,
		State:           model.PayoutState(row.State),
		Blob:            blob,
	}

	if row.Destination.Valid {
		payout.Destination = row.Destination.String
	}

	return payout, nil
}

func toPayouts(rows []*db.Payout) ([]*model.Payout, error) {
	payouts := make([]*model.Payout, len(rows))

	for i, row := range rows {
		payout, err := toPayout(row)
		if err != nil {
			return nil, err
		}

		payouts[i] = payout
	}

	return payouts, nil
}

func textPtr(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}

	return pgtype.Text{String: s, Valid: true}
}
