package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jnst/pull-payment-service/internal/db"
	"github.com/jnst/pull-payment-service/internal/model"
)

// PullPaymentRepositoryImpl implements PullPaymentRepository using PostgreSQL.
type PullPaymentRepositoryImpl struct {
	db   *db.Queries
	pool *pgxpool.Pool
}

// NewPullPaymentRepositoryImpl creates a new PullPaymentRepository implementation.
func NewPullPaymentRepositoryImpl(pool *pgxpool.Pool) PullPaymentRepository {
	return &PullPaymentRepositoryImpl{
		db:   db.New(pool),
		pool: pool,
	}
}

// Create persists a new pull payment.
func (r *PullPaymentRepositoryImpl) Create(ctx context.Context, pullPayment *model.PullPayment) error {
	blob, err := json.Marshal(pullPayment.Blob)
	if err != nil {
		return fmt.Errorf("failed to marshal pull payment blob: %w", err)
	}

	_, err = r.db.CreatePullPayment(ctx, &db.CreatePullPaymentParams{
		ID:        pullPayment.ID,
		StoreID:   pullPayment.StoreID,
		StartDate: pgtype.Timestamptz{Time: pullPayment.StartDate, Valid: true},
		EndDate:   timestamptzPtr(pullPayment.EndDate),
		Period:    int8Ptr(pullPayment.Period),
		Blob:      blob,
	})

	return err
}

// GetByID retrieves a pull payment by ID.
func (r *PullPaymentRepositoryImpl) GetByID(ctx context.Context, id string) (*model.PullPayment, error) {
	row, err := r.db.GetPullPayment(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPullPaymentNotFound
		}

		return nil, err
	}

	return toPullPayment(row)
}

// Archive marks a pull payment archived so it accepts no further claims.
func (r *PullPaymentRepositoryImpl) Archive(ctx context.Context, id string) error {
	return r.db.ArchivePullPayment(ctx, id)
}

func toPullPayment(row *db.PullPayment) (*model.PullPayment, error) {
	var blob model.PullPaymentBlob
	if err := json.Unmarshal(row.Blob, &blob); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pull payment blob: %w", err)
	}

	pullPayment := &model.PullPayment{
		ID:        row.ID,
		StoreID:   row.StoreID,
		StartDate: row.StartDate.Time,
		Archived:  row.Archived,
		Blob:      blob,
	}

	if row.EndDate.Valid {
		endDate := row.EndDate.Time
		pullPayment.EndDate = &endDate
	}

	if row.Period.Valid {
		period := row.Period.Int64
		pullPayment.Period = &period
	}

	return pullPayment, nil
}

func timestamptzPtr(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}

	return pgtype.Timestamptz{Time: *t, Valid: true}
}

func int8Ptr(v *int64) pgtype.Int8 {
	if v == nil {
		return pgtype.Int8{}
	}

	return pgtype.Int8{Int64: *v, Valid: true}
}
