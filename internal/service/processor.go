package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jnst/pull-payment-service/internal/events"
	"github.com/jnst/pull-payment-service/internal/model"
	"github.com/jnst/pull-payment-service/internal/repository"
)

// Command envelopes carried on the serialized queue. Each one owns exactly one
// single-resolution future handed back to the enqueuing caller.
type (
	claimCommand struct {
		request    *model.ClaimRequest
		completion *future[*model.ClaimResponse]
	}

	approvalCommand struct {
		request    *model.ApprovalRequest
		completion *future[model.ApprovalResult]
	}

	cancelCommand struct {
		request    *model.CancelRequest
		completion *future[struct{}]
	}

	markPaidCommand struct {
		request    *model.MarkPaidRequest
		completion *future[model.MarkPaidResult]
	}
)

// Service serializes every pull-payment and payout mutation through a single
// consumer goroutine. Producers enqueue commands and await a future; the
// consumer executes one item at a time, store I/O included, which is the sole
// source of the consistency guarantees (spending limit, approval revision,
// destination uniqueness).
type Service struct {
	pullPayments  repository.PullPaymentRepository
	payouts       repository.PayoutRepository
	registry      *HandlerRegistry
	bus           *events.Bus
	rates         RateResolver
	notifications NotificationSender
	metrics       *Metrics
	divisibility  map[string]int32
	now           func() time.Time

	queue *queue
	wg    sync.WaitGroup
}

// Option customises the service instance.
type Option func(*Service)

// WithRateResolver supplies the rate resolver used by GetRate.
func WithRateResolver(r RateResolver) Option {
	return func(s *Service) { s.rates = r }
}

// WithNotificationSender supplies the payout notification sender.
func WithNotificationSender(n NotificationSender) Option {
	return func(s *Service) { s.notifications = n }
}

// WithMetrics overrides the default (unregistered) metrics collectors.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithDivisibility sets the decimal precision of an asset.
func WithDivisibility(asset string, places int32) Option {
	return func(s *Service) { s.divisibility[asset] = places }
}

// WithClock sets the function used to derive timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.now = clock }
}

// NewService constructs the pull payment service. Start must be called before
// commands are submitted.
func NewService(
	pullPayments repository.PullPaymentRepository,
	payouts repository.PayoutRepository,
	registry *HandlerRegistry,
	bus *events.Bus,
	opts ...Option,
) *Service {
	s := &Service{
		pullPayments: pullPayments,
		payouts:      payouts,
		registry:     registry,
		bus:          bus,
		divisibility: make(map[string]int32),
		now:          time.Now,
		queue:        newQueue(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}

	return s
}

// Start subscribes every handler's requested event types to the bus, funneling
// matching published events into the serialized queue, then starts the single
// consumer goroutine.
func (s *Service) Start() {
	for _, handler := range s.registry.Handlers() {
		for _, eventType := range handler.Subscriptions() {
			s.bus.Subscribe(eventType, func(payload any) {
				if s.queue.enqueue(payload) {
					s.metrics.QueueDepth.Inc()
				}
			})
		}
	}

	s.wg.Add(1)
	go s.loop()
}

// Stop closes the queue so further submissions fail fast, then waits for the
// consumer to drain and process every already enqueued item.
func (s *Service) Stop() {
	s.queue.close()
	s.wg.Wait()
}

func (s *Service) loop() {
	defer s.wg.Done()

	for {
		item, ok := s.queue.dequeue()
		if !ok {
			slog.Info("pull payment processor stopped")
			return
		}

		s.metrics.QueueDepth.Dec()
		s.process(item)
	}
}

// process executes one dequeued item to completion: command dispatch first,
// then background-check fan-out over every registered handler.
func (s *Service) process(item any) {
	ctx := context.Background()

	switch cmd := item.(type) {
	case *claimCommand:
		s.handleClaim(ctx, cmd)
	case *approvalCommand:
		s.handleApproval(ctx, cmd)
	case *cancelCommand:
		s.handleCancel(ctx, cmd)
	case *markPaidCommand:
		s.handleMarkPaid(ctx, cmd)
	}

	for _, handler := range s.registry.Handlers() {
		s.backgroundCheck(ctx, handler, item)
	}
}

// backgroundCheck shields the loop from a misbehaving handler: a panic or
// error is logged and the next handler still runs.
func (s *Service) backgroundCheck(ctx context.Context, handler PayoutHandler, item any) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("payout handler panicked during background check",
				slog.Any("panic", r),
			)
		}
	}()

	if err := handler.BackgroundCheck(ctx, item); err != nil {
		slog.Error("payout handler failed during background check",
			slog.String("error", err.Error()),
		)
	}
}

// submit enqueues a command unless the caller's context is already cancelled
// or the queue is closed. Once enqueued, the command runs to completion.
func (s *Service) submit(ctx context.Context, cmd any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !s.queue.enqueue(cmd) {
		return model.ErrServiceClosed
	}

	s.metrics.QueueDepth.Inc()

	return nil
}

// CreatePullPayment creates a pull payment directly, outside the serialized
// queue; creation touches no shared aggregate.
func (s *Service) CreatePullPayment(ctx context.Context, params *model.CreatePullPaymentParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}

	now := s.now().UTC()
	startDate := now
	if params.StartsAt != nil {
		startDate = params.StartsAt.UTC()
	}

	var period *int64
	if params.Period != nil {
		seconds := int64(params.Period.Seconds())
		period = &seconds
	}

	pullPayment := &model.PullPayment{
		ID:        model.NewID(),
		StoreID:   params.StoreID,
		StartDate: startDate,
		EndDate:   params.ExpiresAt,
		Period:    period,
		Blob: model.PullPaymentBlob{
			Name:                    params.Name,
			Currency:                params.Currency,
			Limit:                   params.Amount,
			Period:                  period,
			MinimumClaim:            params.MinimumClaim,
			SupportedPaymentMethods: params.SupportedPaymentMethods,
			View: model.PullPaymentView{
				Title:         params.Name,
				Description:   params.Description,
				CustomCSSLink: params.CustomCSSLink,
				EmbeddedCSS:   params.EmbeddedCSS,
			},
		},
	}

	if err := s.pullPayments.Create(ctx, pullPayment); err != nil {
		return "", fmt.Errorf("failed to create pull payment: %w", err)
	}

	slog.Info("pull payment created",
		slog.String("pull_payment_id", pullPayment.ID),
		slog.String("store_id", pullPayment.StoreID),
		slog.String("currency", params.Currency),
		slog.String("limit", params.Amount.String()),
	)

	return pullPayment.ID, nil
}

// GetPullPayment retrieves a pull payment by ID.
func (s *Service) GetPullPayment(ctx context.Context, id string) (*model.PullPayment, error) {
	return s.pullPayments.GetByID(ctx, id)
}

// GetPayout retrieves a payout by ID.
func (s *Service) GetPayout(ctx context.Context, id string) (*model.Payout, error) {
	return s.payouts.GetByID(ctx, id)
}

// Claim requests a new payout against a pull payment.
func (s *Service) Claim(ctx context.Context, request *model.ClaimRequest) (*model.ClaimResponse, error) {
	cmd := &claimCommand{request: request, completion: newFuture[*model.ClaimResponse]()}
	if err := s.submit(ctx, cmd); err != nil {
		return nil, err
	}

	return cmd.completion.wait()
}

// Approve approves a payout observed at the given revision.
func (s *Service) Approve(ctx context.Context, request *model.ApprovalRequest) (model.ApprovalResult, error) {
	cmd := &approvalCommand{request: request, completion: newFuture[model.ApprovalResult]()}
	if err := s.submit(ctx, cmd); err != nil {
		return 0, err
	}

	return cmd.completion.wait()
}

// Cancel archives a pull payment and cancels its payouts, or cancels an
// explicit set of payouts. Cancellation is idempotent.
func (s *Service) Cancel(ctx context.Context, request *model.CancelRequest) error {
	if err := request.Validate(); err != nil {
		return err
	}

	cmd := &cancelCommand{request: request, completion: newFuture[struct{}]()}
	if err := s.submit(ctx, cmd); err != nil {
		return err
	}

	_, err := cmd.completion.wait()

	return err
}

// MarkPaid records the completion of an approved payout.
func (s *Service) MarkPaid(ctx context.Context, request *model.MarkPaidRequest) (model.MarkPaidResult, error) {
	cmd := &markPaidCommand{request: request, completion: newFuture[model.MarkPaidResult]()}
	if err := s.submit(ctx, cmd); err != nil {
		return 0, err
	}

	return cmd.completion.wait()
}
