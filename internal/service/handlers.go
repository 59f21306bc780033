package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/jnst/pull-payment-service/internal/model"
)

// faultOnPanic converts a handler panic into a fault on the command's future,
// keeping the consumer loop alive.
func faultOnPanic[T any](f *future[T]) {
	if r := recover(); r != nil {
		f.fault(fmt.Errorf("command handler panicked: %v", r))
	}
}

func (s *Service) handleClaim(ctx context.Context, cmd *claimCommand) {
	defer faultOnPanic(cmd.completion)

	response, err := s.processClaim(ctx, cmd.request)
	if err != nil {
		s.metrics.CommandFaults.Inc()
		cmd.completion.fault(err)

		return
	}

	s.metrics.ClaimsTotal.WithLabelValues(response.Result.String()).Inc()
	cmd.completion.resolve(response)
}

func (s *Service) processClaim(ctx context.Context, req *model.ClaimRequest) (*model.ClaimResponse, error) {
	now := s.now().UTC()

	pullPayment, err := s.pullPayments.GetByID(ctx, req.PullPaymentID)
	if err != nil {
		if errors.Is(err, model.ErrPullPaymentNotFound) {
			return &model.ClaimResponse{Result: model.ClaimResultArchived}, nil
		}

		return nil, err
	}

	if pullPayment.Archived {
		return &model.ClaimResponse{Result: model.ClaimResultArchived}, nil
	}

	if pullPayment.IsExpired(now) {
		return &model.ClaimResponse{Result: model.ClaimResultExpired}, nil
	}

	if !pullPayment.HasStarted(now) {
		return &model.ClaimResponse{Result: model.ClaimResultNotStarted}, nil
	}

	handler, registered := s.registry.Resolve(req.PaymentMethodID)
	if !registered || !pullPayment.SupportsPaymentMethod(req.PaymentMethodID) {
		return &model.ClaimResponse{Result: model.ClaimResultPaymentMethodNotSupported}, nil
	}

	if req.Destination.Key != "" {
		used, err := s.payouts.LiveDestinationExists(ctx, req.Destination.Key)
		if err != nil {
			return nil, err
		}

		if used {
			return &model.ClaimResponse{Result: model.ClaimResultDuplicate}, nil
		}
	}

	// Spending is accounted per period window; without a recurrence period the
	// window spans the pull payment's lifetime.
	from, to := pullPayment.PeriodWindow(now)

	inWindow, err := s.payouts.ListInWindow(ctx, pullPayment.ID, from, to)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, payout := range inWindow {
		if payout.State != model.PayoutStateCancelled {
			total = total.Add(payout.Blob.Amount)
		}
	}

	limit := pullPayment.Blob.Limit

	claimed := limit.Sub(total)
	if req.Value != nil {
		claimed = *req.Value
	}

	minimum, err := handler.MinimumPayoutAmount(ctx, req.PaymentMethodID, req.Destination)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve minimum payout amount: %w", err)
	}

	if claimed.LessThan(minimum) {
		return &model.ClaimResponse{Result: model.ClaimResultAmountTooLow}, nil
	}

	if total.Add(claimed).GreaterThan(limit) {
		return &model.ClaimResponse{Result: model.ClaimResultOverdraft}, nil
	}

	if claimed.LessThan(pullPayment.Blob.MinimumClaim) || claimed.IsZero() {
		return &model.ClaimResponse{Result: model.ClaimResultAmountTooLow}, nil
	}

	payout := &model.Payout{
		ID:              model.NewID(),
		PullPaymentID:   pullPayment.ID,
		PaymentMethodID: req.PaymentMethodID,
		Destination:     req.Destination.Key,
		Date:            now,
		State:           model.PayoutStateAwaitingApproval,
		Blob: model.PayoutBlob{
			Amount:      claimed,
			Destination: req.Destination.String(),
		},
	}

	if err := handler.TrackClaim(ctx, req.PaymentMethodID, req.Destination); err != nil {
		return nil, fmt.Errorf("failed to track claim: %w", err)
	}

	if err := s.payouts.Create(ctx, payout); err != nil {
		if errors.Is(err, model.ErrDuplicateDestination) {
			return &model.ClaimResponse{Result: model.ClaimResultDuplicate}, nil
		}

		return nil, err
	}

	s.sendPayoutNotification(ctx, pullPayment, payout)

	slog.Info("payout created",
		slog.String("payout_id", payout.ID),
		slog.String("pull_payment_id", pullPayment.ID),
		slog.String("payment_method_id", payout.PaymentMethodID),
		slog.String("amount", claimed.String()),
	)

	return &model.ClaimResponse{Result: model.ClaimResultOk, Payout: payout}, nil
}

func (s *Service) sendPayoutNotification(ctx context.Context, pullPayment *model.PullPayment, payout *model.Payout) {
	if s.notifications == nil {
		return
	}

	notification := &model.PayoutNotification{
		StoreID:       pullPayment.StoreID,
		PullPaymentID: pullPayment.ID,
		PayoutID:      payout.ID,
		PaymentMethod: payout.PaymentMethodID,
		Currency:      pullPayment.Blob.Currency,
	}

	if err := s.notifications.Send(ctx, pullPayment.StoreID, notification); err != nil {
		slog.Warn("failed to send payout notification",
			slog.String("payout_id", payout.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Service) handleApproval(ctx context.Context, cmd *approvalCommand) {
	defer faultOnPanic(cmd.completion)

	result, err := s.processApproval(ctx, cmd.request)
	if err != nil {
		s.metrics.CommandFaults.Inc()
		cmd.completion.fault(err)

		return
	}

	s.metrics.ApprovalsTotal.WithLabelValues(result.String()).Inc()
	cmd.completion.resolve(result)
}

func (s *Service) processApproval(ctx context.Context, req *model.ApprovalRequest) (model.ApprovalResult, error) {
	payout, err := s.payouts.GetByID(ctx, req.PayoutID)
	if err != nil {
		if errors.Is(err, model.ErrPayoutNotFound) {
			return model.ApprovalResultNotFound, nil
		}

		return 0, err
	}

	if payout.State != model.PayoutStateAwaitingApproval {
		return model.ApprovalResultInvalidState, nil
	}

	// Optimistic concurrency: the approver must have observed the payout at
	// its current revision.
	if payout.Blob.Revision != req.Revision {
		return model.ApprovalResultOldRevision, nil
	}

	handler, registered := s.registry.Resolve(payout.PaymentMethodID)
	if !registered {
		return 0, fmt.Errorf("no payout handler registered for %s", payout.PaymentMethodID)
	}

	pullPayment, err := s.pullPayments.GetByID(ctx, payout.PullPaymentID)
	if err != nil {
		return 0, err
	}

	asset := model.PaymentMethodAsset(payout.PaymentMethodID)

	rate := req.Rate
	if asset == pullPayment.Blob.Currency {
		rate = decimal.New(1, 0)
	}

	if !rate.IsPositive() {
		return 0, fmt.Errorf("rate must be positive, got %s", rate)
	}

	destination, err := handler.ParseDestination(ctx, payout.PaymentMethodID, payout.Blob.Destination, false)
	if err != nil {
		return 0, fmt.Errorf("failed to parse payout destination: %w", err)
	}

	minimum, err := handler.MinimumPayoutAmount(ctx, payout.PaymentMethodID, destination)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve minimum payout amount: %w", err)
	}

	quotient := assetQuotient(payout.Blob.Amount, rate)
	if quotient.Cmp(minimum.Rat()) < 0 {
		return model.ApprovalResultTooLowAmount, nil
	}

	cryptoAmount := ceilToPlaces(quotient, s.divisibilityFor(asset))

	payout.State = model.PayoutStateAwaitingPayment
	payout.Blob.CryptoAmount = &cryptoAmount

	if err := s.payouts.Update(ctx, payout); err != nil {
		return 0, err
	}

	slog.Info("payout approved",
		slog.String("payout_id", payout.ID),
		slog.String("rate", rate.String()),
		slog.String("crypto_amount", cryptoAmount.String()),
	)

	return model.ApprovalResultOk, nil
}

func (s *Service) handleCancel(ctx context.Context, cmd *cancelCommand) {
	defer faultOnPanic(cmd.completion)

	if err := s.processCancel(ctx, cmd.request); err != nil {
		s.metrics.CommandFaults.Inc()
		cmd.completion.fault(err)

		return
	}

	cmd.completion.resolve(struct{}{})
}

func (s *Service) processCancel(ctx context.Context, req *model.CancelRequest) error {
	var (
		payouts []*model.Payout
		err     error
	)

	if req.PullPaymentID != "" {
		if err := s.pullPayments.Archive(ctx, req.PullPaymentID); err != nil {
			return fmt.Errorf("failed to archive pull payment: %w", err)
		}

		payouts, err = s.payouts.ListByPullPayment(ctx, req.PullPaymentID)
	} else {
		payouts, err = s.payouts.ListByIDs(ctx, req.PayoutIDs)
	}

	if err != nil {
		return err
	}

	cancelled := 0

	for _, payout := range payouts {
		if !payout.State.Cancellable() || payout.State == model.PayoutStateCancelled {
			continue
		}

		payout.State = model.PayoutStateCancelled
		if err := s.payouts.Update(ctx, payout); err != nil {
			return err
		}

		cancelled++
	}

	slog.Info("cancel request processed",
		slog.String("pull_payment_id", req.PullPaymentID),
		slog.Int("selected", len(payouts)),
		slog.Int("cancelled", cancelled),
	)

	return nil
}

func (s *Service) handleMarkPaid(ctx context.Context, cmd *markPaidCommand) {
	defer faultOnPanic(cmd.completion)

	result, err := s.processMarkPaid(ctx, cmd.request)
	if err != nil {
		s.metrics.CommandFaults.Inc()
		cmd.completion.fault(err)

		return
	}

	s.metrics.MarkPaidTotal.WithLabelValues(result.String()).Inc()
	cmd.completion.resolve(result)
}

func (s *Service) processMarkPaid(ctx context.Context, req *model.MarkPaidRequest) (model.MarkPaidResult, error) {
	payout, err := s.payouts.GetByID(ctx, req.PayoutID)
	if err != nil {
		if errors.Is(err, model.ErrPayoutNotFound) {
			return model.MarkPaidResultNotFound, nil
		}

		return 0, err
	}

	if payout.State != model.PayoutStateAwaitingPayment {
		return model.MarkPaidResultInvalidState, nil
	}

	if req.Proof != nil {
		payout.Blob.Proof = req.Proof
	}

	payout.State = model.PayoutStateCompleted

	if err := s.payouts.Update(ctx, payout); err != nil {
		return 0, err
	}

	slog.Info("payout marked paid", slog.String("payout_id", payout.ID))

	return model.MarkPaidResultOk, nil
}
