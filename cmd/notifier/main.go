// Package main provides the notification consumer for Redis Streams.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/rueidis"

	"github.com/jnst/pull-payment-service/internal/config"
	"github.com/jnst/pull-payment-service/internal/logger"
	"github.com/jnst/pull-payment-service/internal/model"
	"github.com/jnst/pull-payment-service/internal/notify"
)

const (
	deliveryDelay     = 100 * time.Millisecond
	redisBlockTimeout = 1000 // milliseconds
	errorRetryDelay   = 1 * time.Second
	signalBufferSize  = 1
	exitCode          = 1
)

// NotificationHandler processes payout notifications from Redis Streams.
type NotificationHandler struct {
	redisClient rueidis.Client
}

// NewNotificationHandler creates a new notification handler instance.
func NewNotificationHandler(redisClient rueidis.Client) *NotificationHandler {
	return &NotificationHandler{
		redisClient: redisClient,
	}
}

// HandlePayoutCreated processes payout creation notifications.
func (h *NotificationHandler) HandlePayoutCreated(ctx context.Context, notification *model.PayoutNotification) error {
	slog.Info("processing payout notification",
		slog.String("event_type", notify.EventTypePayoutCreated),
		slog.String("store_id", notification.StoreID),
		slog.String("payout_id", notification.PayoutID),
		slog.String("payment_method", notification.PaymentMethod),
	)

	if err := h.deliverToStore(ctx, notification); err != nil {
		return err
	}

	slog.Info("payout notification processed successfully",
		slog.String("payout_id", notification.PayoutID),
	)

	return nil
}

func (*NotificationHandler) deliverToStore(_ context.Context, notification *model.PayoutNotification) error {
	// Delivery channels (email, webhooks) hang off this point; for now the
	// notification is surfaced through the log.
	slog.Info("notifying store of new payout awaiting approval",
		slog.String("store_id", notification.StoreID),
		slog.String("pull_payment_id", notification.PullPaymentID),
		slog.String("currency", notification.Currency),
	)

	time.Sleep(deliveryDelay)

	return nil
}

func setupRedisClient(cfg *config.Config) (rueidis.Client, error) {
	redisClient, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{cfg.RedisAddr},
	})
	if err != nil {
		return nil, err
	}

	return redisClient, nil
}

func setupSignalHandling() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, signalBufferSize)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("shutdown signal received, stopping notifier")
		cancel()
	}()

	return ctx, cancel
}

func createConsumerGroup(ctx context.Context, redisClient rueidis.Client, streamKey, groupName string) {
	createGroupCmd := redisClient.B().XgroupCreate().Key(streamKey).Group(groupName).Id("0").Mkstream().Build()
	if err := redisClient.Do(ctx, createGroupCmd).Error(); err != nil {
		slog.Info("consumer group creation result (may already exist)", slog.String("error", err.Error()))
	}
}

func runNotifierLoop(ctx context.Context, handler *NotificationHandler, streamKey, groupName, consumerName string) {
	for {
		select {
		case <-ctx.Done():
			slog.Info("notifier stopped")
			return
		default:
			if err := handler.consumeNotifications(ctx, streamKey, groupName, consumerName); err != nil {
				slog.Error("error consuming notifications", slog.String("error", err.Error()))
				time.Sleep(errorRetryDelay)
			}
		}
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(exitCode)
	}

	loggerInstance := logger.Setup(cfg.LogLevel)
	slog.SetDefault(loggerInstance)

	redisClient, err := setupRedisClient(cfg)
	if err != nil {
		slog.Error("failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(exitCode)
	}
	defer redisClient.Close()

	handler := NewNotificationHandler(redisClient)
	ctx, cancel := setupSignalHandling()
	defer cancel()

	createConsumerGroup(ctx, redisClient, cfg.NotificationStream, cfg.NotificationGroup)

	slog.Info("starting notification consumer",
		slog.String("service", "notifier"),
		slog.String("stream", cfg.NotificationStream),
		slog.String("group", cfg.NotificationGroup),
		slog.String("consumer", cfg.ConsumerName),
	)

	runNotifierLoop(ctx, handler, cfg.NotificationStream, cfg.NotificationGroup, cfg.ConsumerName)
}

func (h *NotificationHandler) readNotifications(
	ctx context.Context,
	streamKey, groupName, consumerName string,
) (map[string][]rueidis.XRangeEntry, error) {
	readCmd := h.redisClient.B().Xreadgroup().Group(groupName, consumerName).
		Count(1).
		Block(redisBlockTimeout).
		Streams().
		Key(streamKey).
		Id(">").
		Build()

	result := h.redisClient.Do(ctx, readCmd)
	if err := result.Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil // block timeout, nothing pending
		}

		return nil, err
	}

	return result.AsXRead()
}

func (h *NotificationHandler) acknowledgeNotification(ctx context.Context, streamKey, groupName, messageID string) {
	ackCmd := h.redisClient.B().Xack().Key(streamKey).Group(groupName).Id(messageID).Build()
	if err := h.redisClient.Do(ctx, ackCmd).Error(); err != nil {
		slog.Error("failed to ACK notification",
			slog.String("message_id", messageID),
			slog.String("error", err.Error()),
		)
	} else {
		slog.Debug("ACKed notification", slog.String("message_id", messageID))
	}
}

func (h *NotificationHandler) consumeNotifications(ctx context.Context, streamKey, groupName, consumerName string) error {
	streams, err := h.readNotifications(ctx, streamKey, groupName, consumerName)
	if err != nil {
		return err
	}

	if streams == nil {
		return nil
	}

	for streamName, messages := range streams {
		slog.Debug("processing stream",
			slog.String("stream", streamName),
			slog.Int("message_count", len(messages)),
		)

		for _, message := range messages {
			if err := h.processNotification(ctx, message); err != nil {
				slog.Error("failed to process notification",
					slog.String("message_id", message.ID),
					slog.String("error", err.Error()),
				)

				continue
			}

			h.acknowledgeNotification(ctx, streamKey, groupName, message.ID)
		}
	}

	return nil
}

func (h *NotificationHandler) processNotification(ctx context.Context, message rueidis.XRangeEntry) error {
	slog.Debug("received notification",
		slog.String("message_id", message.ID),
		slog.Any("fields", message.FieldValues),
	)

	eventType, ok := message.FieldValues["event_type"]
	if !ok {
		return errors.New("missing event_type in notification")
	}

	payloadStr, ok := message.FieldValues["payload"]
	if !ok {
		return errors.New("missing payload in notification")
	}

	switch eventType {
	case notify.EventTypePayoutCreated:
		var notification model.PayoutNotification
		if err := json.Unmarshal([]byte(payloadStr), &notification); err != nil {
			return fmt.Errorf("failed to parse payout_created payload: %w", err)
		}

		return h.HandlePayoutCreated(ctx, &notification)
	default:
		slog.Warn("unknown event type", slog.String("event_type", eventType))
		return nil // unknown notification kinds are skipped
	}
}
