package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/rueidis"
)

const (
	relayBlockTimeout   = 1000 // milliseconds
	relayBatchSize      = 16
	relayErrorRetryWait = 1 * time.Second
)

// StreamEvent is an external event read from a Redis stream, published on the
// bus under the stream entry's event_type field.
type StreamEvent struct {
	ID     string
	Type   Type
	Fields map[string]string
}

// Relay consumes a Redis stream through a consumer group and republishes every
// entry onto the in-process bus, so external notifications (chain watchers,
// payment rails) join the same serialized flow as internal commands.
type Relay struct {
	client   rueidis.Client
	bus      *Bus
	stream   string
	group    string
	consumer string
}

// NewRelay creates a relay for one stream/consumer-group pair.
func NewRelay(client rueidis.Client, bus *Bus, stream, group, consumer string) *Relay {
	return &Relay{
		client:   client,
		bus:      bus,
		stream:   stream,
		group:    group,
		consumer: consumer,
	}
}

// EnsureGroup creates the consumer group, tolerating an already existing one.
func (r *Relay) EnsureGroup(ctx context.Context) {
	cmd := r.client.B().XgroupCreate().Key(r.stream).Group(r.group).Id("0").Mkstream().Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		slog.Info("consumer group creation result (may already exist)",
			slog.String("stream", r.stream),
			slog.String("error", err.Error()),
		)
	}
}

// Run reads the stream until the context is cancelled.
func (r *Relay) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			slog.Info("event relay stopped", slog.String("stream", r.stream))
			return
		default:
			if err := r.consume(ctx); err != nil {
				slog.Error("error consuming stream events",
					slog.String("stream", r.stream),
					slog.String("error", err.Error()),
				)
				time.Sleep(relayErrorRetryWait)
			}
		}
	}
}

func (r *Relay) consume(ctx context.Context) error {
	readCmd := r.client.B().Xreadgroup().Group(r.group, r.consumer).
		Count(relayBatchSize).
		Block(relayBlockTimeout).
		Streams().
		Key(r.stream).
		Id(">").
		Build()

	result := r.client.Do(ctx, readCmd)
	if err := result.Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			return nil // block timeout, nothing pending
		}

		return err
	}

	streams, err := result.AsXRead()
	if err != nil {
		return err
	}

	for _, entries := range streams {
		for _, entry := range entries {
			if err := r.relayEntry(entry); err != nil {
				slog.Error("failed to relay stream entry",
					slog.String("message_id", entry.ID),
					slog.String("error", err.Error()),
				)

				continue
			}

			r.acknowledge(ctx, entry.ID)
		}
	}

	return nil
}

func (r *Relay) relayEntry(entry rueidis.XRangeEntry) error {
	eventType, ok := entry.FieldValues["event_type"]
	if !ok {
		return errors.New("missing event_type in stream entry")
	}

	r.bus.Publish(Type(eventType), StreamEvent{
		ID:     entry.ID,
		Type:   Type(eventType),
		Fields: entry.FieldValues,
	})

	return nil
}

func (r *Relay) acknowledge(ctx context.Context, messageID string) {
	ackCmd := r.client.B().Xack().Key(r.stream).Group(r.group).Id(messageID).Build()
	if err := r.client.Do(ctx, ackCmd).Error(); err != nil {
		slog.Error("failed to ACK stream entry",
			slog.String("message_id", messageID),
			slog.String("error", err.Error()),
		)
	} else {
		slog.Debug("ACKed stream entry", slog.String("message_id", messageID))
	}
}
