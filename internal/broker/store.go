package broker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/jensholdgaard/auctiondesk/internal/event"
)

// PublishingStore is an event.Store that forwards appended events to Kafka
// after they are stored. Publishing is best effort: a broker failure is
// logged and never fails the append.
type PublishingStore struct {
	event.Store
	producer *Producer
	logger   *slog.Logger
}

// NewPublishingStore decorates next with Kafka publication.
func NewPublishingStore(next event.Store, p *Producer, logger *slog.Logger) *PublishingStore {
	return &PublishingStore{Store: next, producer: p, logger: logger}
}

// Append stores events, then publishes them keyed by session so a
// session's events stay on one partition in order.
func (s *PublishingStore) Append(ctx context.Context, events ...event.Event) error {
	if err := s.Store.Append(ctx, events...); err != nil {
		return err
	}
	if !s.producer.Enabled() {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		value, err := json.Marshal(e)
		if err != nil {
			s.logger.ErrorContext(ctx, "encoding event for kafka",
				slog.String("type", string(e.Type)),
				slog.Any("error", err),
			)
			continue
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(e.AggregateID),
			Value: value,
			Headers: []kafka.Header{
				{Key: "event-type", Value: []byte(e.Type)},
			},
		})
	}

	if err := s.producer.Publish(ctx, msgs...); err != nil {
		s.logger.WarnContext(ctx, "publishing events to kafka",
			slog.Int("count", len(msgs)),
			slog.Any("error", err),
		)
	}
	return nil
}
