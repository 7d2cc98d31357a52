// Package broker fans journal events out to Kafka.
package broker

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jensholdgaard/auctiondesk/internal/config"
)

// Writer is the subset of *kafka.Writer the producer uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes messages to a single topic. A disabled producer
// accepts and drops every message.
type Producer struct {
	writer  Writer
	topic   string
	logger  *slog.Logger
	enabled bool
}

// NewProducer creates a Kafka producer from cfg.
func NewProducer(cfg config.KafkaConfig, logger *slog.Logger) *Producer {
	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		logger.Info("kafka producer disabled")
		return &Producer{logger: logger}
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	logger.Info("kafka producer initialized",
		slog.Any("brokers", cfg.Brokers),
		slog.String("topic", cfg.Topic),
	)
	return NewProducerWithWriter(w, cfg.Topic, logger)
}

// NewProducerWithWriter wraps an existing writer. The writer must already
// target topic.
func NewProducerWithWriter(w Writer, topic string, logger *slog.Logger) *Producer {
	return &Producer{writer: w, topic: topic, logger: logger, enabled: true}
}

// Enabled reports whether messages are actually sent.
func (p *Producer) Enabled() bool {
	return p.enabled
}

// Publish sends msgs. No-op if disabled.
func (p *Producer) Publish(ctx context.Context, msgs ...kafka.Message) error {
	if !p.enabled || len(msgs) == 0 {
		return nil
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

// Close shuts down the Kafka writer.
func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
