package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes movement events to a topic, keyed by product id so a
// product's movements stay ordered within one partition.
type KafkaPublisher struct {
	writer  MessageWriter
	logger  *zap.Logger
	timeout time.Duration
}

// NewKafkaWriter builds a writer with low-latency batching.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}
}

func NewKafkaPublisher(writer MessageWriter, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, logger: logger.Named("kafka"), timeout: 5 * time.Second}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event MovementEvent) {
	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to encode movement event", zap.Error(err))
		return
	}

	// The movement is already committed; delivery must not depend on the request lifetime.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(event.ProductID.String()),
		Value: value,
		Time:  event.TransactionTime,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Warn("Failed to publish movement event",
			zap.String("transaction_id", event.TransactionID.String()),
			zap.Error(err))
	}
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
