package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/alfanzaky/queuehub/internal/domain"
	"github.com/alfanzaky/queuehub/pkg/logger"
)

// messageWriter is the subset of *kafka.Writer the publisher needs
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes lifecycle events to a Kafka topic keyed by queue id
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

var _ domain.QueueEventPublisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates a publisher writing to topic on brokers
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
		topic: topic,
	}
}

// Publish writes event keyed by queue id so events of one queue stay ordered
func (p *KafkaPublisher) Publish(ctx context.Context, event *domain.QueueEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal queue event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.QueueID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "tenant_id", Value: []byte(event.TenantID)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write to %s: %w", p.topic, err)
	}

	logger.Debug("Queue event published to Kafka",
		logger.String("topic", p.topic),
		logger.String("event_type", event.Type),
		logger.String("queue_id", event.QueueID),
	)
	return nil
}

// Close flushes and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Name identifies the broker in metrics and logs
func (p *KafkaPublisher) Name() string {
	return "kafka"
}
