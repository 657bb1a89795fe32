package broker

import (
	"context"
	"fmt"

	"github.com/alfanzaky/queuehub/config"
	"github.com/alfanzaky/queuehub/internal/domain"
)

// NopPublisher drops every event
type NopPublisher struct{}

var _ domain.QueueEventPublisher = NopPublisher{}

func (NopPublisher) Publish(context.Context, *domain.QueueEvent) error { return nil }

func (NopPublisher) Close() error { return nil }

func (NopPublisher) Name() string { return "none" }

// NewPublisher builds the publisher selected by cfg.Driver
func NewPublisher(cfg config.BrokerConfig) (domain.QueueEventPublisher, error) {
	switch cfg.Driver {
	case "", config.BrokerDriverNone:
		return NopPublisher{}, nil
	case config.BrokerDriverAMQP:
		return NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPQueue)
	case config.BrokerDriverKafka:
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	default:
		return nil, fmt.Errorf("unsupported broker driver: %s", cfg.Driver)
	}
}

// Name returns a label for publisher, "unknown" when it does not expose one
func Name(publisher domain.QueueEventPublisher) string {
	if n, ok := publisher.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "unknown"
}
