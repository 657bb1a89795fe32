package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/alfanzaky/queuehub/internal/domain"
	"github.com/alfanzaky/queuehub/pkg/logger"
)

const (
	QueueEventsKey        = "queue_registry_events"
	defaultDequeueTimeout = 5 * time.Second
)

type eventRepository struct {
	client  *redis.Client
	key     string
	timeout time.Duration
}

var _ domain.QueueEventRepository = (*eventRepository)(nil)

// NewEventRepository creates a Redis list backed lifecycle event queue
func NewEventRepository(client *redis.Client) domain.QueueEventRepository {
	return &eventRepository{
		client:  client,
		key:     QueueEventsKey,
		timeout: defaultDequeueTimeout,
	}
}

func (r *eventRepository) EnqueueEvent(ctx context.Context, event *domain.QueueEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal queue event: %w", err)
	}

	if err := r.client.LPush(ctx, r.key, data).Err(); err != nil {
		logger.Error("Failed to enqueue queue event",
			logger.String("queue_id", event.QueueID),
			logger.String("event_type", event.Type),
			logger.ErrorField(err),
		)
		return fmt.Errorf("failed to enqueue queue event: %w", err)
	}

	logger.Debug("Queue event enqueued",
		logger.String("queue_id", event.QueueID),
		logger.String("event_type", event.Type),
	)

	return nil
}

func (r *eventRepository) DequeueEvent(ctx context.Context) (*domain.QueueEvent, error) {
	result, err := r.client.BRPop(ctx, r.timeout, r.key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // No items in queue
		}
		return nil, fmt.Errorf("failed to dequeue queue event: %w", err)
	}

	if len(result) < 2 {
		return nil, fmt.Errorf("unexpected queue result format")
	}

	var event domain.QueueEvent
	if err := json.Unmarshal([]byte(result[1]), &event); err != nil {
		logger.Error("Dropping malformed queue event", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to unmarshal queue event: %w", err)
	}

	return &event, nil
}

func (r *eventRepository) GetQueueLength(ctx context.Context) (int64, error) {
	length, err := r.client.LLen(ctx, r.key).Result()
	if err != nil {
		logger.Error("Failed to get event queue length", logger.ErrorField(err))
		return 0, fmt.Errorf("failed to get event queue length: %w", err)
	}

	return length, nil
}
