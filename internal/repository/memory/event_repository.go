package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/alfanzaky/queuehub/internal/domain"
)

const defaultDequeueTimeout = 5 * time.Second

// eventRepository buffers lifecycle events in a bounded channel
type eventRepository struct {
	events  chan *domain.QueueEvent
	timeout time.Duration
}

var _ domain.QueueEventRepository = (*eventRepository)(nil)

// NewEventRepository creates an in-memory event buffer holding up to capacity events
func NewEventRepository(capacity int) domain.QueueEventRepository {
	if capacity <= 0 {
		capacity = 1024
	}
	return &eventRepository{
		events:  make(chan *domain.QueueEvent, capacity),
		timeout: defaultDequeueTimeout,
	}
}

func (r *eventRepository) EnqueueEvent(_ context.Context, event *domain.QueueEvent) error {
	select {
	case r.events <- event:
		return nil
	default:
		return fmt.Errorf("event buffer full (%d events)", cap(r.events))
	}
}

func (r *eventRepository) DequeueEvent(ctx context.Context) (*domain.QueueEvent, error) {
	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case event := <-r.events:
		return event, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *eventRepository) GetQueueLength(_ context.Context) (int64, error) {
	return int64(len(r.events)), nil
}
