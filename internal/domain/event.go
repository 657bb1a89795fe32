package domain

import (
	"context"
	"time"
)

// Queue lifecycle event types
const (
	EventQueueSaved   = "QUEUE_SAVED"
	EventQueueDeleted = "QUEUE_DELETED"
)

// QueueEvent notifies downstream consumers that a queue definition changed
type QueueEvent struct {
	Type        string    `json:"type"`
	TenantID    string    `json:"tenant_id"`
	QueueID     string    `json:"queue_id"`
	Name        string    `json:"name"`
	ServiceType string    `json:"service_type"`
	Topic       string    `json:"topic"`
	Partitions  int       `json:"partitions"`
	OccurredAt  time.Time `json:"occurred_at"`
	Attempts    int       `json:"attempts,omitempty"`
}

// NewQueueEvent builds an event describing queue
func NewQueueEvent(eventType string, queue *Queue) *QueueEvent {
	return &QueueEvent{
		Type:        eventType,
		TenantID:    queue.TenantID,
		QueueID:     queue.ID,
		Name:        queue.Name,
		ServiceType: queue.ServiceType,
		Topic:       queue.Topic,
		Partitions:  queue.Partitions,
		OccurredAt:  time.Now().UTC(),
	}
}

// QueueEventRepository buffers lifecycle events until a worker relays them.
// DequeueEvent returns nil without error when nothing arrived in time.
type QueueEventRepository interface {
	EnqueueEvent(ctx context.Context, event *QueueEvent) error
	DequeueEvent(ctx context.Context) (*QueueEvent, error)
	GetQueueLength(ctx context.Context) (int64, error)
}

// QueueEventPublisher delivers lifecycle events to a message broker
type QueueEventPublisher interface {
	Publish(ctx context.Context, event *QueueEvent) error
	Close() error
}
