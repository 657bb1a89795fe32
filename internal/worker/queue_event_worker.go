package worker

import (
	"context"
	"time"

	"github.com/alfanzaky/queuehub/internal/adapter/broker"
	"github.com/alfanzaky/queuehub/internal/domain"
	"github.com/alfanzaky/queuehub/pkg/logger"
	"github.com/alfanzaky/queuehub/pkg/metrics"
)

const defaultMaxAttempts = 5

// QueueEventWorker relays queue lifecycle events from the event repository to
// the broker. Callers manage its lifecycle through the context given to Start.
type QueueEventWorker struct {
	eventRepo   domain.QueueEventRepository
	publisher   domain.QueueEventPublisher
	interval    time.Duration
	maxAttempts int
}

// QueueEventWorkerConfig defines runtime options for the worker.
type QueueEventWorkerConfig struct {
	PollingInterval time.Duration
	MaxAttempts     int
}

// NewQueueEventWorker builds a new relay worker instance.
func NewQueueEventWorker(eventRepo domain.QueueEventRepository, publisher domain.QueueEventPublisher, cfg QueueEventWorkerConfig) *QueueEventWorker {
	interval := cfg.PollingInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	return &QueueEventWorker{
		eventRepo:   eventRepo,
		publisher:   publisher,
		interval:    interval,
		maxAttempts: maxAttempts,
	}
}

// Start launches the worker loop. It blocks until context cancellation.
func (w *QueueEventWorker) Start(ctx context.Context) {
	logger.Info("Queue event worker started",
		logger.String("broker", broker.Name(w.publisher)),
		logger.Duration("interval", w.interval),
	)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Queue event worker stopping", logger.ErrorField(ctx.Err()))
			return
		case <-ticker.C:
			// drain whatever is ready before waiting for the next tick
			for ctx.Err() == nil && w.processNext(ctx) {
			}
		}
	}
}

// processNext relays one event and reports whether one was dequeued.
func (w *QueueEventWorker) processNext(ctx context.Context) bool {
	if w.eventRepo == nil || w.publisher == nil {
		logger.Warn("Queue event worker missing dependencies")
		return false
	}

	if n, err := w.eventRepo.GetQueueLength(ctx); err == nil {
		metrics.SetEventBacklog(float64(n))
	}

	event, err := w.eventRepo.DequeueEvent(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Error("Failed to dequeue queue event", logger.ErrorField(err))
		}
		return false
	}
	if event == nil {
		// No items available
		return false
	}

	brokerName := broker.Name(w.publisher)
	start := time.Now()
	err = w.publisher.Publish(ctx, event)
	duration := time.Since(start)

	if err != nil {
		metrics.RecordEventPublish(brokerName, event.Type, "failure")
		w.retry(ctx, event, err)
		return true
	}

	metrics.RecordEventPublish(brokerName, event.Type, "success")
	logger.Info("Queue event published",
		logger.String("event_type", event.Type),
		logger.String("queue_id", event.QueueID),
		logger.String("broker", brokerName),
		logger.Duration("duration", duration),
	)
	return true
}

func (w *QueueEventWorker) retry(ctx context.Context, event *domain.QueueEvent, cause error) {
	event.Attempts++
	if event.Attempts >= w.maxAttempts {
		logger.Error("Dropping queue event after repeated publish failures",
			logger.String("event_type", event.Type),
			logger.String("queue_id", event.QueueID),
			logger.Int("attempts", event.Attempts),
			logger.ErrorField(cause),
		)
		return
	}

	logger.Warn("Failed to publish queue event, requeueing",
		logger.String("event_type", event.Type),
		logger.String("queue_id", event.QueueID),
		logger.Int("attempts", event.Attempts),
		logger.ErrorField(cause),
	)
	if err := w.eventRepo.EnqueueEvent(ctx, event); err != nil {
		logger.Error("Failed to requeue queue event",
			logger.String("queue_id", event.QueueID),
			logger.ErrorField(err),
		)
	}
}
