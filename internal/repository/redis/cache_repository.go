package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/alfanzaky/queuehub/internal/domain"
	"github.com/alfanzaky/queuehub/pkg/logger"
	"github.com/alfanzaky/queuehub/pkg/metrics"
)

// Cache keys
const (
	QueueNamesKeyPrefix           = "queue_names:"
	QueueNamesGenerationKeyPrefix = "queue_names_gen:"

	// TTL durations
	QueueNamesCacheTTL = 5 * time.Minute
)

var errStaleListing = errors.New("queue names invalidated while loading")

// cachedQueueRepository serves queue name listings from Redis and delegates
// everything else to the wrapped repository. Cache errors never fail a call.
type cachedQueueRepository struct {
	next   domain.QueueRepository
	client *redis.Client
	ttl    time.Duration
}

var _ domain.QueueRepository = (*cachedQueueRepository)(nil)

// NewCachedQueueRepository wraps next with a Redis name cache
func NewCachedQueueRepository(next domain.QueueRepository, client *redis.Client, ttl time.Duration) domain.QueueRepository {
	if ttl <= 0 {
		ttl = QueueNamesCacheTTL
	}
	return &cachedQueueRepository{next: next, client: client, ttl: ttl}
}

func queueNamesKey(tenantID, serviceType string) string {
	return QueueNamesKeyPrefix + tenantID + ":" + serviceType
}

// queueNamesGenerationKey counts invalidations of one listing. A loaded
// listing is only cached if the counter did not move while it was loaded.
func queueNamesGenerationKey(tenantID, serviceType string) string {
	return QueueNamesGenerationKeyPrefix + tenantID + ":" + serviceType
}

func (r *cachedQueueRepository) Save(ctx context.Context, queue *domain.Queue) (*domain.Queue, error) {
	saved, err := r.next.Save(ctx, queue)
	if err != nil || saved == nil {
		return saved, err
	}
	r.invalidate(ctx, saved.TenantID, saved.ServiceType)
	return saved, nil
}

func (r *cachedQueueRepository) FindByID(ctx context.Context, id string) (*domain.Queue, error) {
	return r.next.FindByID(ctx, id)
}

func (r *cachedQueueRepository) FindNamesByTenantAndServiceType(ctx context.Context, tenantID, serviceType string) ([]string, error) {
	key := queueNamesKey(tenantID, serviceType)

	data, err := r.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		var names []string
		if jsonErr := json.Unmarshal([]byte(data), &names); jsonErr == nil {
			metrics.RecordRedisOperation("get_queue_names", "hit")
			return names, nil
		}
		logger.Warn("Discarding malformed queue names cache entry", logger.String("key", key))
	case err == redis.Nil:
		metrics.RecordRedisOperation("get_queue_names", "miss")
	default:
		metrics.RecordRedisOperation("get_queue_names", "error")
		logger.Warn("Failed to get queue names from cache",
			logger.String("key", key),
			logger.ErrorField(err),
		)
	}

	genKey := queueNamesGenerationKey(tenantID, serviceType)
	generation, genErr := r.client.Get(ctx, genKey).Int64()
	if genErr != nil && genErr != redis.Nil {
		generation = -1
	}

	names, err := r.next.FindNamesByTenantAndServiceType(ctx, tenantID, serviceType)
	if err != nil {
		return nil, err
	}

	if generation >= 0 {
		r.populate(ctx, key, genKey, generation, names)
	}
	return names, nil
}

// populate caches names unless the listing was invalidated after generation
// was read.
func (r *cachedQueueRepository) populate(ctx context.Context, key, genKey string, generation int64, names []string) {
	payload, err := json.Marshal(names)
	if err != nil {
		return
	}

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if current != generation {
			return errStaleListing
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, r.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case err == errStaleListing || err == redis.TxFailedErr:
		metrics.RecordRedisOperation("set_queue_names", "stale")
		logger.Debug("Skipped caching stale queue names", logger.String("key", key))
	default:
		metrics.RecordRedisOperation("set_queue_names", "error")
		logger.Warn("Failed to cache queue names",
			logger.String("key", key),
			logger.ErrorField(err),
		)
	}
}

func (r *cachedQueueRepository) FindPage(ctx context.Context, tenantID, serviceType string, link *domain.PageLink) (*domain.QueuePage, error) {
	return r.next.FindPage(ctx, tenantID, serviceType, link)
}

func (r *cachedQueueRepository) Delete(ctx context.Context, tenantID, id string) error {
	if err := r.next.Delete(ctx, tenantID, id); err != nil {
		return err
	}

	// The deleted queue's service type is not known here, so drop every
	// listing of the tenant.
	serviceTypes := make([]string, 0, len(domain.KnownServiceTypes))
	for _, st := range domain.KnownServiceTypes {
		serviceTypes = append(serviceTypes, string(st))
	}
	r.invalidate(ctx, tenantID, serviceTypes...)
	return nil
}

func (r *cachedQueueRepository) invalidate(ctx context.Context, tenantID string, serviceTypes ...string) {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, st := range serviceTypes {
			pipe.Incr(ctx, queueNamesGenerationKey(tenantID, st))
			pipe.Del(ctx, queueNamesKey(tenantID, st))
		}
		return nil
	})
	if err != nil {
		metrics.RecordRedisOperation("invalidate_queue_names", "error")
		logger.Warn("Failed to invalidate queue names cache",
			logger.String("tenant_id", tenantID),
			logger.ErrorField(err),
		)
		return
	}

	logger.Debug("Queue names cache invalidated",
		logger.String("tenant_id", tenantID),
		logger.Int("service_types", len(serviceTypes)),
	)
}

// Ping checks the Redis connection
func Ping(ctx context.Context, client *redis.Client) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
