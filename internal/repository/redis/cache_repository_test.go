package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alfanzaky/queuehub/internal/domain"
	"github.com/alfanzaky/queuehub/internal/repository/memory"
	"github.com/alfanzaky/queuehub/pkg/logger"
)

const tenantID = "11111111-1111-1111-1111-111111111111"

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	logger.SetLogger(zap.NewNop())

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func cacheQueue(name string) *domain.Queue {
	return &domain.Queue{
		TenantID:              tenantID,
		ServiceType:           string(domain.ServiceTypeRuleEngine),
		Name:                  name,
		Topic:                 "t." + name,
		PollInterval:          25,
		Partitions:            1,
		PackProcessingTimeout: 2000,
		SubmitStrategy:        domain.SubmitStrategy{Type: domain.SubmitBurst},
		ProcessingStrategy:    domain.ProcessingStrategy{Type: domain.ProcessingSkipAllFailures},
	}
}

type countingRepo struct {
	domain.QueueRepository
	nameCalls int
}

func (r *countingRepo) FindNamesByTenantAndServiceType(ctx context.Context, tenantID, serviceType string) ([]string, error) {
	r.nameCalls++
	return r.QueueRepository.FindNamesByTenantAndServiceType(ctx, tenantID, serviceType)
}

func TestCachedQueueRepository_FindNames_CachesResult(t *testing.T) {
	mr, client := setupRedis(t)
	inner := &countingRepo{QueueRepository: memory.NewQueueRepository()}
	repo := NewCachedQueueRepository(inner, client, time.Minute)
	ctx := context.Background()

	_, err := inner.Save(ctx, cacheQueue("Main"))
	require.NoError(t, err)

	names, err := repo.FindNamesByTenantAndServiceType(ctx, tenantID, "TB_RULE_ENGINE")
	require.NoError(t, err)
	assert.Equal(t, []string{"Main"}, names)

	names, err = repo.FindNamesByTenantAndServiceType(ctx, tenantID, "TB_RULE_ENGINE")
	require.NoError(t, err)
	assert.Equal(t, []string{"Main"}, names)
	assert.Equal(t, 1, inner.nameCalls)

	key := queueNamesKey(tenantID, "TB_RULE_ENGINE")
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))
}

func TestCachedQueueRepository_SaveInvalidates(t *testing.T) {
	mr, client := setupRedis(t)
	inner := &countingRepo{QueueRepository: memory.NewQueueRepository()}
	repo := NewCachedQueueRepository(inner, client, time.Minute)
	ctx := context.Background()

	_, err := repo.FindNamesByTenantAndServiceType(ctx, tenantID, "TB_RULE_ENGINE")
	require.NoError(t, err)
	assert.True(t, mr.Exists(queueNamesKey(tenantID, "TB_RULE_ENGINE")))

	_, err = repo.Save(ctx, cacheQueue("Main"))
	require.NoError(t, err)
	assert.False(t, mr.Exists(queueNamesKey(tenantID, "TB_RULE_ENGINE")))

	names, err := repo.FindNamesByTenantAndServiceType(ctx, tenantID, "TB_RULE_ENGINE")
	require.NoError(t, err)
	assert.Equal(t, []string{"Main"}, names)
	assert.Equal(t, 2, inner.nameCalls)
}

// pausingRepo holds the first names lookup after it has read the store, so
// a write can land before the result is cached.
type pausingRepo struct {
	domain.QueueRepository
	loaded chan struct{}
	resume chan struct{}
	once   sync.Once
}

func (r *pausingRepo) FindNamesByTenantAndServiceType(ctx context.Context, tenantID, serviceType string) ([]string, error) {
	names, err := r.QueueRepository.FindNamesByTenantAndServiceType(ctx, tenantID, serviceType)
	r.once.Do(func() {
		close(r.loaded)
		<-r.resume
	})
	return names, err
}

func TestCachedQueueRepository_SaveDuringLoadIsNotMasked(t *testing.T) {
	mr, client := setupRedis(t)
	inner := &pausingRepo{
		QueueRepository: memory.NewQueueRepository(),
		loaded:          make(chan struct{}),
		resume:          make(chan struct{}),
	}
	repo := NewCachedQueueRepository(inner, client, time.Minute)
	ctx := context.Background()

	type result struct {
		names []string
		err   error
	}
	done := make(chan result, 1)
	go func() {
		names, err := repo.FindNamesByTenantAndServiceType(ctx, tenantID, "TB_RULE_ENGINE")
		done <- result{names, err}
	}()

	<-inner.loaded
	_, err := repo.Save(ctx, cacheQueue("Main"))
	require.NoError(t, err)
	close(inner.resume)

	stale := <-done
	require.NoError(t, stale.err)
	assert.Empty(t, stale.names)
	assert.False(t, mr.Exists(queueNamesKey(tenantID, "TB_RULE_ENGINE")))

	names, err := repo.FindNamesByTenantAndServiceType(ctx, tenantID, "TB_RULE_ENGINE")
	require.NoError(t, err)
	assert.Equal(t, []string{"Main"}, names)
	assert.True(t, mr.Exists(queueNamesKey(tenantID, "TB_RULE_ENGINE")))
}

func TestCachedQueueRepository_DeleteInvalidates(t *testing.T) {
	mr, client := setupRedis(t)
	repo := NewCachedQueueRepository(memory.NewQueueRepository(), client, 0)
	ctx := context.Background()

	saved, err := repo.Save(ctx, cacheQueue("Main"))
	require.NoError(t, err)
	_, err = repo.FindNamesByTenantAndServiceType(ctx, tenantID, "TB_RULE_ENGINE")
	require.NoError(t, err)
	assert.Equal(t, QueueNamesCacheTTL, mr.TTL(queueNamesKey(tenantID, "TB_RULE_ENGINE")))

	require.NoError(t, repo.Delete(ctx, tenantID, saved.ID))
	assert.False(t, mr.Exists(queueNamesKey(tenantID, "TB_RULE_ENGINE")))

	names, err := repo.FindNamesByTenantAndServiceType(ctx, tenantID, "TB_RULE_ENGINE")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestCachedQueueRepository_RedisDownFallsThrough(t *testing.T) {
	mr, client := setupRedis(t)
	repo := NewCachedQueueRepository(memory.NewQueueRepository(), client, time.Minute)
	ctx := context.Background()

	mr.Close()

	saved, err := repo.Save(ctx, cacheQueue("Main"))
	require.NoError(t, err)

	names, err := repo.FindNamesByTenantAndServiceType(ctx, tenantID, "TB_RULE_ENGINE")
	require.NoError(t, err)
	assert.Equal(t, []string{"Main"}, names)

	require.NoError(t, repo.Delete(ctx, tenantID, saved.ID))
}

func TestEventRepository_EnqueueDequeue(t *testing.T) {
	_, client := setupRedis(t)
	repo := NewEventRepository(client)
	ctx := context.Background()

	first := &domain.QueueEvent{Type: domain.EventQueueSaved, TenantID: tenantID, QueueID: "q1", Name: "Main", OccurredAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	second := &domain.QueueEvent{Type: domain.EventQueueDeleted, TenantID: tenantID, QueueID: "q1", Name: "Main", OccurredAt: time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC)}
	require.NoError(t, repo.EnqueueEvent(ctx, first))
	require.NoError(t, repo.EnqueueEvent(ctx, second))

	n, err := repo.GetQueueLength(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := repo.DequeueEvent(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	got, err = repo.DequeueEvent(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestEventRepository_DequeueEmpty(t *testing.T) {
	_, client := setupRedis(t)
	repo := &eventRepository{client: client, key: QueueEventsKey, timeout: 50 * time.Millisecond}

	got, err := repo.DequeueEvent(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, got)
}
