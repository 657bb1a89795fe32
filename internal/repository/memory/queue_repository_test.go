package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfanzaky/queuehub/internal/domain"
)

const (
	tenantA = "11111111-1111-1111-1111-111111111111"
	tenantB = "22222222-2222-2222-2222-222222222222"
)

func newQueue(tenantID, name, topic string) *domain.Queue {
	return &domain.Queue{
		TenantID:              tenantID,
		ServiceType:           string(domain.ServiceTypeRuleEngine),
		Name:                  name,
		Topic:                 topic,
		PollInterval:          25,
		Partitions:            10,
		PackProcessingTimeout: 2000,
		SubmitStrategy:        domain.SubmitStrategy{Type: domain.SubmitBurst},
		ProcessingStrategy:    domain.ProcessingStrategy{Type: domain.ProcessingRetryAll, Retries: 3},
	}
}

func TestQueueRepository_Save_AssignsIDAndCreatedTime(t *testing.T) {
	repo := NewQueueRepository()

	saved, err := repo.Save(context.Background(), newQueue(tenantA, "Main", "tb_rule_engine.main"))
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.NotEmpty(t, saved.ID)
	assert.False(t, saved.CreatedTime.IsZero())

	found, err := repo.FindByID(context.Background(), saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved, found)
}

func TestQueueRepository_Save_UpdateKeepsCreatedTime(t *testing.T) {
	repo := NewQueueRepository()
	ctx := context.Background()

	saved, err := repo.Save(ctx, newQueue(tenantA, "Main", "tb_rule_engine.main"))
	require.NoError(t, err)

	update := saved.Clone()
	update.Partitions = 4
	update.CreatedTime = time.Time{}

	updated, err := repo.Save(ctx, update)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, updated.ID)
	assert.Equal(t, 4, updated.Partitions)
	assert.Equal(t, saved.CreatedTime, updated.CreatedTime)
}

func TestQueueRepository_Save_DuplicateNameConflicts(t *testing.T) {
	repo := NewQueueRepository()
	ctx := context.Background()

	_, err := repo.Save(ctx, newQueue(tenantA, "Main", "a"))
	require.NoError(t, err)

	_, err = repo.Save(ctx, newQueue(tenantA, "Main", "b"))
	assert.ErrorIs(t, err, domain.ErrConflict)

	// same name in another tenant is fine
	_, err = repo.Save(ctx, newQueue(tenantB, "Main", "c"))
	assert.NoError(t, err)
}

func TestQueueRepository_Save_ForeignIDReturnsNothing(t *testing.T) {
	repo := NewQueueRepository()
	ctx := context.Background()

	saved, err := repo.Save(ctx, newQueue(tenantA, "Main", "a"))
	require.NoError(t, err)

	hijack := newQueue(tenantB, "Other", "b")
	hijack.ID = saved.ID
	res, err := repo.Save(ctx, hijack)
	require.NoError(t, err)
	assert.Nil(t, res)

	found, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, tenantA, found.TenantID)
}

func TestQueueRepository_FindNames_ScopedByTenantAndServiceType(t *testing.T) {
	repo := NewQueueRepository()
	ctx := context.Background()

	for _, name := range []string{"Main", "HighPriority", "SequentialByOriginator"} {
		_, err := repo.Save(ctx, newQueue(tenantA, name, "t"))
		require.NoError(t, err)
	}
	_, err := repo.Save(ctx, newQueue(tenantB, "Foreign", "t"))
	require.NoError(t, err)
	core := newQueue(tenantA, "CoreQueue", "t")
	core.ServiceType = string(domain.ServiceTypeCore)
	_, err = repo.Save(ctx, core)
	require.NoError(t, err)

	names, err := repo.FindNamesByTenantAndServiceType(ctx, tenantA, string(domain.ServiceTypeRuleEngine))
	require.NoError(t, err)
	assert.Equal(t, []string{"HighPriority", "Main", "SequentialByOriginator"}, names)

	names, err = repo.FindNamesByTenantAndServiceType(ctx, tenantB, string(domain.ServiceTypeCore))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestQueueRepository_FindPage(t *testing.T) {
	repo := NewQueueRepository()
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		q := newQueue(tenantA, fmt.Sprintf("Queue%d", i), fmt.Sprintf("topic.%d", i))
		q.CreatedTime = base.Add(time.Duration(i) * time.Minute)
		_, err := repo.Save(ctx, q)
		require.NoError(t, err)
	}

	link, err := domain.NewPageLink(2, 0, "", "", "")
	require.NoError(t, err)
	page, err := repo.FindPage(ctx, tenantA, string(domain.ServiceTypeRuleEngine), link)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.TotalElements)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.HasNext)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "Queue0", page.Data[0].Name)
	assert.Equal(t, "Queue1", page.Data[1].Name)

	link, err = domain.NewPageLink(2, 2, "", domain.SortByName, "desc")
	require.NoError(t, err)
	page, err = repo.FindPage(ctx, tenantA, string(domain.ServiceTypeRuleEngine), link)
	require.NoError(t, err)
	assert.False(t, page.HasNext)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Queue0", page.Data[0].Name)

	link, err = domain.NewPageLink(10, 0, "TOPIC.3", "", "")
	require.NoError(t, err)
	page, err = repo.FindPage(ctx, tenantA, string(domain.ServiceTypeRuleEngine), link)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Queue3", page.Data[0].Name)
}

func TestQueueRepository_FindPage_PastEndIsEmpty(t *testing.T) {
	repo := NewQueueRepository()
	ctx := context.Background()

	_, err := repo.Save(ctx, newQueue(tenantA, "Main", "t"))
	require.NoError(t, err)

	link, err := domain.NewPageLink(10, 3, "", "", "")
	require.NoError(t, err)
	page, err := repo.FindPage(ctx, tenantA, string(domain.ServiceTypeRuleEngine), link)
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.Equal(t, int64(1), page.TotalElements)
	assert.False(t, page.HasNext)
}

func TestQueueRepository_FindPage_TiesBreakByIDAndRepeat(t *testing.T) {
	repo := NewQueueRepository()
	ctx := context.Background()

	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ids := make([]string, 0, 6)
	for i := 0; i < 6; i++ {
		q := newQueue(tenantA, fmt.Sprintf("Queue%d", i), "shared.topic")
		q.CreatedTime = created
		saved, err := repo.Save(ctx, q)
		require.NoError(t, err)
		ids = append(ids, saved.ID)
	}
	sort.Strings(ids)

	for _, sortProperty := range []string{domain.SortByCreatedTime, domain.SortByTopic, domain.SortByPartitions} {
		t.Run(sortProperty, func(t *testing.T) {
			var got []string
			for pageIdx := 0; pageIdx < 3; pageIdx++ {
				link, err := domain.NewPageLink(2, pageIdx, "", sortProperty, "DESC")
				require.NoError(t, err)

				first, err := repo.FindPage(ctx, tenantA, string(domain.ServiceTypeRuleEngine), link)
				require.NoError(t, err)
				again, err := repo.FindPage(ctx, tenantA, string(domain.ServiceTypeRuleEngine), link)
				require.NoError(t, err)
				assert.Equal(t, first, again)

				for _, q := range first.Data {
					got = append(got, q.ID)
				}
			}
			assert.Equal(t, ids, got)
		})
	}
}

func TestQueueRepository_FindPage_HugePageIndex(t *testing.T) {
	repo := NewQueueRepository()
	ctx := context.Background()

	_, err := repo.Save(ctx, newQueue(tenantA, "Main", "t"))
	require.NoError(t, err)

	link, err := domain.NewPageLink(1, math.MaxInt-1, "", "", "")
	require.NoError(t, err)
	page, err := repo.FindPage(ctx, tenantA, string(domain.ServiceTypeRuleEngine), link)
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.False(t, page.HasNext)

	// an offset that cannot be represented is rejected rather than wrapped
	overflow := &domain.PageLink{PageSize: 1000, Page: 9223372036854776, SortProperty: domain.SortByName, SortOrder: domain.SortAsc}
	_, err = repo.FindPage(ctx, tenantA, string(domain.ServiceTypeRuleEngine), overflow)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestQueueRepository_Delete(t *testing.T) {
	repo := NewQueueRepository()
	ctx := context.Background()

	saved, err := repo.Save(ctx, newQueue(tenantA, "Main", "t"))
	require.NoError(t, err)

	assert.ErrorIs(t, repo.Delete(ctx, tenantB, saved.ID), domain.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, tenantA, saved.ID))
	assert.ErrorIs(t, repo.Delete(ctx, tenantA, saved.ID), domain.ErrNotFound)

	_, err = repo.FindByID(ctx, saved.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEventRepository_EnqueueDequeue(t *testing.T) {
	repo := NewEventRepository(1)
	ctx := context.Background()

	event := &domain.QueueEvent{Type: domain.EventQueueSaved, QueueID: "q1"}
	require.NoError(t, repo.EnqueueEvent(ctx, event))
	assert.Error(t, repo.EnqueueEvent(ctx, event))

	n, err := repo.GetQueueLength(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.DequeueEvent(ctx)
	require.NoError(t, err)
	assert.Equal(t, event, got)
}

func TestEventRepository_DequeueHonoursContext(t *testing.T) {
	repo := NewEventRepository(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := repo.DequeueEvent(ctx)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, context.Canceled)
}
