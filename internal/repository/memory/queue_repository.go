package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alfanzaky/queuehub/internal/domain"
	"github.com/alfanzaky/queuehub/pkg/utils"
)

// queueRepository keeps queue definitions in process memory. It is used when
// no database is configured and in tests.
type queueRepository struct {
	mu     sync.RWMutex
	queues map[string]*domain.Queue // queueID -> Queue
}

var _ domain.QueueRepository = (*queueRepository)(nil)

// NewQueueRepository creates an empty in-memory queue repository
func NewQueueRepository() domain.QueueRepository {
	return &queueRepository{
		queues: map[string]*domain.Queue{},
	}
}

func (r *queueRepository) Save(_ context.Context, queue *domain.Queue) (*domain.Queue, error) {
	if queue == nil {
		return nil, fmt.Errorf("%w: queue is required", domain.ErrInvalidArgument)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	q := queue.Clone()
	if q.ID == "" {
		q.ID = utils.GenerateUUID()
	}

	existing, exists := r.queues[q.ID]
	if exists && existing.TenantID != q.TenantID {
		return nil, nil
	}

	for id, other := range r.queues {
		if id == q.ID {
			continue
		}
		if other.TenantID == q.TenantID && other.ServiceType == q.ServiceType && other.Name == q.Name {
			return nil, fmt.Errorf("%w: queue with name %q already exists", domain.ErrConflict, q.Name)
		}
	}

	if exists {
		q.CreatedTime = existing.CreatedTime
	} else if q.CreatedTime.IsZero() {
		q.CreatedTime = time.Now().UTC()
	}

	r.queues[q.ID] = q
	return q.Clone(), nil
}

func (r *queueRepository) FindByID(_ context.Context, id string) (*domain.Queue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q, ok := r.queues[id]
	if !ok {
		return nil, fmt.Errorf("%w: queue %s", domain.ErrNotFound, id)
	}
	return q.Clone(), nil
}

func (r *queueRepository) FindNamesByTenantAndServiceType(_ context.Context, tenantID, serviceType string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0)
	for _, q := range r.queues {
		if q.TenantID == tenantID && q.ServiceType == serviceType {
			names = append(names, q.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (r *queueRepository) FindPage(_ context.Context, tenantID, serviceType string, link *domain.PageLink) (*domain.QueuePage, error) {
	if err := link.Validate(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(link.TextSearch)
	all := make([]*domain.Queue, 0)
	for _, q := range r.queues {
		if q.TenantID != tenantID || q.ServiceType != serviceType {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(q.Name), search) &&
			!strings.Contains(strings.ToLower(q.Topic), search) {
			continue
		}
		all = append(all, q)
	}

	desc := link.SortOrder == domain.SortDesc
	sort.SliceStable(all, func(i, j int) bool {
		c := compareQueues(all[i], all[j], link.SortProperty)
		if c == 0 {
			return all[i].ID < all[j].ID
		}
		if desc {
			return c > 0
		}
		return c < 0
	})

	total := len(all)
	start, end := total, total
	if link.Page < (total+link.PageSize-1)/link.PageSize {
		start = link.Offset()
		end = min(start+link.PageSize, total)
	}

	data := make([]*domain.Queue, 0, end-start)
	for _, q := range all[start:end] {
		data = append(data, q.Clone())
	}
	return domain.NewQueuePage(data, int64(total), link), nil
}

func (r *queueRepository) Delete(_ context.Context, tenantID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, ok := r.queues[id]
	if !ok || q.TenantID != tenantID {
		return fmt.Errorf("%w: queue %s", domain.ErrNotFound, id)
	}
	delete(r.queues, id)
	return nil
}

func compareQueues(a, b *domain.Queue, property string) int {
	switch property {
	case domain.SortByName:
		return strings.Compare(a.Name, b.Name)
	case domain.SortByTopic:
		return strings.Compare(a.Topic, b.Topic)
	case domain.SortByPartitions:
		return a.Partitions - b.Partitions
	case domain.SortByPollInterval:
		return a.PollInterval - b.PollInterval
	default:
		return a.CreatedTime.Compare(b.CreatedTime)
	}
}
