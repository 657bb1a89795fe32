package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/alfanzaky/queuehub/internal/domain"
	"github.com/alfanzaky/queuehub/pkg/logger"
	"github.com/alfanzaky/queuehub/pkg/metrics"
	"github.com/alfanzaky/queuehub/pkg/utils"
)

const uniqueViolation = "23505"

const queueColumns = `id, tenant_id, service_type, name, topic, poll_interval, partitions,
	consumer_per_partition, pack_processing_timeout, submit_strategy, processing_strategy,
	additional_info, created_time`

// sortColumns maps page sort properties to table columns
var sortColumns = map[string]string{
	domain.SortByCreatedTime:  "created_time",
	domain.SortByName:         "name",
	domain.SortByTopic:        "topic",
	domain.SortByPartitions:   "partitions",
	domain.SortByPollInterval: "poll_interval",
}

type queueRepository struct {
	db *sqlx.DB
}

// NewQueueRepository creates a new queue repository
func NewQueueRepository(db *sqlx.DB) domain.QueueRepository {
	return &queueRepository{db: db}
}

// Save inserts the queue, or updates it when the id already exists for the
// same tenant. It returns nil when the id is held by another tenant.
func (r *queueRepository) Save(ctx context.Context, queue *domain.Queue) (*domain.Queue, error) {
	if queue == nil {
		return nil, fmt.Errorf("%w: queue is required", domain.ErrInvalidArgument)
	}
	defer r.observe("save", time.Now())

	q := queue.Clone()
	if q.ID == "" {
		q.ID = utils.GenerateUUID()
	}
	if q.CreatedTime.IsZero() {
		q.CreatedTime = time.Now().UTC()
	}

	query := `
		INSERT INTO queues (` + queueColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			topic = EXCLUDED.topic,
			poll_interval = EXCLUDED.poll_interval,
			partitions = EXCLUDED.partitions,
			consumer_per_partition = EXCLUDED.consumer_per_partition,
			pack_processing_timeout = EXCLUDED.pack_processing_timeout,
			submit_strategy = EXCLUDED.submit_strategy,
			processing_strategy = EXCLUDED.processing_strategy,
			additional_info = EXCLUDED.additional_info
		WHERE queues.tenant_id = EXCLUDED.tenant_id
		RETURNING ` + queueColumns

	var saved domain.Queue
	err := r.db.GetContext(ctx, &saved, query,
		q.ID, q.TenantID, q.ServiceType, q.Name, q.Topic, q.PollInterval, q.Partitions,
		q.ConsumerPerPartition, q.PackProcessingTimeout, q.SubmitStrategy, q.ProcessingStrategy,
		q.AdditionalInfo, q.CreatedTime,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Warn("Queue id is owned by another tenant",
				logger.String("queue_id", q.ID),
				logger.String("tenant_id", q.TenantID),
			)
			return nil, nil
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: queue with name %q already exists", domain.ErrConflict, q.Name)
		}
		logger.Error("Failed to save queue",
			logger.String("queue_id", q.ID),
			logger.String("name", q.Name),
			logger.ErrorField(err),
		)
		return nil, fmt.Errorf("failed to save queue: %w", err)
	}

	logger.Info("Queue saved successfully",
		logger.String("queue_id", saved.ID),
		logger.String("tenant_id", saved.TenantID),
		logger.String("name", saved.Name),
	)

	return &saved, nil
}

// FindByID retrieves a queue by ID regardless of tenant
func (r *queueRepository) FindByID(ctx context.Context, id string) (*domain.Queue, error) {
	defer r.observe("find_by_id", time.Now())

	query := `SELECT ` + queueColumns + ` FROM queues WHERE id = $1`

	var queue domain.Queue
	err := r.db.GetContext(ctx, &queue, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: queue %s", domain.ErrNotFound, id)
		}
		logger.Error("Failed to get queue by ID",
			logger.String("queue_id", id),
			logger.ErrorField(err),
		)
		return nil, fmt.Errorf("failed to get queue: %w", err)
	}

	return &queue, nil
}

// FindNamesByTenantAndServiceType returns the queue names of one tenant and service type
func (r *queueRepository) FindNamesByTenantAndServiceType(ctx context.Context, tenantID, serviceType string) ([]string, error) {
	defer r.observe("find_names", time.Now())

	query := `SELECT name FROM queues WHERE tenant_id = $1 AND service_type = $2 ORDER BY name ASC`

	names := []string{}
	if err := r.db.SelectContext(ctx, &names, query, tenantID, serviceType); err != nil {
		logger.Error("Failed to get queue names",
			logger.String("tenant_id", tenantID),
			logger.String("service_type", serviceType),
			logger.ErrorField(err),
		)
		return nil, fmt.Errorf("failed to get queue names: %w", err)
	}

	return names, nil
}

// FindPage returns one page of a tenant's queues for a service type
func (r *queueRepository) FindPage(ctx context.Context, tenantID, serviceType string, link *domain.PageLink) (*domain.QueuePage, error) {
	if err := link.Validate(); err != nil {
		return nil, err
	}
	defer r.observe("find_page", time.Now())

	args := []interface{}{tenantID, serviceType}
	conditions := []string{"tenant_id = $1", "service_type = $2"}

	if search := strings.TrimSpace(link.TextSearch); search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR topic ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+escapeLike(search)+"%")
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM queues`+where, args...); err != nil {
		logger.Error("Failed to count queues",
			logger.String("tenant_id", tenantID),
			logger.ErrorField(err),
		)
		return nil, fmt.Errorf("failed to count queues: %w", err)
	}
	if total == 0 {
		return domain.NewQueuePage(nil, 0, link), nil
	}

	column, ok := sortColumns[link.SortProperty]
	if !ok {
		column = sortColumns[domain.SortByCreatedTime]
	}
	order := domain.SortAsc
	if link.SortOrder == domain.SortDesc {
		order = domain.SortDesc
	}

	query := `SELECT ` + queueColumns + ` FROM queues` + where +
		fmt.Sprintf(" ORDER BY %s %s, id ASC LIMIT %d OFFSET %d", column, order, link.PageSize, link.Offset())

	queues := []*domain.Queue{}
	if err := r.db.SelectContext(ctx, &queues, query, args...); err != nil {
		logger.Error("Failed to list queues",
			logger.String("tenant_id", tenantID),
			logger.ErrorField(err),
		)
		return nil, fmt.Errorf("failed to list queues: %w", err)
	}

	return domain.NewQueuePage(queues, total, link), nil
}

// Delete removes a tenant's queue
func (r *queueRepository) Delete(ctx context.Context, tenantID, id string) error {
	defer r.observe("delete", time.Now())

	result, err := r.db.ExecContext(ctx, `DELETE FROM queues WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		logger.Error("Failed to delete queue",
			logger.String("queue_id", id),
			logger.ErrorField(err),
		)
		return fmt.Errorf("failed to delete queue: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: queue %s", domain.ErrNotFound, id)
	}

	logger.Info("Queue deleted successfully",
		logger.String("queue_id", id),
		logger.String("tenant_id", tenantID),
	)

	return nil
}

func (r *queueRepository) observe(operation string, start time.Time) {
	metrics.RecordDBQuery(operation, "queues", time.Since(start).Seconds())
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
