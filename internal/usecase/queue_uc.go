package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alfanzaky/queuehub/internal/domain"
	"github.com/alfanzaky/queuehub/pkg/logger"
	"github.com/alfanzaky/queuehub/pkg/metrics"
	"github.com/alfanzaky/queuehub/pkg/utils"
)

type queueUsecase struct {
	queueRepo domain.QueueRepository
	eventRepo domain.QueueEventRepository
	router    *ServiceTypeRouter
	gate      *AccessGate
}

func NewQueueUsecase(
	queueRepo domain.QueueRepository,
	eventRepo domain.QueueEventRepository,
	router *ServiceTypeRouter,
	gate *AccessGate,
) domain.QueueUsecase {
	if router == nil {
		router = NewServiceTypeRouter()
	}
	if gate == nil {
		gate = NewAccessGate()
	}
	return &queueUsecase{
		queueRepo: queueRepo,
		eventRepo: eventRepo,
		router:    router,
		gate:      gate,
	}
}

func (uc *queueUsecase) ListQueueNames(ctx context.Context, principal *domain.Principal, serviceType string) (names []string, err error) {
	defer observe("list_names", time.Now(), &err)

	if err = uc.gate.CheckCall(principal, CallListNames); err != nil {
		return nil, err
	}

	st, managed, err := uc.router.Route(serviceType)
	if err != nil {
		return nil, err
	}
	if !managed {
		return []string{}, nil
	}

	found, err := uc.queueRepo.FindNamesByTenantAndServiceType(ctx, principal.TenantID, string(st))
	if err != nil {
		return nil, err
	}
	return utils.SortedSet(found), nil
}

func (uc *queueUsecase) ListQueues(ctx context.Context, principal *domain.Principal, serviceType string, link *domain.PageLink) (page *domain.QueuePage, err error) {
	defer observe("list_page", time.Now(), &err)

	if err = uc.gate.CheckCall(principal, CallListPage); err != nil {
		return nil, err
	}

	st, managed, err := uc.router.Route(serviceType)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, fmt.Errorf("%w: page parameters are required", domain.ErrInvalidArgument)
	}
	if err = link.Validate(); err != nil {
		return nil, err
	}
	if !managed {
		return domain.EmptyQueuePage(), nil
	}

	return uc.queueRepo.FindPage(ctx, principal.TenantID, string(st), link)
}

func (uc *queueUsecase) GetQueue(ctx context.Context, principal *domain.Principal, queueID string) (queue *domain.Queue, err error) {
	defer observe("get", time.Now(), &err)

	if err = uc.gate.CheckCall(principal, CallGet); err != nil {
		return nil, err
	}
	if err = validateQueueID(queueID); err != nil {
		return nil, err
	}

	queue, err = uc.queueRepo.FindByID(ctx, queueID)
	if err != nil {
		return nil, err
	}
	if err = uc.gate.CheckEntity(principal, OperationRead, queue); err != nil {
		return nil, err
	}
	return queue, nil
}

func (uc *queueUsecase) SaveQueue(ctx context.Context, principal *domain.Principal, queue *domain.Queue, serviceType string) (saved *domain.Queue, err error) {
	defer observe("save", time.Now(), &err)

	if err = uc.gate.CheckCall(principal, CallSave); err != nil {
		return nil, err
	}

	st, managed, err := uc.router.Route(serviceType)
	if err != nil {
		return nil, err
	}
	if queue == nil {
		return nil, fmt.Errorf("%w: queue payload is required", domain.ErrInvalidArgument)
	}

	// The caller's tenant always wins over whatever the payload carried.
	candidate := queue.Clone()
	candidate.TenantID = principal.TenantID
	// Creation time is owned by the store.
	candidate.CreatedTime = time.Time{}

	if candidate.ID != "" {
		if err = validateQueueID(candidate.ID); err != nil {
			return nil, err
		}
		existing, findErr := uc.queueRepo.FindByID(ctx, candidate.ID)
		switch {
		case findErr == nil:
			if err = uc.gate.CheckEntity(principal, OperationWrite, existing); err != nil {
				return nil, err
			}
		case errors.Is(findErr, domain.ErrNotFound):
		default:
			return nil, findErr
		}
	}
	if err = uc.gate.CheckEntity(principal, OperationWrite, candidate); err != nil {
		return nil, err
	}

	if !managed {
		logger.Debug("Queue not created for unmanaged service type",
			logger.String("service_type", string(st)),
			logger.String("tenant_id", principal.TenantID),
		)
		return nil, nil
	}

	candidate.ServiceType = string(st)
	if err = candidate.Validate(); err != nil {
		return nil, err
	}

	saved, err = uc.queueRepo.Save(ctx, candidate)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, fmt.Errorf("%w: queue store returned no entity", domain.ErrInternal)
	}
	if saved.TenantID != principal.TenantID {
		return nil, fmt.Errorf("%w: queue store returned entity of another tenant", domain.ErrInternal)
	}

	logger.Info("Queue saved",
		logger.String("tenant_id", saved.TenantID),
		logger.String("queue_id", saved.ID),
		logger.String("name", saved.Name),
		logger.String("user_id", principal.UserID),
	)

	uc.emit(ctx, domain.EventQueueSaved, saved)
	return saved, nil
}

func (uc *queueUsecase) DeleteQueue(ctx context.Context, principal *domain.Principal, queueID string) (err error) {
	defer observe("delete", time.Now(), &err)

	if err = uc.gate.CheckCall(principal, CallDelete); err != nil {
		return err
	}
	if err = validateQueueID(queueID); err != nil {
		return err
	}

	existing, err := uc.queueRepo.FindByID(ctx, queueID)
	if err != nil {
		return err
	}
	if err = uc.gate.CheckEntity(principal, OperationDelete, existing); err != nil {
		return err
	}

	if err = uc.queueRepo.Delete(ctx, existing.TenantID, queueID); err != nil {
		return err
	}

	logger.Info("Queue deleted",
		logger.String("tenant_id", existing.TenantID),
		logger.String("queue_id", existing.ID),
		logger.String("user_id", principal.UserID),
	)

	uc.emit(ctx, domain.EventQueueDeleted, existing)
	return nil
}

// emit hands a lifecycle event to the event repository. The mutation is
// already committed, so failures are only logged.
func (uc *queueUsecase) emit(ctx context.Context, eventType string, queue *domain.Queue) {
	if uc.eventRepo == nil {
		return
	}
	if err := uc.eventRepo.EnqueueEvent(ctx, domain.NewQueueEvent(eventType, queue)); err != nil {
		logger.Warn("Failed to enqueue queue lifecycle event",
			logger.String("event_type", eventType),
			logger.String("queue_id", queue.ID),
			logger.String("tenant_id", queue.TenantID),
			logger.ErrorField(err),
		)
	}
}

func validateQueueID(id string) error {
	if !utils.IsValidUUID(id) {
		return fmt.Errorf("%w: invalid queue id %q", domain.ErrInvalidArgument, id)
	}
	return nil
}

func observe(operation string, start time.Time, err *error) {
	metrics.RecordRegistryOperation(operation, domain.ErrorKind(*err), time.Since(start).Seconds())
}
