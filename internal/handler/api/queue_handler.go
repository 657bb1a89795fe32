package api

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/alfanzaky/queuehub/internal/domain"
	"github.com/alfanzaky/queuehub/pkg/observability"
	"github.com/alfanzaky/queuehub/pkg/utils"
	"github.com/alfanzaky/queuehub/pkg/xresponse"
	"github.com/gin-gonic/gin"
)

// Query parameters accepted by the queue endpoints
const (
	paramServiceType  = "serviceType"
	paramPageSize     = "pageSize"
	paramPage         = "page"
	paramTextSearch   = "textSearch"
	paramSortProperty = "sortProperty"
	paramSortOrder    = "sortOrder"
	paramQueueID      = "queueId"
)

// QueueHandler exposes the queue registry over HTTP
type QueueHandler struct {
	queueUC   domain.QueueUsecase
	roleGuard *RoleGuard
}

// NewQueueHandler creates a new queue handler
func NewQueueHandler(queueUC domain.QueueUsecase) *QueueHandler {
	return &QueueHandler{
		queueUC:   queueUC,
		roleGuard: NewRoleGuard(),
	}
}

// ListQueues returns the queue names of a service type, or one page of queues
// when pageSize is given.
func (h *QueueHandler) ListQueues(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	serviceType, err := requiredQuery(c, paramServiceType)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if _, paged := c.GetQuery(paramPageSize); !paged {
		h.roleGuard.LogAccess(c, "list_queue_names", serviceType)
		names, err := h.queueUC.ListQueueNames(c.Request.Context(), principal, serviceType)
		if err != nil {
			h.respondError(c, err)
			return
		}
		xresponse.Success(c, "Queue names fetched", names)
		return
	}

	link, err := pageLinkFromQuery(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.roleGuard.LogAccess(c, "list_queues", serviceType)
	page, err := h.queueUC.ListQueues(c.Request.Context(), principal, serviceType, link)
	if err != nil {
		h.respondError(c, err)
		return
	}
	xresponse.Success(c, "Queues fetched", page)
}

// GetQueue returns a single queue by id
func (h *QueueHandler) GetQueue(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	queueID := c.Param(paramQueueID)
	h.roleGuard.LogAccess(c, "get_queue", queueID)

	queue, err := h.queueUC.GetQueue(c.Request.Context(), principal, queueID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	xresponse.Success(c, "Queue fetched", queue)
}

// SaveQueue creates or updates a queue. A service type without managed
// queues yields a null payload.
func (h *QueueHandler) SaveQueue(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	serviceType, err := requiredQuery(c, paramServiceType)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var queue domain.Queue
	if err := c.ShouldBindJSON(&queue); err != nil {
		xresponse.ValidationError(c, err.Error())
		return
	}

	h.roleGuard.LogAccess(c, "save_queue", serviceType)
	saved, err := h.queueUC.SaveQueue(c.Request.Context(), principal, &queue, serviceType)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if saved == nil {
		xresponse.Success(c, "Queue not created", nil)
		return
	}
	xresponse.Success(c, "Queue saved", saved)
}

// DeleteQueue removes a queue by id
func (h *QueueHandler) DeleteQueue(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	queueID := c.Param(paramQueueID)
	h.roleGuard.LogAccess(c, "delete_queue", queueID)

	if err := h.queueUC.DeleteQueue(c.Request.Context(), principal, queueID); err != nil {
		h.respondError(c, err)
		return
	}
	xresponse.Success(c, "Queue deleted", gin.H{"id": queueID})
}

func (h *QueueHandler) principal(c *gin.Context) (*domain.Principal, bool) {
	principal, exists := h.roleGuard.GetCurrentPrincipal(c)
	if !exists {
		xresponse.Unauthorized(c, "Authentication required")
		return nil, false
	}
	return principal, true
}

const maxErrorMessageLength = 256

// respondError maps registry error kinds onto response codes
func (h *QueueHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		xresponse.BadRequest(c, utils.TruncateString(err.Error(), maxErrorMessageLength))
	case errors.Is(err, domain.ErrPermissionDenied):
		xresponse.Forbidden(c, "You don't have permission to perform this operation")
	case errors.Is(err, domain.ErrNotFound):
		xresponse.NotFound(c, "Requested queue not found")
	case errors.Is(err, domain.ErrConflict):
		xresponse.Conflict(c, utils.TruncateString(err.Error(), maxErrorMessageLength))
	default:
		observability.RecordSystemError(c, "registry", "queue_handler", err)
		xresponse.InternalServerError(c, "Internal server error")
	}
}

func requiredQuery(c *gin.Context, name string) (string, error) {
	value := c.Query(name)
	if value == "" {
		return "", fmt.Errorf("%w: query parameter %s is required", domain.ErrInvalidArgument, name)
	}
	return value, nil
}

func intQuery(c *gin.Context, name string) (int, error) {
	raw, err := requiredQuery(c, name)
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: query parameter %s must be an integer", domain.ErrInvalidArgument, name)
	}
	return value, nil
}

func pageLinkFromQuery(c *gin.Context) (*domain.PageLink, error) {
	pageSize, err := intQuery(c, paramPageSize)
	if err != nil {
		return nil, err
	}
	page, err := intQuery(c, paramPage)
	if err != nil {
		return nil, err
	}
	return domain.NewPageLink(
		pageSize,
		page,
		c.Query(paramTextSearch),
		c.Query(paramSortProperty),
		c.Query(paramSortOrder),
	)
}
