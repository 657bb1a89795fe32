package usecase

import (
	"fmt"

	"github.com/alfanzaky/queuehub/internal/domain"
	"github.com/alfanzaky/queuehub/pkg/logger"
)

// RegistryCall names a registry operation for role checks
type RegistryCall string

const (
	CallListNames RegistryCall = "list_names"
	CallListPage  RegistryCall = "list_page"
	CallGet       RegistryCall = "get"
	CallSave      RegistryCall = "save"
	CallDelete    RegistryCall = "delete"
)

// Operation is an action on a single loaded entity
type Operation string

const (
	OperationRead   Operation = "READ"
	OperationWrite  Operation = "WRITE"
	OperationDelete Operation = "DELETE"
)

type tenantScope int

const (
	scopeOwnTenant tenantScope = iota + 1
	scopeAnyTenant
)

// callAuthorities lists which authorities may invoke each registry call
var callAuthorities = map[RegistryCall][]string{
	CallListNames: {domain.AuthorityTenantAdmin},
	CallListPage:  {domain.AuthoritySysAdmin, domain.AuthorityTenantAdmin},
	CallGet:       {domain.AuthoritySysAdmin, domain.AuthorityTenantAdmin},
	CallSave:      {domain.AuthoritySysAdmin},
	CallDelete:    {domain.AuthoritySysAdmin, domain.AuthorityTenantAdmin},
}

// entityGrants lists, per authority, which entity operations are allowed and
// how far across tenants they reach. Missing entries are denied.
var entityGrants = map[string]map[Operation]tenantScope{
	domain.AuthoritySysAdmin: {
		OperationRead:   scopeAnyTenant,
		OperationWrite:  scopeOwnTenant,
		OperationDelete: scopeOwnTenant,
	},
	domain.AuthorityTenantAdmin: {
		OperationRead:   scopeOwnTenant,
		OperationDelete: scopeOwnTenant,
	},
}

// AccessGate decides whether a principal may perform a registry call and,
// once an entity is loaded, whether it may act on that entity.
type AccessGate struct{}

// NewAccessGate creates the registry access gate
func NewAccessGate() *AccessGate {
	return &AccessGate{}
}

// CheckCall verifies the principal holds an authority allowed for call
func (g *AccessGate) CheckCall(principal *domain.Principal, call RegistryCall) error {
	if err := checkPrincipal(principal); err != nil {
		return err
	}

	if !principal.HasAuthority(callAuthorities[call]...) {
		g.deny(principal, string(call), "")
		return fmt.Errorf("%w: authority %s may not %s queues", domain.ErrPermissionDenied, principal.Authority, call)
	}
	return nil
}

// CheckEntity verifies the principal may perform op on queue
func (g *AccessGate) CheckEntity(principal *domain.Principal, op Operation, queue *domain.Queue) error {
	if err := checkPrincipal(principal); err != nil {
		return err
	}
	if queue == nil {
		return fmt.Errorf("%w: no entity to authorize", domain.ErrPermissionDenied)
	}

	scope, ok := entityGrants[principal.Authority][op]
	if !ok {
		g.deny(principal, string(op), queue.ID)
		return fmt.Errorf("%w: authority %s may not %s queue", domain.ErrPermissionDenied, principal.Authority, op)
	}
	if scope == scopeOwnTenant && queue.TenantID != principal.TenantID {
		g.deny(principal, string(op), queue.ID)
		return fmt.Errorf("%w: queue belongs to another tenant", domain.ErrPermissionDenied)
	}
	return nil
}

func (g *AccessGate) deny(principal *domain.Principal, action, queueID string) {
	logger.Warn("Registry access denied",
		logger.String("user_id", principal.UserID),
		logger.String("tenant_id", principal.TenantID),
		logger.String("authority", principal.Authority),
		logger.String("action", action),
		logger.String("queue_id", queueID),
	)
}

func checkPrincipal(principal *domain.Principal) error {
	if principal == nil || principal.TenantID == "" {
		return fmt.Errorf("%w: unauthenticated caller", domain.ErrPermissionDenied)
	}
	return nil
}
