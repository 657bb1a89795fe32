package usecase

import (
	"fmt"
	"strings"

	"github.com/alfanzaky/queuehub/internal/domain"
)

// ServiceTypeRouter resolves a service type token and reports whether the
// registry manages queues for it. Tokens are matched exactly.
// The table is fixed once built.
type ServiceTypeRouter struct {
	managed map[domain.ServiceType]bool
}

// NewServiceTypeRouter creates a router knowing every platform service type,
// with only the rule engine managed by the registry.
func NewServiceTypeRouter() *ServiceTypeRouter {
	r := &ServiceTypeRouter{
		managed: make(map[domain.ServiceType]bool, len(domain.KnownServiceTypes)),
	}
	for _, st := range domain.KnownServiceTypes {
		r.managed[st] = false
	}
	r.managed[domain.ServiceTypeRuleEngine] = true
	return r
}

// Route parses token. An empty token or one naming no known service type is
// an invalid argument.
func (r *ServiceTypeRouter) Route(token string) (domain.ServiceType, bool, error) {
	if strings.TrimSpace(token) == "" {
		return "", false, fmt.Errorf("%w: serviceType is required", domain.ErrInvalidArgument)
	}

	st := domain.ServiceType(token)
	managed, ok := r.managed[st]

	if !ok {
		return "", false, fmt.Errorf("%w: unknown serviceType %q", domain.ErrInvalidArgument, token)
	}
	return st, managed, nil
}
