package api

import (
	"github.com/alfanzaky/queuehub/internal/domain"
	"github.com/alfanzaky/queuehub/pkg/logger"
	"github.com/alfanzaky/queuehub/pkg/observability"
	"github.com/alfanzaky/queuehub/pkg/xresponse"
	"github.com/gin-gonic/gin"
)

// Context keys set by the auth middleware
const (
	ctxKeyPrincipal = "principal"
	ctxKeyUserID    = "user_id"
	ctxKeyTenantID  = "tenant_id"
	ctxKeyAuthority = "authority"
)

// RoleGuard provides helper functions for principal lookups in handlers
type RoleGuard struct{}

// NewRoleGuard creates a new role guard instance
func NewRoleGuard() *RoleGuard {
	return &RoleGuard{}
}

// GetCurrentPrincipal extracts the authenticated principal from context
func (rg *RoleGuard) GetCurrentPrincipal(c *gin.Context) (*domain.Principal, bool) {
	val, exists := c.Get(ctxKeyPrincipal)
	if !exists {
		return nil, false
	}

	principal, ok := val.(*domain.Principal)
	if !ok || principal == nil {
		return nil, false
	}
	return principal, true
}

// RequireAuthority rejects principals holding none of the given authorities
func (rg *RoleGuard) RequireAuthority(authorities ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, exists := rg.GetCurrentPrincipal(c)
		if !exists {
			logger.Warn("Access denied - principal not authenticated",
				logger.Any("required_authorities", authorities),
				logger.String("ip", c.ClientIP()),
			)
			xresponse.Unauthorized(c, "Authentication required")
			c.Abort()
			return
		}

		if !principal.HasAuthority(authorities...) {
			logger.Warn("Access denied - insufficient authority",
				logger.String("user_id", principal.UserID),
				logger.String("authority", principal.Authority),
				logger.Any("required_authorities", authorities),
				logger.String("ip", c.ClientIP()),
			)
			xresponse.Forbidden(c, "Insufficient permissions")
			c.Abort()
			return
		}

		c.Next()
	}
}

// LogAccess logs access with principal information
func (rg *RoleGuard) LogAccess(c *gin.Context, action string, resource string) {
	principal, exists := rg.GetCurrentPrincipal(c)
	if !exists {
		return
	}

	observability.LogWithFields(c, "Principal action",
		logger.String("user_id", principal.UserID),
		logger.String("tenant_id", principal.TenantID),
		logger.String("authority", principal.Authority),
		logger.String("action", action),
		logger.String("resource", resource),
	)
}
