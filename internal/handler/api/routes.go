package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alfanzaky/queuehub/internal/domain"
	authpkg "github.com/alfanzaky/queuehub/pkg/auth"
	"github.com/alfanzaky/queuehub/pkg/logger"
	"github.com/alfanzaky/queuehub/pkg/metrics"
	"github.com/alfanzaky/queuehub/pkg/observability"
	"github.com/alfanzaky/queuehub/pkg/utils"
	"github.com/alfanzaky/queuehub/pkg/xresponse"
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all API routes
func SetupRoutes(
	router *gin.Engine,
	queueHandler *QueueHandler,
	authService domain.AuthService,
	rateLimiter *RateLimiter,
) {
	api := router.Group("/api")
	api.Use(authMiddleware(authService))
	if rateLimiter != nil {
		api.Use(rateLimiter.Middleware())
	}
	{
		configureQueueRoutes(api, queueHandler)
	}

	logger.Info("API routes configured successfully")
}

func configureQueueRoutes(group *gin.RouterGroup, queueHandler *QueueHandler) {
	queues := group.Group("/queues")
	queues.Use(NewRoleGuard().RequireAuthority(domain.AuthoritySysAdmin, domain.AuthorityTenantAdmin))
	{
		queues.GET("", queueHandler.ListQueues)
		queues.POST("", queueHandler.SaveQueue)
		queues.GET("/:"+paramQueueID, queueHandler.GetQueue)
		queues.DELETE("/:"+paramQueueID, queueHandler.DeleteQueue)
	}
}

// authMiddleware validates JWT token and sets principal context
func authMiddleware(authService domain.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authService == nil {
			xresponse.InternalServerError(c, "Auth service not available")
			c.Abort()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			metrics.RecordAuthAttempt("jwt", "missing")
			xresponse.Unauthorized(c, "Authorization header with Bearer token required")
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			metrics.RecordAuthAttempt("jwt", "missing")
			xresponse.Unauthorized(c, "Token is empty")
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			metrics.RecordAuthAttempt("jwt", "failure")
			switch {
			case errors.Is(err, authpkg.ErrExpiredToken):
				xresponse.Unauthorized(c, "Token expired")
			case errors.Is(err, authpkg.ErrInvalidToken),
				errors.Is(err, authpkg.ErrMissingTenant),
				errors.Is(err, authpkg.ErrUnknownAuthority):
				xresponse.Unauthorized(c, "Invalid token")
			default:
				observability.LogWithError(c, err, "Failed to validate token")
				xresponse.InternalServerError(c, "Failed to validate token")
			}
			c.Abort()
			return
		}

		principal := claims.Principal()
		if strings.TrimSpace(principal.UserID) == "" || !utils.IsValidUUID(principal.TenantID) {
			metrics.RecordAuthAttempt("jwt", "failure")
			xresponse.Unauthorized(c, "Invalid token payload")
			c.Abort()
			return
		}
		metrics.RecordAuthAttempt("jwt", "success")

		c.Set(ctxKeyPrincipal, principal)
		c.Set(ctxKeyUserID, principal.UserID)
		c.Set(ctxKeyTenantID, principal.TenantID)
		c.Set(ctxKeyAuthority, principal.Authority)

		logger.Debug("Principal authenticated via middleware",
			logger.String("user_id", principal.UserID),
			logger.String("tenant_id", principal.TenantID),
			logger.String("authority", principal.Authority),
			logger.String("token_ttl", time.Until(claims.ExpiresAt).String()),
		)

		c.Next()
	}
}

// CORSMiddleware handles CORS for the configured origins
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := len(allowedOrigins) == 0
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && utils.Contains(allowedOrigins, origin):
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-Trace-ID, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// RecoveryMiddleware handles panics
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		metrics.RecordSystemError("panic", "http")
		logger.Error("Panic recovered",
			logger.String("error", fmt.Sprintf("%v", recovered)),
			logger.String("path", c.Request.URL.Path),
			logger.String("method", c.Request.Method),
		)

		xresponse.InternalServerError(c, "Internal server error")
		c.Abort()
	})
}
