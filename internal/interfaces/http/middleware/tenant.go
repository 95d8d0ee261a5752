package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/syncengine/internal/infrastructure/logger"
)

const (
	TenantIDKey     = "tenant_id"
	TenantHeaderKey = "X-Tenant-ID"
)

// TenantMiddlewareConfig holds configuration for tenant middleware
type TenantMiddlewareConfig struct {
	// HeaderEnabled accepts X-Tenant-ID when the token carries no tenant
	HeaderEnabled bool
	// SkipPaths cover the path itself and everything below it
	SkipPaths []string
	Required  bool
	Logger    *zap.Logger
}

func DefaultTenantConfig() TenantMiddlewareConfig {
	return TenantMiddlewareConfig{
		HeaderEnabled: true,
		SkipPaths:     []string{"/health", "/healthz", "/ready", "/swagger"},
		Required:      true,
	}
}

// TenantMiddleware resolves the tenant from the token claim, then the header
func TenantMiddleware() gin.HandlerFunc {
	return TenantMiddlewareWithConfig(DefaultTenantConfig())
}

// TenantMiddlewareWithConfig returns tenant middleware with custom configuration
func TenantMiddlewareWithConfig(cfg TenantMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		if skipTenant(c.Request.URL.Path, cfg.SkipPaths) {
			c.Next()
			return
		}

		source, raw := "jwt", GetJWTTenantID(c)
		if raw == "" && cfg.HeaderEnabled {
			source, raw = "header", c.GetHeader(TenantHeaderKey)
		}

		switch {
		case raw == "" && cfg.Required:
			abortUnauthorized(c, "ERR_UNAUTHORIZED", "Tenant identification required")
		case raw == "":
			c.Next()
		case uuid.Validate(raw) != nil:
			log.Debug("Malformed tenant id", zap.String("source", source), zap.String("value", raw))
			abortUnauthorized(c, "ERR_UNAUTHORIZED", "Invalid tenant ID format")
		default:
			c.Set(TenantIDKey, raw)
			c.Request = c.Request.WithContext(logger.WithField(c.Request.Context(), logger.FieldTenantID, raw))
			c.Next()
		}
	}
}

func skipTenant(path string, skip []string) bool {
	for _, p := range skip {
		if matchesPath(path, []string{p}, false) || matchesPath(path, []string{p + "/"}, true) {
			return true
		}
	}
	return false
}

// GetTenantID retrieves the tenant ID from gin.Context
func GetTenantID(c *gin.Context) string {
	return c.GetString(TenantIDKey)
}

// GetTenantUUID returns uuid.Nil when the request carries no tenant
func GetTenantUUID(c *gin.Context) (uuid.UUID, error) {
	raw := GetTenantID(c)
	if raw == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(raw)
}
