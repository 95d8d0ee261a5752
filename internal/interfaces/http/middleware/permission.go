package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Integration permissions carried in the token's permissions claim
const (
	PermissionIntegrationRead  = "integration:read"
	PermissionIntegrationWrite = "integration:write"
)

// PermissionConfig holds configuration for permission middleware
type PermissionConfig struct {
	Logger *zap.Logger
}

// RequireIntegrationAccess derives the permission from the HTTP method: reads
// need integration:read, anything that changes state needs integration:write.
// A write permission implies read.
func RequireIntegrationAccess(cfg PermissionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		required := []string{PermissionIntegrationWrite}
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			required = []string{PermissionIntegrationRead, PermissionIntegrationWrite}
		}
		if !checkPermission(c, cfg, required) {
			return
		}
		c.Next()
	}
}

func checkPermission(c *gin.Context, cfg PermissionConfig, required []string) bool {
	claims := GetJWTClaims(c)
	if claims == nil {
		handlePermissionDenied(c, cfg, required, "No authentication claims found")
		return false
	}
	if !claims.HasAnyPermission(required...) {
		handlePermissionDenied(c, cfg, required, "User lacks required permission")
		return false
	}
	return true
}

func handlePermissionDenied(c *gin.Context, cfg PermissionConfig, required []string, reason string) {
	if cfg.Logger != nil {
		cfg.Logger.Warn("Permission denied",
			zap.String("reason", reason),
			zap.Strings("required_any", required),
			zap.String("path", c.Request.URL.Path),
			zap.String("user_id", GetJWTUserID(c)),
		)
	}
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "ERR_FORBIDDEN",
			"message": "Access denied: insufficient permissions",
		},
	})
}
