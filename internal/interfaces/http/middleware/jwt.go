package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/erp/syncengine/internal/infrastructure/auth"
	"github.com/erp/syncengine/internal/infrastructure/logger"
)

const (
	// JWTClaimsKey holds the validated *auth.Claims on the gin context
	JWTClaimsKey  = "jwt_claims"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// TokenValidator validates bearer tokens
type TokenValidator interface {
	ValidateAccessToken(token string) (*auth.Claims, error)
}

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	Validator TokenValidator
	// SkipPaths are matched exactly
	SkipPaths        []string
	SkipPathPrefixes []string
	Logger           *zap.Logger
}

// DefaultJWTConfig leaves health checks and the swagger UI open
func DefaultJWTConfig(validator TokenValidator) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		Validator:        validator,
		SkipPaths:        []string{"/health", "/healthz", "/ready"},
		SkipPathPrefixes: []string{"/swagger"},
	}
}

// JWTAuthMiddleware creates JWT authentication middleware
func JWTAuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(validator))
}

// tokenRejections maps validation failures onto the error body; the first
// match wins and anything unmatched is ERR_UNAUTHORIZED.
var tokenRejections = []struct {
	errs    []error
	code    string
	message string
}{
	{[]error{auth.ErrExpiredToken}, "ERR_TOKEN_EXPIRED", "Token has expired"},
	{[]error{auth.ErrInvalidTokenType}, "ERR_TOKEN_INVALID", "Invalid token type"},
	{[]error{auth.ErrTokenNotYetValid}, "ERR_TOKEN_INVALID", "Token is not yet valid"},
	{[]error{auth.ErrInvalidToken, auth.ErrInvalidClaims, auth.ErrMissingTenantID, auth.ErrMissingUserID}, "ERR_TOKEN_INVALID", "Invalid token"},
}

// JWTAuthMiddlewareWithConfig creates JWT authentication middleware with custom config
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if matchesPath(path, cfg.SkipPaths, false) || matchesPath(path, cfg.SkipPathPrefixes, true) {
			c.Next()
			return
		}

		token, ok := strings.CutPrefix(c.GetHeader(AuthHeaderKey), BearerPrefix)
		if !ok || token == "" {
			log.Debug("Bearer token missing", zap.String("path", path))
			abortUnauthorized(c, "ERR_UNAUTHORIZED", "Authentication required")
			return
		}

		claims, err := cfg.Validator.ValidateAccessToken(token)
		if err != nil {
			code, message := "ERR_UNAUTHORIZED", "Authentication required"
		classify:
			for _, r := range tokenRejections {
				for _, target := range r.errs {
					if errors.Is(err, target) {
						code, message = r.code, r.message
						break classify
					}
				}
			}
			log.Warn("Bearer token rejected", zap.String("path", path), zap.String("code", code), zap.Error(err))
			abortUnauthorized(c, code, message)
			return
		}

		c.Set(JWTClaimsKey, claims)
		ctx := logger.WithField(c.Request.Context(), logger.FieldUserID, claims.UserID)
		c.Request = c.Request.WithContext(logger.WithField(ctx, logger.FieldTenantID, claims.TenantID))
		c.Next()
	}
}

// GetJWTClaims returns the validated claims, nil on unauthenticated routes
func GetJWTClaims(c *gin.Context) *auth.Claims {
	claims, _ := c.Value(JWTClaimsKey).(*auth.Claims)
	return claims
}

func GetJWTUserID(c *gin.Context) string {
	if claims := GetJWTClaims(c); claims != nil {
		return claims.UserID
	}
	return ""
}

func GetJWTTenantID(c *gin.Context) string {
	if claims := GetJWTClaims(c); claims != nil {
		return claims.TenantID
	}
	return ""
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   gin.H{"code": code, "message": message},
	})
}

// matchesPath reports whether path is one of paths, or lies below one of
// them when prefix is set.
func matchesPath(path string, paths []string, prefix bool) bool {
	for _, p := range paths {
		if path == p || (prefix && strings.HasPrefix(path, p)) {
			return true
		}
	}
	return false
}
