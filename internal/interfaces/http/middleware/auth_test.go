package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/syncengine/internal/infrastructure/auth"
	"github.com/erp/syncengine/internal/infrastructure/config"
	"github.com/erp/syncengine/internal/infrastructure/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		Issuer:                "erp-backend",
		AccessTokenExpiration: 15 * time.Minute,
	})
}

func issueToken(t *testing.T, svc *auth.JWTService, tenantID uuid.UUID, perms ...string) string {
	t.Helper()
	token, _, err := svc.IssueAccessToken(auth.IssueInput{
		TenantID:    tenantID,
		UserID:      uuid.New(),
		Username:    "operator",
		Permissions: perms,
	})
	require.NoError(t, err)
	return token
}

func doRequest(router *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestJWTAuthMiddleware(t *testing.T) {
	svc := newTestJWTService()
	tenantID := uuid.New()

	router := gin.New()
	router.Use(JWTAuthMiddleware(svc))
	router.GET("/api/v1/integrations", func(c *gin.Context) {
		claims := GetJWTClaims(c)
		require.NotNil(t, claims)
		assert.Equal(t, tenantID.String(), GetJWTTenantID(c))
		assert.Equal(t, claims.UserID, GetJWTUserID(c))
		assert.Equal(t, tenantID.String(), logger.Field(c.Request.Context(), logger.FieldTenantID))
		c.Status(http.StatusOK)
	})
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/swagger/index.html", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("valid token", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/api/v1/integrations",
			map[string]string{AuthHeaderKey: BearerPrefix + issueToken(t, svc, tenantID)})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("skip paths", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/health", nil).Code)
		assert.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/swagger/index.html", nil).Code)
	})

	rejections := []struct {
		name     string
		header   string
		wantCode string
	}{
		{"missing header", "", "ERR_UNAUTHORIZED"},
		{"not bearer", "Basic abc", "ERR_UNAUTHORIZED"},
		{"garbage token", BearerPrefix + "garbage", "ERR_TOKEN_INVALID"},
	}
	for _, tt := range rejections {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers[AuthHeaderKey] = tt.header
			}
			rec := doRequest(router, http.MethodGet, "/api/v1/integrations", headers)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			if tt.name == "garbage token" {
				assert.Equal(t, tt.wantCode, errorCode(t, rec))
			}
		})
	}

	t.Run("expired token", func(t *testing.T) {
		expired := auth.NewJWTService(config.JWTConfig{
			Secret:                "test-secret-key-at-least-32-chars",
			Issuer:                "erp-backend",
			AccessTokenExpiration: -time.Minute,
		})
		rec := doRequest(router, http.MethodGet, "/api/v1/integrations",
			map[string]string{AuthHeaderKey: BearerPrefix + issueToken(t, expired, tenantID)})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "ERR_TOKEN_EXPIRED", errorCode(t, rec))
	})
}

func TestTenantMiddleware(t *testing.T) {
	svc := newTestJWTService()
	jwtTenant := uuid.New()
	headerTenant := uuid.New()

	newRouter := func(withJWT bool, cfg TenantMiddlewareConfig) *gin.Engine {
		router := gin.New()
		if withJWT {
			router.Use(JWTAuthMiddleware(svc))
		}
		router.Use(TenantMiddlewareWithConfig(cfg))
		router.GET("/api/v1/integrations", func(c *gin.Context) {
			id, err := GetTenantUUID(c)
			require.NoError(t, err)
			c.String(http.StatusOK, id.String())
		})
		router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
		return router
	}

	t.Run("header", func(t *testing.T) {
		rec := doRequest(newRouter(false, DefaultTenantConfig()), http.MethodGet, "/api/v1/integrations",
			map[string]string{TenantHeaderKey: headerTenant.String()})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, headerTenant.String(), rec.Body.String())
	})

	t.Run("jwt claim wins over header", func(t *testing.T) {
		rec := doRequest(newRouter(true, DefaultTenantConfig()), http.MethodGet, "/api/v1/integrations",
			map[string]string{
				AuthHeaderKey:   BearerPrefix + issueToken(t, svc, jwtTenant),
				TenantHeaderKey: headerTenant.String(),
			})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, jwtTenant.String(), rec.Body.String())
	})

	t.Run("header disabled", func(t *testing.T) {
		cfg := DefaultTenantConfig()
		cfg.HeaderEnabled = false
		rec := doRequest(newRouter(false, cfg), http.MethodGet, "/api/v1/integrations",
			map[string]string{TenantHeaderKey: headerTenant.String()})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing tenant", func(t *testing.T) {
		rec := doRequest(newRouter(false, DefaultTenantConfig()), http.MethodGet, "/api/v1/integrations", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "ERR_UNAUTHORIZED", errorCode(t, rec))
	})

	t.Run("optional tenant", func(t *testing.T) {
		cfg := DefaultTenantConfig()
		cfg.Required = false
		rec := doRequest(newRouter(false, cfg), http.MethodGet, "/api/v1/integrations", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, uuid.Nil.String(), rec.Body.String())
	})

	t.Run("malformed tenant", func(t *testing.T) {
		rec := doRequest(newRouter(false, DefaultTenantConfig()), http.MethodGet, "/api/v1/integrations",
			map[string]string{TenantHeaderKey: "acme"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("skip path", func(t *testing.T) {
		rec := doRequest(newRouter(false, DefaultTenantConfig()), http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRequireIntegrationAccess(t *testing.T) {
	svc := newTestJWTService()
	tenantID := uuid.New()

	router := gin.New()
	router.Use(JWTAuthMiddleware(svc), RequireIntegrationAccess(PermissionConfig{}))
	router.GET("/api/v1/integrations", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/api/v1/integrations/:id/sync", func(c *gin.Context) { c.Status(http.StatusAccepted) })

	tests := []struct {
		name   string
		method string
		path   string
		perms  []string
		want   int
	}{
		{"read allows list", http.MethodGet, "/api/v1/integrations", []string{PermissionIntegrationRead}, http.StatusOK},
		{"write implies read", http.MethodGet, "/api/v1/integrations", []string{PermissionIntegrationWrite}, http.StatusOK},
		{"read cannot sync", http.MethodPost, "/api/v1/integrations/x/sync", []string{PermissionIntegrationRead}, http.StatusForbidden},
		{"write can sync", http.MethodPost, "/api/v1/integrations/x/sync", []string{PermissionIntegrationWrite}, http.StatusAccepted},
		{"wildcard", http.MethodPost, "/api/v1/integrations/x/sync", []string{"*"}, http.StatusAccepted},
		{"no permissions", http.MethodGet, "/api/v1/integrations", nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(router, tt.method, tt.path,
				map[string]string{AuthHeaderKey: BearerPrefix + issueToken(t, svc, tenantID, tt.perms...)})
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusForbidden {
				assert.Equal(t, "ERR_FORBIDDEN", errorCode(t, rec))
			}
		})
	}

	t.Run("without claims", func(t *testing.T) {
		bare := gin.New()
		bare.Use(RequireIntegrationAccess(PermissionConfig{}))
		bare.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
		assert.Equal(t, http.StatusForbidden, doRequest(bare, http.MethodGet, "/x", nil).Code)
	})
}
