package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/erp/syncengine/internal/infrastructure/config"
	"github.com/erp/syncengine/internal/infrastructure/logger"
	"github.com/erp/syncengine/internal/infrastructure/telemetry"
	"github.com/erp/syncengine/internal/interfaces/http/handler"
	"github.com/erp/syncengine/internal/interfaces/http/middleware"
)

// Paths reachable without a bearer token
var publicAPIPaths = []string{"/api/v1/system/info"}

// EngineDeps are the collaborators of the HTTP engine
type EngineDeps struct {
	Config       *config.Config
	Logger       *zap.Logger
	Tokens       middleware.TokenValidator
	Meters       *telemetry.MeterProvider
	Integrations RouteRegistrar
	System       *handler.SystemHandler
}

// NewEngine builds the gin engine with the global middleware stack, the
// health and swagger routes and the versioned API.
func NewEngine(deps EngineDeps) *gin.Engine {
	cfg := deps.Config
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	middleware.SetupValidator()
	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	tracing := middleware.DefaultTracingConfig()
	tracing.Enabled = cfg.Telemetry.Enabled
	if cfg.Telemetry.ServiceName != "" {
		tracing.ServiceName = cfg.Telemetry.ServiceName
	}

	// Order matters: the request id must exist before the access log and the
	// span, and recovery must wrap everything below it.
	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.Tracing(tracing),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(deps.Meters),
		middleware.CORS(cors),
		middleware.Secure(cfg.App.Env == "production"),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	jwtConfig := middleware.DefaultJWTConfig(deps.Tokens)
	jwtConfig.SkipPaths = append(jwtConfig.SkipPaths, publicAPIPaths...)
	jwtConfig.Logger = log
	jwtAuth := middleware.JWTAuthMiddlewareWithConfig(jwtConfig)

	// the API chain skips /swagger, so the docs get their own validator
	swaggerAuth := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		Validator: deps.Tokens,
		Logger:    log,
	})

	engine.GET("/health", deps.System.Health)
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(cfg.Swagger, swaggerAuth),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	tenantConfig := middleware.DefaultTenantConfig()
	tenantConfig.SkipPaths = append(tenantConfig.SkipPaths, publicAPIPaths...)
	tenantConfig.Logger = log

	apiMiddleware := []gin.HandlerFunc{
		jwtAuth,
		middleware.TenantMiddlewareWithConfig(tenantConfig),
		middleware.TracingAttributeInjector(),
	}
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		apiMiddleware = append(apiMiddleware, middleware.RateLimit(limiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	MountAPI(engine, "v1", apiMiddleware,
		RegistrarFunc(func(rg *gin.RouterGroup) {
			rg.GET("/system/info", deps.System.GetSystemInfo)
		}),
		Guard(deps.Integrations, middleware.RequireIntegrationAccess(middleware.PermissionConfig{Logger: log})),
	)

	return engine
}
