package router

import (
	"time"

	"github.com/StoneFind22/CineMan/internal/infrastructure/config"
	"github.com/StoneFind22/CineMan/internal/infrastructure/logger"
	"github.com/StoneFind22/CineMan/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineConfig controls the middleware stack of the HTTP engine
type EngineConfig struct {
	ServiceName string
	HTTP        config.HTTPConfig
	Swagger     config.SwaggerConfig
	// MaxBodySize overrides HTTP.MaxBodySize, e.g. to admit import uploads
	MaxBodySize int64

	TracingEnabled   bool
	ProfilingEnabled bool
	Meter            metric.Meter

	// RateLimiter is used when HTTP.RateLimitEnabled is set. The caller
	// owns its cleanup loop.
	RateLimiter *middleware.RateLimiter
	Logger      *zap.Logger
}

// NewEngine builds the gin engine with the middleware stack, /health,
// /swagger and every handler group under /api/v1.
func NewEngine(cfg EngineConfig, handlers Handlers) *gin.Engine {
	log := cfg.Logger
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

	// Order matters: tracing needs the request ID, the span attributes need
	// the user, and metrics read the error code set by handlers.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.ServiceName,
		Enabled:     cfg.TracingEnabled,
	}))
	engine.Use(middleware.UserAttribution())
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(cfg.Meter))
	engine.Use(middleware.Profiling(cfg.ProfilingEnabled))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(corsConfig(cfg.HTTP)))

	maxBody := cfg.HTTP.MaxBodySize
	if cfg.MaxBodySize > maxBody {
		maxBody = cfg.MaxBodySize
	}
	if maxBody > 0 {
		engine.Use(middleware.BodyLimit(maxBody))
	}

	if cfg.HTTP.RateLimitEnabled && cfg.RateLimiter != nil {
		engine.Use(middleware.RateLimit(cfg.RateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	if handlers.System != nil {
		engine.GET("/health", handlers.System.Health)
	}
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:    cfg.Swagger.Enabled,
			AllowedIPs: cfg.Swagger.AllowedIPs,
		}),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	r := NewRouter(engine, WithAPIVersion("v1"))
	for _, group := range handlers.Groups() {
		r.Register(group)
	}
	r.Setup()

	return engine
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	if len(cfg.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = cfg.CORSAllowOrigins
	}
	if len(cfg.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.CORSAllowHeaders
	}
	cors.MaxAge = 12 * time.Hour
	return cors
}
