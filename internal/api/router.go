package api

import (
	"context"
	_ "embed"

	"github.com/gin-gonic/gin"

	"github.com/mantenix/inventory-service/internal/api/handlers"
	"github.com/mantenix/inventory-service/pkg/contracts/openapi"
	"github.com/mantenix/inventory-service/pkg/idempotency"
	"github.com/mantenix/inventory-service/pkg/logging"
	"github.com/mantenix/inventory-service/pkg/metrics"
	"github.com/mantenix/inventory-service/pkg/middleware"
)

// OpenAPISpec is the contract served under /api/v1
//
//go:embed openapi.yaml
var OpenAPISpec []byte

// RouterConfig holds the optional pieces of the HTTP stack. Nil fields are
// left out of the chain.
type RouterConfig struct {
	ServiceName string
	Logger      *logging.Logger
	Metrics     *metrics.Metrics
	Tracing     bool

	// Contract rejects requests that do not match OpenAPISpec
	Contract *openapi.Validator

	// Idempotency guards the manual stock adjust and transfer endpoints
	Idempotency *idempotency.Config

	// Ready backs /ready
	Ready func(ctx context.Context) error
}

// NewRouter builds the gin engine with the standard middleware, operational
// endpoints and the /api/v1 resources.
func NewRouter(h *handlers.Handlers, cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.Ready == nil {
		cfg.Ready = func(context.Context) error { return nil }
	}

	router := gin.New()
	middleware.Setup(router, middleware.DefaultConfig(cfg.ServiceName, cfg.Logger.Logger))
	if cfg.Metrics != nil {
		router.Use(middleware.MetricsMiddleware(cfg.Metrics))
	}
	if cfg.Tracing {
		router.Use(middleware.TracingMiddleware(middleware.DefaultTracingConfig(cfg.ServiceName)))
	}

	router.GET("/health", middleware.HealthCheck(cfg.ServiceName))
	router.GET("/ready", middleware.ReadinessCheck(cfg.ServiceName, cfg.Ready))
	if cfg.Metrics != nil {
		router.GET("/metrics", middleware.MetricsEndpoint(cfg.Metrics))
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RequireIdentity())
	if cfg.Contract != nil {
		v1.Use(openapi.RequestValidator(cfg.Contract, cfg.Logger.Logger))
	}

	var stockWrites []gin.HandlerFunc
	if cfg.Idempotency != nil {
		if cfg.Idempotency.ScopeExtractor == nil {
			cfg.Idempotency.ScopeExtractor = identityScope
		}
		stockWrites = append(stockWrites, idempotency.Middleware(cfg.Idempotency))
	}
	h.RegisterRoutes(v1, stockWrites...)

	return router
}

// identityScope keys idempotency records by caller so two users never
// replay each other's responses.
func identityScope(c *gin.Context) string {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		return ""
	}
	return id.Scope.CompanyID + "/" + id.UserID
}
