package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Config holds middleware configuration
type Config struct {
	Logger      *slog.Logger
	ServiceName string
	// AllowedOrigins enables CORS for the listed origins. "*" allows any.
	AllowedOrigins []string
}

// DefaultConfig returns a config that allows any origin
func DefaultConfig(serviceName string, logger *slog.Logger) *Config {
	return &Config{
		Logger:         logger,
		ServiceName:    serviceName,
		AllowedOrigins: []string{"*"},
	}
}

// Setup installs the standard chain on router. Order matters: recovery
// first so panics anywhere below are rendered, request IDs before anything
// that logs.
func Setup(router *gin.Engine, config *Config) {
	InitValidator()

	router.Use(
		Recovery(config.Logger),
		RequestContext(),
		AccessLog(config.Logger),
		InputSanitizer(),
	)
	if len(config.AllowedOrigins) > 0 {
		router.Use(CORS(config.AllowedOrigins))
	}
	router.Use(ContentType(), ErrorHandler(config.Logger))

	router.HandleMethodNotAllowed = true
	router.NoRoute(func(c *gin.Context) {
		writeRouteError(c, http.StatusNotFound, "ROUTE_NOT_FOUND", "The requested resource was not found")
	})
	router.NoMethod(func(c *gin.Context) {
		writeRouteError(c, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "The request method is not supported for this resource")
	})
}

func writeRouteError(c *gin.Context, status int, code, message string) {
	c.JSON(status, APIErrorResponse{
		Code:      code,
		Message:   message,
		RequestID: GetRequestID(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      c.Request.URL.Path,
	})
}

// CORS allows the listed origins. A "*" entry allows any origin.
func CORS(origins []string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization",
			HeaderRequestID, HeaderCorrelationID,
			HeaderUserID, HeaderCompanyID, HeaderCompanyGroupID, HeaderUserRole,
			"Idempotency-Key",
		},
		ExposeHeaders: []string{HeaderRequestID, HeaderCorrelationID, "Idempotent-Replayed"},
		MaxAge:        24 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
	}
	return cors.New(config)
}

// HealthCheck reports liveness
func HealthCheck(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": serviceName})
	}
}

// ReadinessCheck answers 503 while check fails. check gets two seconds.
func ReadinessCheck(serviceName string, check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := check(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not ready",
				"service": serviceName,
				"error":   err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "service": serviceName})
	}
}
