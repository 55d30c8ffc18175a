package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mantenix/inventory-service/pkg/logging"
)

const (
	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"
)

const (
	ContextKeyRequestID     = "requestId"
	ContextKeyCorrelationID = "correlationId"
	ContextKeyTraceID       = "traceId"
)

// RequestContext assigns every request an ID and a correlation ID, echoing
// both as response headers. A caller-supplied X-Request-ID is kept. The
// correlation ID falls back to the request ID so events staged while serving
// the request can be tied back to it.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := headerOrNew(c, HeaderRequestID, "")
		correlationID := headerOrNew(c, HeaderCorrelationID, requestID)

		c.Set(ContextKeyRequestID, requestID)
		c.Set(ContextKeyCorrelationID, correlationID)
		c.Header(HeaderRequestID, requestID)
		c.Header(HeaderCorrelationID, correlationID)

		ctx := logging.ContextWithRequestID(c.Request.Context(), requestID)
		ctx = logging.ContextWithCorrelationID(ctx, correlationID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func headerOrNew(c *gin.Context, header, fallback string) string {
	if v := c.GetHeader(header); v != "" {
		return v
	}
	if fallback != "" {
		return fallback
	}
	return uuid.NewString()
}

// GetRequestID returns the ID assigned by RequestContext
func GetRequestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}

func getCorrelationID(c *gin.Context) string {
	return c.GetString(ContextKeyCorrelationID)
}
