package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

var probePaths = []string{"/health", "/ready", "/metrics"}

func pathSet(paths []string) map[string]struct{} {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return set
}

// AccessLog writes one structured line per request. Probe endpoints are not
// logged. Server errors log at error, client errors at warn.
func AccessLog(logger *slog.Logger) gin.HandlerFunc {
	skip := pathSet(probePaths)

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		status := c.Writer.Status()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", c.FullPath(),
			"status", status,
			"latencyMs", time.Since(start).Milliseconds(),
			"clientIP", c.ClientIP(),
			"requestId", GetRequestID(c),
			"correlationId", getCorrelationID(c),
		}
		if q := c.Request.URL.RawQuery; q != "" {
			attrs = append(attrs, "query", q)
		}
		if id, ok := GetIdentity(c); ok {
			attrs = append(attrs, "userId", id.UserID, "companyId", id.Scope.CompanyID)
		}
		if traceID := c.GetString(ContextKeyTraceID); traceID != "" {
			attrs = append(attrs, "traceId", traceID)
		}

		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		} else if status >= 400 {
			level = slog.LevelWarn
		}
		logger.Log(c.Request.Context(), level, "HTTP request", attrs...)
	}
}
