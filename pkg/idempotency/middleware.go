package idempotency

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mantenix/inventory-service/pkg/errors"
	"github.com/mantenix/inventory-service/pkg/middleware"
)

const (
	// HeaderIdempotencyKey is the request header carrying the key
	HeaderIdempotencyKey = "Idempotency-Key"

	// HeaderReplayed marks responses served from the cache
	HeaderReplayed = "Idempotent-Replayed"
)

// Error codes returned by the middleware
const (
	CodeKeyRequired        = "IDEMPOTENCY_KEY_REQUIRED"
	CodeKeyInvalid         = "IDEMPOTENCY_KEY_INVALID"
	CodeParameterMismatch  = "IDEMPOTENCY_PARAMETER_MISMATCH"
	CodeConcurrentRequest  = "IDEMPOTENCY_CONCURRENT_REQUEST"
	CodeStorageUnavailable = "IDEMPOTENCY_STORAGE_UNAVAILABLE"
)

type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Middleware replays the stored response for a repeated Idempotency-Key.
// Responses with a 5xx status are not cached, so the client may retry them.
func Middleware(config *Config) gin.HandlerFunc {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		key := NormalizeKey(c.GetHeader(HeaderIdempotencyKey))
		if key == "" {
			if config.RequireKey {
				middleware.AbortWithAppError(c, errors.NewAppError(CodeKeyRequired,
					"Idempotency-Key header is required for this operation", http.StatusBadRequest))
				return
			}
			c.Next()
			return
		}

		if err := ValidateKey(key, config.MaxKeyLength); err != nil {
			middleware.AbortWithAppError(c, errors.NewAppError(CodeKeyInvalid,
				fmt.Sprintf("Invalid idempotency key: %v", err), http.StatusBadRequest))
			return
		}

		var body []byte
		if c.Request.Body != nil {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		var scope string
		if config.ScopeExtractor != nil {
			scope = config.ScopeExtractor(c)
		}

		now := time.Now().UTC()
		candidate := &Key{
			ID:                 uuid.New().String(),
			Key:                key,
			Scope:              scope,
			ServiceID:          config.ServiceName,
			RequestPath:        c.Request.URL.Path,
			RequestMethod:      c.Request.Method,
			RequestFingerprint: ComputeFingerprint(c.Request.Method, c.Request.URL.Path, body),
			LockedAt:           &now,
			CreatedAt:          now,
			ExpiresAt:          now.Add(config.RetentionPeriod),
		}

		ctx := c.Request.Context()
		log := logger.With("key", key, "service", config.ServiceName, "path", c.Request.URL.Path)

		existing, created, err := config.Repository.AcquireLock(ctx, candidate)
		if err != nil {
			log.Error("Failed to acquire idempotency lock", "error", err)
			record(config, "storage_error")
			middleware.AbortWithAppError(c, errors.NewAppError(CodeStorageUnavailable,
				"Idempotency storage is temporarily unavailable", http.StatusServiceUnavailable))
			return
		}

		if !created {
			if existing.RequestFingerprint != candidate.RequestFingerprint {
				log.Warn("Idempotency parameter mismatch")
				record(config, "mismatch")
				middleware.AbortWithAppError(c, errors.NewAppError(CodeParameterMismatch,
					"Request parameters differ from original request with this idempotency key", http.StatusUnprocessableEntity))
				return
			}

			if existing.IsCompleted() {
				log.Info("Idempotency cache hit", "statusCode", existing.ResponseCode)
				record(config, "hit")
				for k, v := range existing.ResponseHeaders {
					c.Header(k, v)
				}
				c.Header(HeaderReplayed, "true")
				c.Data(existing.ResponseCode, "application/json; charset=utf-8", existing.ResponseBody)
				c.Abort()
				return
			}

			if existing.IsLockedAt(now, config.LockTimeout) {
				record(config, "conflict")
				middleware.AbortWithAppError(c, errors.NewAppError(CodeConcurrentRequest,
					"A request with this idempotency key is currently being processed", http.StatusConflict))
				return
			}

			ok, err := config.Repository.TakeOver(ctx, existing.ID, now.Add(-config.LockTimeout))
			if err != nil || !ok {
				record(config, "conflict")
				middleware.AbortWithAppError(c, errors.NewAppError(CodeConcurrentRequest,
					"A request with this idempotency key is currently being processed", http.StatusConflict))
				return
			}
			log.Info("Took over stale idempotency lock")
		}

		keyID := existing.ID
		record(config, "miss")

		writer := &responseWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer

		c.Next()

		status := writer.Status()
		if status >= http.StatusInternalServerError {
			if err := config.Repository.ReleaseLock(ctx, keyID); err != nil {
				log.Error("Failed to release idempotency lock", "error", err)
			}
			return
		}

		responseBody := writer.body.Bytes()
		if len(responseBody) > config.MaxResponseSize {
			log.Warn("Response too large to cache", "size", len(responseBody))
			responseBody = []byte(fmt.Sprintf(`{"code":"RESPONSE_NOT_CACHED","size":%d}`, len(responseBody)))
		}

		if err := config.Repository.StoreResponse(ctx, keyID, status, responseBody, responseHeaders(c)); err != nil {
			log.Error("Failed to store idempotency response", "error", err)
			record(config, "storage_error")
		}
	}
}

func record(config *Config, result string) {
	if config.Metrics != nil {
		config.Metrics.RecordIdempotency(result)
	}
}

func responseHeaders(c *gin.Context) map[string]string {
	headers := make(map[string]string)
	for k, v := range c.Writer.Header() {
		if len(v) > 0 && k != "Content-Length" && k != "Content-Type" {
			headers[k] = v[0]
		}
	}
	return headers
}
