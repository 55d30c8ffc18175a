package openapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/getkin/kin-openapi/routers"
	"github.com/gin-gonic/gin"

	apperrors "github.com/mantenix/inventory-service/pkg/errors"
	"github.com/mantenix/inventory-service/pkg/middleware"
)

// CodeContractViolation is returned when a request does not match the document
const CodeContractViolation = "CONTRACT_VIOLATION"

// RequestValidator rejects requests that violate the OpenAPI document with 400.
// Routes the document does not describe pass through untouched.
func RequestValidator(v *Validator, logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		err := v.ValidateRequest(c.Request.Context(), c.Request)
		if err == nil || errors.Is(err, ErrRouteNotFound) || errors.Is(err, routers.ErrMethodNotAllowed) {
			c.Next()
			return
		}

		logger.Debug("Request failed contract validation",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
		)
		appErr := apperrors.NewAppError(CodeContractViolation, err.Error(), http.StatusBadRequest)
		middleware.AbortWithAppError(c, appErr)
	}
}
