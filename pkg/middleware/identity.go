package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/mantenix/inventory-service/pkg/errors"
	"github.com/mantenix/inventory-service/pkg/logging"
	"github.com/mantenix/inventory-service/pkg/tenant"
)

// Identity headers set by the gateway after authentication
const (
	HeaderUserID         = "X-User-ID"
	HeaderCompanyID      = "X-Company-ID"
	HeaderCompanyGroupID = "X-Company-Group-ID"
	HeaderUserRole       = "X-User-Role"
)

const contextKeyIdentity = "identity"

// Identity is the authenticated caller as forwarded by the gateway
type Identity struct {
	UserID string
	Role   string
	Scope  tenant.Scope
}

// RequireIdentity rejects requests without a user and company, and stores the
// Identity on the gin context and the tenant scope on the request context.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := Identity{
			UserID: c.GetHeader(HeaderUserID),
			Role:   c.GetHeader(HeaderUserRole),
			Scope:  tenant.NewScope(c.GetHeader(HeaderCompanyID), c.GetHeader(HeaderCompanyGroupID)),
		}

		if id.UserID == "" {
			AbortWithAppError(c, errors.ErrUnauthorized("missing "+HeaderUserID+" header"))
			return
		}
		if err := id.Scope.Validate(); err != nil {
			AbortWithAppError(c, errors.ErrUnauthorized("missing "+HeaderCompanyID+" header"))
			return
		}

		c.Set(contextKeyIdentity, id)

		ctx := tenant.ToContext(c.Request.Context(), id.Scope)
		ctx = logging.ContextWithUserID(ctx, id.UserID)
		ctx = logging.ContextWithCompanyID(ctx, id.Scope.CompanyID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetIdentity returns the caller identity set by RequireIdentity
func GetIdentity(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(contextKeyIdentity)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}
