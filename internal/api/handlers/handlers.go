package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mantenix/inventory-service/internal/application"
	"github.com/mantenix/inventory-service/internal/domain"
	"github.com/mantenix/inventory-service/pkg/api"
	"github.com/mantenix/inventory-service/pkg/errors"
	"github.com/mantenix/inventory-service/pkg/logging"
	"github.com/mantenix/inventory-service/pkg/middleware"
)

// RequestService is the inventory request workflow
type RequestService interface {
	Create(ctx context.Context, session domain.Session, cmd application.CreateRequestCommand) (*domain.InventoryRequest, error)
	Update(ctx context.Context, session domain.Session, id string, changes domain.RequestChanges) (*domain.InventoryRequest, error)
	Approve(ctx context.Context, session domain.Session, cmd application.ApproveRequestCommand) (*domain.InventoryRequest, error)
	Reject(ctx context.Context, session domain.Session, cmd application.ReviewCommand) (*domain.InventoryRequest, error)
	Cancel(ctx context.Context, session domain.Session, cmd application.ReviewCommand) (*domain.InventoryRequest, error)
	DeliverFromWarehouse(ctx context.Context, session domain.Session, id string) (*domain.InventoryRequest, error)
	ReceiveAtDestination(ctx context.Context, session domain.Session, id string) (*domain.InventoryRequest, error)
	ConfirmReceipt(ctx context.Context, session domain.Session, id string) (*domain.InventoryRequest, error)
	Get(ctx context.Context, session domain.Session, id string) (*application.RequestDetail, error)
	List(ctx context.Context, session domain.Session, f domain.RequestFilter, page domain.Page) ([]*domain.InventoryRequest, int64, error)
}

// ItemService is the item catalog
type ItemService interface {
	Create(ctx context.Context, session domain.Session, attrs domain.ItemAttributes) (*domain.InventoryItem, error)
	Update(ctx context.Context, session domain.Session, id string, attrs domain.ItemAttributes) (*domain.InventoryItem, error)
	Deactivate(ctx context.Context, session domain.Session, id string) (*domain.InventoryItem, error)
	Get(ctx context.Context, session domain.Session, id string) (*domain.InventoryItem, error)
	List(ctx context.Context, session domain.Session, f domain.ItemFilter, page domain.Page) ([]*domain.InventoryItem, int64, error)
}

// StockService reads and changes stock levels
type StockService interface {
	GetByItem(ctx context.Context, session domain.Session, itemID string) ([]application.StockView, error)
	GetByLocation(ctx context.Context, session domain.Session, loc domain.Location) ([]application.StockView, error)
	Adjust(ctx context.Context, session domain.Session, cmd application.AdjustStockCommand) (application.StockView, *domain.InventoryMovement, error)
	Transfer(ctx context.Context, session domain.Session, cmd application.TransferStockCommand) (*domain.InventoryMovement, error)
}

// MovementService reads the movement log
type MovementService interface {
	List(ctx context.Context, session domain.Session, f domain.MovementFilter, page domain.Page) ([]*domain.InventoryMovement, int64, error)
	Get(ctx context.Context, session domain.Session, id string) (*domain.InventoryMovement, error)
}

// Services groups the services the handlers call
type Services struct {
	Requests  RequestService
	Items     ItemService
	Stock     StockService
	Movements MovementService
}

// Handlers serves the /api/v1 resources
type Handlers struct {
	requests  RequestService
	items     ItemService
	stock     StockService
	movements MovementService
	logger    *logging.Logger
}

// New creates Handlers
func New(services Services, logger *logging.Logger) *Handlers {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handlers{
		requests:  services.Requests,
		items:     services.Items,
		stock:     services.Stock,
		movements: services.Movements,
		logger:    logger.WithComponent("http"),
	}
}

// RegisterRoutes registers every resource on router. stockWrites run before
// the manual adjust and transfer handlers.
func (h *Handlers) RegisterRoutes(router *gin.RouterGroup, stockWrites ...gin.HandlerFunc) {
	items := router.Group("/items")
	{
		items.POST("", h.CreateItem)
		items.GET("", h.ListItems)
		items.GET("/:id", h.GetItem)
		items.PUT("/:id", h.UpdateItem)
		items.DELETE("/:id", h.DeactivateItem)
	}

	requests := router.Group("/requests")
	{
		requests.POST("", h.CreateRequest)
		requests.GET("", h.ListRequests)
		requests.GET("/:id", h.GetRequest)
		requests.PUT("/:id", h.UpdateRequest)
		requests.POST("/:id/approve", h.ApproveRequest)
		requests.POST("/:id/reject", h.RejectRequest)
		requests.POST("/:id/cancel", h.CancelRequest)
		requests.POST("/:id/deliver", h.DeliverRequest)
		requests.POST("/:id/receive", h.ReceiveRequest)
		requests.POST("/:id/confirm", h.ConfirmRequest)
	}

	guarded := func(next gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, stockWrites...), next)
	}
	stock := router.Group("/stock")
	{
		stock.GET("/items/:itemId", h.GetStockByItem)
		stock.GET("/locations/:locationType/:locationId", h.GetStockByLocation)
		stock.POST("/adjust", guarded(h.AdjustStock)...)
		stock.POST("/transfer", guarded(h.TransferStock)...)
	}

	movements := router.Group("/movements")
	{
		movements.GET("", h.ListMovements)
		movements.GET("/:id", h.GetMovement)
	}
}

// session builds the acting session from the identity set by
// middleware.RequireIdentity, responding 401 when it is missing.
func (h *Handlers) session(c *gin.Context) (domain.Session, bool) {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		h.responder(c).RespondUnauthorized("")
		return domain.Session{}, false
	}
	return domain.Session{
		UserID:         id.UserID,
		Role:           id.Role,
		CompanyID:      id.Scope.CompanyID,
		CompanyGroupID: id.Scope.GroupID,
	}, true
}

func (h *Handlers) responder(c *gin.Context) *middleware.ErrorResponder {
	return middleware.NewErrorResponder(c, h.logger.Logger, application.ToAppError)
}

func (h *Handlers) fail(c *gin.Context, err error) {
	h.responder(c).RespondWithError(err)
}

func (h *Handlers) bind(c *gin.Context, obj interface{}) bool {
	if appErr := middleware.BindAndValidate(c, obj); appErr != nil {
		h.responder(c).RespondWithAppError(appErr)
		return false
	}
	return true
}

func page(c *gin.Context) (api.PageRequest, domain.Page) {
	p := api.ParsePagination(c)
	return p, domain.Page{Number: p.Page, Size: p.PageSize}
}

const dateLayout = "2006-01-02"

// timeRange reads the from and to query parameters. Both accept RFC 3339 or
// a plain date; a plain-date "to" covers that whole day.
func timeRange(c *gin.Context) (from, to *time.Time, appErr *errors.AppError) {
	parse := func(name string, endOfDay bool) (*time.Time, *errors.AppError) {
		raw := strings.TrimSpace(c.Query(name))
		if raw == "" {
			return nil, nil
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, errors.ErrValidationWithFields("invalid query parameters", map[string]string{
				name: "must be an RFC 3339 timestamp or a YYYY-MM-DD date",
			})
		}
		if endOfDay {
			t = t.Add(24*time.Hour - time.Millisecond)
		}
		return &t, nil
	}

	if from, appErr = parse("from", false); appErr != nil {
		return nil, nil, appErr
	}
	if to, appErr = parse("to", true); appErr != nil {
		return nil, nil, appErr
	}
	return from, to, nil
}

// listValues reads a repeatable, comma-separable query parameter
func listValues(c *gin.Context, name string) []string {
	var out []string
	for _, v := range c.QueryArray(name) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func respondPage[T any](c *gin.Context, data []T, p api.PageRequest, total int64) {
	c.JSON(http.StatusOK, api.NewPageResponse(data, p, total))
}
