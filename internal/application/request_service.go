package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/mantenix/inventory-service/internal/domain"
	"github.com/mantenix/inventory-service/pkg/logging"
)

// RequestService drives the inventory request lifecycle. Approval is the only
// step that touches the ledger; it selects a source, transfers and flips the
// status in one transaction.
type RequestService struct {
	repo      domain.RequestRepository
	items     domain.ItemRepository
	ledger    *StockLedger
	engine    *TransferEngine
	movements *MovementLog
	resolver  *LocationResolver
	directory Directory
	authz     Authorizer
	tx        Transactor
	events    EventPublisher
	metrics   Recorder
	clock     Clock
	logger    *logging.Logger
}

// RequestServiceDeps groups RequestService collaborators
type RequestServiceDeps struct {
	Requests  domain.RequestRepository
	Items     domain.ItemRepository
	Ledger    *StockLedger
	Engine    *TransferEngine
	Movements *MovementLog
	Resolver  *LocationResolver
	Directory Directory
	Authz     Authorizer
	Tx        Transactor
	Events    EventPublisher
	Metrics   Recorder
	Clock     Clock
	Logger    *logging.Logger
}

// NewRequestService creates a RequestService
func NewRequestService(deps RequestServiceDeps) *RequestService {
	if deps.Events == nil {
		deps.Events = NopPublisher
	}
	if deps.Metrics == nil {
		deps.Metrics = NopRecorder
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	return &RequestService{
		repo:      deps.Requests,
		items:     deps.Items,
		ledger:    deps.Ledger,
		engine:    deps.Engine,
		movements: deps.Movements,
		resolver:  deps.Resolver,
		directory: deps.Directory,
		authz:     deps.Authz,
		tx:        deps.Tx,
		events:    deps.Events,
		metrics:   deps.Metrics,
		clock:     deps.Clock,
		logger:    deps.Logger.WithComponent("request-service"),
	}
}

// Create opens a PENDING request. The destination comes from the work order's
// site, or the requester's company when the work order has none.
func (s *RequestService) Create(ctx context.Context, session domain.Session, cmd CreateRequestCommand) (*domain.InventoryRequest, error) {
	if err := requireCapability(ctx, s.authz, session, domain.CapCreateRequest); err != nil {
		return nil, err
	}

	workOrder, err := s.directory.WorkOrder(ctx, cmd.WorkOrderID)
	if err != nil {
		return nil, fmt.Errorf("work order lookup: %w", err)
	}
	if workOrder.CompanyID != "" && !session.Scope().Covers(workOrder.CompanyID, workOrder.CompanyGroupID) {
		return nil, domain.NewNotFoundError("work order", cmd.WorkOrderID)
	}
	requester, err := s.directory.User(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("requester lookup: %w", err)
	}

	item, err := s.items.FindByID(ctx, cmd.InventoryItemID)
	if err != nil {
		return nil, err
	}
	if !item.IsActive || !session.Scope().Covers(item.CompanyID, item.CompanyGroupID) {
		return nil, domain.NewNotFoundError("inventory item", cmd.InventoryItemID)
	}

	companyID, groupID := workOrder.CompanyID, workOrder.CompanyGroupID
	if companyID == "" {
		companyID, groupID = requester.CompanyID, requester.CompanyGroupID
	}

	source := cmd.Source.Normalize()
	if err := s.checkSourceOwner(ctx, item.ID, source); err != nil {
		return nil, err
	}

	req, err := domain.NewInventoryRequest(domain.NewRequestParams{
		WorkOrderID:    cmd.WorkOrderID,
		Item:           item,
		Quantity:       cmd.Quantity,
		Urgency:        cmd.Urgency,
		Source:         source,
		Destination:    s.resolver.ResolveDestination(workOrder, requester),
		RequestedBy:    session.UserID,
		Notes:          cmd.Notes,
		CompanyID:      companyID,
		CompanyGroupID: groupID,
	}, s.clock())
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, req); err != nil {
			return err
		}
		return s.events.Publish(txCtx, req.GetDomainEvents()...)
	})
	if err != nil {
		return nil, err
	}
	req.ClearDomainEvents()

	s.metrics.RecordRequestTransition(string(req.Status))
	s.logger.Audit(ctx, "create", "inventory_request", req.ID, session.UserID, map[string]any{
		"workOrderId":     req.WorkOrderID,
		"inventoryItemId": req.InventoryItemID,
		"quantity":        req.QuantityRequested,
		"destination":     req.Destination().String(),
	})
	return req, nil
}

// Update edits quantity, urgency or notes of a PENDING request
func (s *RequestService) Update(ctx context.Context, session domain.Session, id string, changes domain.RequestChanges) (*domain.InventoryRequest, error) {
	if err := requireCapability(ctx, s.authz, session, domain.CapUpdateRequest); err != nil {
		return nil, err
	}
	return s.mutate(ctx, session, id, "update", func(txCtx context.Context, r *domain.InventoryRequest) error {
		if err := s.refuseIfTransferred(txCtx, r); err != nil {
			return err
		}
		return r.Update(changes, session.UserID, s.clock())
	})
}

// Approve transfers the approved quantity and marks the request APPROVED.
// A request whose transfer was already recorded is approved from that
// movement without moving stock again.
func (s *RequestService) Approve(ctx context.Context, session domain.Session, cmd ApproveRequestCommand) (*domain.InventoryRequest, error) {
	if err := requireCapability(ctx, s.authz, session, domain.CapApproveRequest); err != nil {
		return nil, err
	}
	return s.mutate(ctx, session, cmd.RequestID, "approve", func(txCtx context.Context, r *domain.InventoryRequest) error {
		recorded, err := s.movements.FindByRequest(txCtx, r.ID)
		switch {
		case err == nil:
			s.logger.WithContext(ctx).Info("Approving from recorded transfer",
				"requestId", r.ID,
				"movementId", recorded.ID,
			)
			return r.MarkApprovedFromMovement(recorded, s.clock())
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}

		qty, err := r.ApprovalQuantity(cmd.QuantityApproved)
		if err != nil {
			return err
		}

		stocks, err := s.ledger.FindAllForItem(txCtx, r.InventoryItemID)
		if err != nil {
			return err
		}
		source, err := SelectSource(stocks, r.Source(), r.Destination(), r.InventoryItemID, qty)
		if err != nil {
			return err
		}
		from := source.Location()

		if _, err := s.engine.Transfer(txCtx, domain.TransferCommand{
			InventoryItemID: r.InventoryItemID,
			From:            from,
			To:              r.Destination(),
			Quantity:        qty,
			Reason:          fmt.Sprintf("Inventory request %s", r.ID),
			WorkOrderID:     r.WorkOrderID,
			RequestID:       r.ID,
			ActorID:         session.UserID,
			CompanyID:       r.CompanyID,
			CompanyGroupID:  r.CompanyGroupID,
		}); err != nil {
			return err
		}
		return r.Approve(session.UserID, qty, cmd.Notes, from, s.clock())
	})
}

// Reject closes a PENDING request without touching stock
func (s *RequestService) Reject(ctx context.Context, session domain.Session, cmd ReviewCommand) (*domain.InventoryRequest, error) {
	if err := requireCapability(ctx, s.authz, session, domain.CapRejectRequest); err != nil {
		return nil, err
	}
	return s.mutate(ctx, session, cmd.RequestID, "reject", func(txCtx context.Context, r *domain.InventoryRequest) error {
		if err := s.refuseIfTransferred(txCtx, r); err != nil {
			return err
		}
		return r.Reject(session.UserID, cmd.Notes, s.clock())
	})
}

// Cancel withdraws a PENDING request
func (s *RequestService) Cancel(ctx context.Context, session domain.Session, cmd ReviewCommand) (*domain.InventoryRequest, error) {
	if err := requireCapability(ctx, s.authz, session, domain.CapDeleteRequest); err != nil {
		return nil, err
	}
	return s.mutate(ctx, session, cmd.RequestID, "cancel", func(txCtx context.Context, r *domain.InventoryRequest) error {
		if err := s.refuseIfTransferred(txCtx, r); err != nil {
			return err
		}
		return r.Cancel(session.UserID, cmd.Notes, s.clock())
	})
}

// DeliverFromWarehouse records the handoff at the source. The actor must
// belong to the source company.
func (s *RequestService) DeliverFromWarehouse(ctx context.Context, session domain.Session, id string) (*domain.InventoryRequest, error) {
	if err := requireCapability(ctx, s.authz, session, domain.CapDeliverFromSource); err != nil {
		return nil, err
	}
	return s.mutate(ctx, session, id, "deliver", func(txCtx context.Context, r *domain.InventoryRequest) error {
		if err := s.requireMembership(txCtx, session, r.SourceOwner()); err != nil {
			return err
		}
		return r.DeliverFromWarehouse(session.UserID, s.clock())
	})
}

// ReceiveAtDestination records arrival of an inter-company request. The actor
// must belong to the destination company.
func (s *RequestService) ReceiveAtDestination(ctx context.Context, session domain.Session, id string) (*domain.InventoryRequest, error) {
	if err := requireCapability(ctx, s.authz, session, domain.CapReceiveAtDest); err != nil {
		return nil, err
	}
	return s.mutate(ctx, session, id, "receive", func(txCtx context.Context, r *domain.InventoryRequest) error {
		if err := s.requireMembership(txCtx, session, r.DestinationOwner()); err != nil {
			return err
		}
		return r.ReceiveAtDestination(session.UserID, s.clock())
	})
}

// ConfirmReceipt closes the request. The actor needs the capability; anyone
// other than the requester must also belong to the request's company.
func (s *RequestService) ConfirmReceipt(ctx context.Context, session domain.Session, id string) (*domain.InventoryRequest, error) {
	if err := requireCapability(ctx, s.authz, session, domain.CapConfirmReceipt); err != nil {
		return nil, err
	}
	return s.mutate(ctx, session, id, "confirm", func(txCtx context.Context, r *domain.InventoryRequest) error {
		if r.RequestedBy != session.UserID {
			if err := s.requireMembership(txCtx, session, r.CompanyID); err != nil {
				return err
			}
		}
		return r.ConfirmReceipt(session.UserID, s.clock())
	})
}

// Get returns a request with resolved location names
func (s *RequestService) Get(ctx context.Context, session domain.Session, id string) (*RequestDetail, error) {
	r, err := s.load(ctx, session, id)
	if err != nil {
		return nil, err
	}
	detail := &RequestDetail{
		InventoryRequest:        r,
		DestinationLocationName: s.resolver.ResolveName(ctx, r.Destination()),
	}
	if source := r.Source(); !source.IsZero() {
		detail.SourceLocationName = s.resolver.ResolveName(ctx, source)
	}
	return detail, nil
}

// List returns one page of requests visible to the session
func (s *RequestService) List(ctx context.Context, session domain.Session, f domain.RequestFilter, page domain.Page) ([]*domain.InventoryRequest, int64, error) {
	return s.repo.List(ctx, f, session.Scope(), page)
}

// refuseIfTransferred blocks edits to a PENDING request whose stock already
// moved. Only approval, directly or through reconciliation, may follow.
func (s *RequestService) refuseIfTransferred(ctx context.Context, r *domain.InventoryRequest) error {
	recorded, err := s.movements.FindByRequest(ctx, r.ID)
	switch {
	case err == nil:
		return fmt.Errorf("%w: transfer %s for request %s is already recorded", domain.ErrRequestNotEditable, recorded.ID, r.ID)
	case errors.Is(err, domain.ErrNotFound):
		return nil
	default:
		return err
	}
}

// checkSourceOwner rejects an explicit source whose owning company
// contradicts the stated one.
func (s *RequestService) checkSourceOwner(ctx context.Context, itemID string, source domain.Location) error {
	if source.IsZero() || source.CompanyID == "" {
		return nil
	}
	owner := ""
	if source.Type == domain.LocationWarehouse {
		owner = source.ID
	} else {
		stock, err := s.ledger.Get(ctx, itemID, source)
		switch {
		case err == nil:
			owner = stock.SourceCompanyID()
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}
	}
	if owner != "" && owner != source.CompanyID {
		return fmt.Errorf("%w: source %s belongs to company %s, not %s", domain.ErrInvalidInput, source, owner, source.CompanyID)
	}
	return nil
}

// mutate loads the request, applies fn and writes it back conditioned on the
// status and version it was loaded with, all in one transaction.
func (s *RequestService) mutate(ctx context.Context, session domain.Session, id, action string, fn func(txCtx context.Context, r *domain.InventoryRequest) error) (*domain.InventoryRequest, error) {
	var (
		req    *domain.InventoryRequest
		before domain.RequestStatus
	)
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		r, err := s.load(txCtx, session, id)
		if err != nil {
			return err
		}
		pre := r.Precondition()
		if err := fn(txCtx, r); err != nil {
			return err
		}
		if err := s.repo.Update(txCtx, r, pre); err != nil {
			if errors.Is(err, domain.ErrConcurrentModification) {
				return fmt.Errorf("%w: %w", domain.ErrRequestNotEditable, err)
			}
			return err
		}
		if err := s.events.Publish(txCtx, r.GetDomainEvents()...); err != nil {
			return err
		}
		r.ClearDomainEvents()
		req, before = r, pre.Status
		return nil
	})
	if err != nil {
		s.logger.WithContext(ctx).Warn("Request "+action+" failed",
			"requestId", id,
			"userId", session.UserID,
			"error", err,
		)
		return nil, err
	}

	if req.Status != before {
		s.metrics.RecordRequestTransition(string(req.Status))
	}
	s.logger.Audit(ctx, action, "inventory_request", req.ID, session.UserID, map[string]any{
		"from":    string(before),
		"status":  string(req.Status),
		"version": req.Version,
	})
	return req, nil
}

// load returns the request when the session's scope covers it or the session
// belongs to one of the companies the stock moves between.
func (s *RequestService) load(ctx context.Context, session domain.Session, id string) (*domain.InventoryRequest, error) {
	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Scope().Covers(r.CompanyID, r.CompanyGroupID) {
		return r, nil
	}
	if session.CompanyID != "" && (session.CompanyID == r.SourceCompanyID || session.CompanyID == r.DestinationOwner()) {
		return r, nil
	}
	return nil, domain.NewNotFoundError("inventory request", id)
}

func (s *RequestService) requireMembership(ctx context.Context, session domain.Session, companyID string) error {
	user, err := s.directory.User(ctx, session.UserID)
	if err != nil {
		return fmt.Errorf("user lookup: %w", err)
	}
	if user.CompanyID != companyID {
		return fmt.Errorf("%w: %s does not belong to company %s", domain.ErrForbidden, session.UserID, companyID)
	}
	return nil
}
