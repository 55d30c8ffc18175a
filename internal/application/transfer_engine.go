package application

import (
	"context"
	"errors"
	"time"

	"github.com/mantenix/inventory-service/internal/domain"
	"github.com/mantenix/inventory-service/pkg/logging"
)

// TransferEngine moves stock between two locations as one atomic unit:
// decrement the source, increment the destination, append one TRANSFER
// movement.
type TransferEngine struct {
	stock     domain.StockRepository
	movements *MovementLog
	resolver  *LocationResolver
	tx        Transactor
	events    EventPublisher
	metrics   Recorder
	clock     Clock
	logger    *logging.Logger
}

// NewTransferEngine creates a TransferEngine
func NewTransferEngine(deps LedgerDeps) *TransferEngine {
	deps = deps.withDefaults()
	return &TransferEngine{
		stock:     deps.Stock,
		movements: deps.Movements,
		resolver:  deps.Resolver,
		tx:        deps.Tx,
		events:    deps.Events,
		metrics:   deps.Metrics,
		clock:     deps.Clock,
		logger:    deps.Logger.WithComponent("transfer-engine"),
	}
}

// Transfer moves cmd.Quantity units. An insufficient source surfaces
// unchanged; any later failure rolls the decrement back and surfaces as a
// *domain.TransferError.
func (e *TransferEngine) Transfer(ctx context.Context, cmd domain.TransferCommand) (*domain.InventoryMovement, error) {
	cmd.From = cmd.From.Normalize()
	cmd.To = cmd.To.Normalize()
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	toName := e.resolver.ResolveName(ctx, cmd.To)
	start := time.Now()

	var movement *domain.InventoryMovement
	err := e.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		source, err := e.stock.Decrement(txCtx, cmd.InventoryItemID, cmd.From, cmd.Quantity)
		if err != nil {
			return err
		}
		from := cmd
		if from.From.CompanyID == "" {
			from.From.CompanyID = source.SourceCompanyID()
		}

		if _, err := e.stock.Increment(txCtx, cmd.InventoryItemID, cmd.To, toName, cmd.Quantity); err != nil {
			return &domain.TransferError{Step: "increment", Err: err}
		}

		movement = domain.NewTransferMovement(from, source.LocationName, toName, e.clock())
		if err := e.movements.Record(txCtx, movement); err != nil {
			if errors.Is(err, domain.ErrRequestNotEditable) {
				return err
			}
			return &domain.TransferError{Step: "record", Err: err}
		}

		if err := e.events.Publish(txCtx, domain.NewStockMovedEvent(movement)); err != nil {
			return &domain.TransferError{Step: "publish", Err: err}
		}
		return nil
	})

	duration := time.Since(start)
	log := e.logger.WithContext(ctx).With(
		"inventoryItemId", cmd.InventoryItemID,
		"from", cmd.From.String(),
		"to", cmd.To.String(),
		"quantity", cmd.Quantity,
		"requestId", cmd.RequestID,
	)

	if err != nil {
		outcome := "failed"
		if errors.Is(err, domain.ErrInsufficientStock) || errors.Is(err, domain.ErrRequestNotEditable) {
			outcome = "rejected"
		}
		e.metrics.RecordTransfer(outcome, duration)
		log.Warn("Transfer aborted", "error", err)
		return nil, err
	}

	e.metrics.RecordTransfer("ok", duration)
	log.Info("Transfer completed", "movementId", movement.ID, "duration_ms", duration.Milliseconds())
	return movement, nil
}
