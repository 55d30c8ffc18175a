package handlers

import (
	"context"

	"github.com/mantenix/inventory-service/internal/application"
	"github.com/mantenix/inventory-service/internal/domain"
)

type mockRequestService struct {
	createFn  func(ctx context.Context, session domain.Session, cmd application.CreateRequestCommand) (*domain.InventoryRequest, error)
	updateFn  func(ctx context.Context, session domain.Session, id string, changes domain.RequestChanges) (*domain.InventoryRequest, error)
	approveFn func(ctx context.Context, session domain.Session, cmd application.ApproveRequestCommand) (*domain.InventoryRequest, error)
	rejectFn  func(ctx context.Context, session domain.Session, cmd application.ReviewCommand) (*domain.InventoryRequest, error)
	cancelFn  func(ctx context.Context, session domain.Session, cmd application.ReviewCommand) (*domain.InventoryRequest, error)
	deliverFn func(ctx context.Context, session domain.Session, id string) (*domain.InventoryRequest, error)
	receiveFn func(ctx context.Context, session domain.Session, id string) (*domain.InventoryRequest, error)
	confirmFn func(ctx context.Context, session domain.Session, id string) (*domain.InventoryRequest, error)
	getFn     func(ctx context.Context, session domain.Session, id string) (*application.RequestDetail, error)
	listFn    func(ctx context.Context, session domain.Session, f domain.RequestFilter, page domain.Page) ([]*domain.InventoryRequest, int64, error)
}

func (m *mockRequestService) Create(ctx context.Context, session domain.Session, cmd application.CreateRequestCommand) (*domain.InventoryRequest, error) {
	if m.createFn == nil {
		panic("Create not implemented")
	}
	return m.createFn(ctx, session, cmd)
}

func (m *mockRequestService) Update(ctx context.Context, session domain.Session, id string, changes domain.RequestChanges) (*domain.InventoryRequest, error) {
	if m.updateFn == nil {
		panic("Update not implemented")
	}
	return m.updateFn(ctx, session, id, changes)
}

func (m *mockRequestService) Approve(ctx context.Context, session domain.Session, cmd application.ApproveRequestCommand) (*domain.InventoryRequest, error) {
	if m.approveFn == nil {
		panic("Approve not implemented")
	}
	return m.approveFn(ctx, session, cmd)
}

func (m *mockRequestService) Reject(ctx context.Context, session domain.Session, cmd application.ReviewCommand) (*domain.InventoryRequest, error) {
	if m.rejectFn == nil {
		panic("Reject not implemented")
	}
	return m.rejectFn(ctx, session, cmd)
}

func (m *mockRequestService) Cancel(ctx context.Context, session domain.Session, cmd application.ReviewCommand) (*domain.InventoryRequest, error) {
	if m.cancelFn == nil {
		panic("Cancel not implemented")
	}
	return m.cancelFn(ctx, session, cmd)
}

func (m *mockRequestService) DeliverFromWarehouse(ctx context.Context, session domain.Session, id string) (*domain.InventoryRequest, error) {
	if m.deliverFn == nil {
		panic("DeliverFromWarehouse not implemented")
	}
	return m.deliverFn(ctx, session, id)
}

func (m *mockRequestService) ReceiveAtDestination(ctx context.Context, session domain.Session, id string) (*domain.InventoryRequest, error) {
	if m.receiveFn == nil {
		panic("ReceiveAtDestination not implemented")
	}
	return m.receiveFn(ctx, session, id)
}

func (m *mockRequestService) ConfirmReceipt(ctx context.Context, session domain.Session, id string) (*domain.InventoryRequest, error) {
	if m.confirmFn == nil {
		panic("ConfirmReceipt not implemented")
	}
	return m.confirmFn(ctx, session, id)
}

func (m *mockRequestService) Get(ctx context.Context, session domain.Session, id string) (*application.RequestDetail, error) {
	if m.getFn == nil {
		panic("Get not implemented")
	}
	return m.getFn(ctx, session, id)
}

func (m *mockRequestService) List(ctx context.Context, session domain.Session, f domain.RequestFilter, page domain.Page) ([]*domain.InventoryRequest, int64, error) {
	if m.listFn == nil {
		panic("List not implemented")
	}
	return m.listFn(ctx, session, f, page)
}

type mockItemService struct {
	createFn     func(ctx context.Context, session domain.Session, attrs domain.ItemAttributes) (*domain.InventoryItem, error)
	updateFn     func(ctx context.Context, session domain.Session, id string, attrs domain.ItemAttributes) (*domain.InventoryItem, error)
	deactivateFn func(ctx context.Context, session domain.Session, id string) (*domain.InventoryItem, error)
	getFn        func(ctx context.Context, session domain.Session, id string) (*domain.InventoryItem, error)
	listFn       func(ctx context.Context, session domain.Session, f domain.ItemFilter, page domain.Page) ([]*domain.InventoryItem, int64, error)
}

func (m *mockItemService) Create(ctx context.Context, session domain.Session, attrs domain.ItemAttributes) (*domain.InventoryItem, error) {
	if m.createFn == nil {
		panic("Create not implemented")
	}
	return m.createFn(ctx, session, attrs)
}

func (m *mockItemService) Update(ctx context.Context, session domain.Session, id string, attrs domain.ItemAttributes) (*domain.InventoryItem, error) {
	if m.updateFn == nil {
		panic("Update not implemented")
	}
	return m.updateFn(ctx, session, id, attrs)
}

func (m *mockItemService) Deactivate(ctx context.Context, session domain.Session, id string) (*domain.InventoryItem, error) {
	if m.deactivateFn == nil {
		panic("Deactivate not implemented")
	}
	return m.deactivateFn(ctx, session, id)
}

func (m *mockItemService) Get(ctx context.Context, session domain.Session, id string) (*domain.InventoryItem, error) {
	if m.getFn == nil {
		panic("Get not implemented")
	}
	return m.getFn(ctx, session, id)
}

func (m *mockItemService) List(ctx context.Context, session domain.Session, f domain.ItemFilter, page domain.Page) ([]*domain.InventoryItem, int64, error) {
	if m.listFn == nil {
		panic("List not implemented")
	}
	return m.listFn(ctx, session, f, page)
}

type mockStockService struct {
	byItemFn     func(ctx context.Context, session domain.Session, itemID string) ([]application.StockView, error)
	byLocationFn func(ctx context.Context, session domain.Session, loc domain.Location) ([]application.StockView, error)
	adjustFn     func(ctx context.Context, session domain.Session, cmd application.AdjustStockCommand) (application.StockView, *domain.InventoryMovement, error)
	transferFn   func(ctx context.Context, session domain.Session, cmd application.TransferStockCommand) (*domain.InventoryMovement, error)
}

func (m *mockStockService) GetByItem(ctx context.Context, session domain.Session, itemID string) ([]application.StockView, error) {
	if m.byItemFn == nil {
		panic("GetByItem not implemented")
	}
	return m.byItemFn(ctx, session, itemID)
}

func (m *mockStockService) GetByLocation(ctx context.Context, session domain.Session, loc domain.Location) ([]application.StockView, error) {
	if m.byLocationFn == nil {
		panic("GetByLocation not implemented")
	}
	return m.byLocationFn(ctx, session, loc)
}

func (m *mockStockService) Adjust(ctx context.Context, session domain.Session, cmd application.AdjustStockCommand) (application.StockView, *domain.InventoryMovement, error) {
	if m.adjustFn == nil {
		panic("Adjust not implemented")
	}
	return m.adjustFn(ctx, session, cmd)
}

func (m *mockStockService) Transfer(ctx context.Context, session domain.Session, cmd application.TransferStockCommand) (*domain.InventoryMovement, error) {
	if m.transferFn == nil {
		panic("Transfer not implemented")
	}
	return m.transferFn(ctx, session, cmd)
}

type mockMovementService struct {
	listFn func(ctx context.Context, session domain.Session, f domain.MovementFilter, page domain.Page) ([]*domain.InventoryMovement, int64, error)
	getFn  func(ctx context.Context, session domain.Session, id string) (*domain.InventoryMovement, error)
}

func (m *mockMovementService) List(ctx context.Context, session domain.Session, f domain.MovementFilter, page domain.Page) ([]*domain.InventoryMovement, int64, error) {
	if m.listFn == nil {
		panic("List not implemented")
	}
	return m.listFn(ctx, session, f, page)
}

func (m *mockMovementService) Get(ctx context.Context, session domain.Session, id string) (*domain.InventoryMovement, error) {
	if m.getFn == nil {
		panic("Get not implemented")
	}
	return m.getFn(ctx, session, id)
}
