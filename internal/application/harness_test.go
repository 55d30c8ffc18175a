package application

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mantenix/inventory-service/internal/domain"
	"github.com/mantenix/inventory-service/pkg/logging"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

var (
	technician = domain.Session{UserID: "tech-1", Role: "TECHNICIAN", CompanyID: "acme"}
	supervisor = domain.Session{UserID: "sup-1", Role: "SUPERVISOR", CompanyID: "acme"}
	acmeKeeper = domain.Session{UserID: "keeper-acme", Role: "WAREHOUSE", CompanyID: "acme"}
	betaKeeper = domain.Session{UserID: "keeper-beta", Role: "WAREHOUSE", CompanyID: "beta"}
	outsider   = domain.Session{UserID: "guest", Role: "SUPERVISOR", CompanyID: "gamma"}
)

var testPolicy = fakeAuthorizer{
	"TECHNICIAN": {domain.CapCreateRequest, domain.CapUpdateRequest, domain.CapDeleteRequest, domain.CapConfirmReceipt},
	"SUPERVISOR": {"*"},
	"WAREHOUSE":  {domain.CapDeliverFromSource, domain.CapReceiveAtDest, domain.CapConfirmReceipt},
}

type harness struct {
	store      *memoryStore
	directory  *fakeDirectory
	metrics    *recordingMetrics
	ledger     *StockLedger
	engine     *TransferEngine
	requests   *RequestService
	items      *ItemService
	stock      *StockService
	movements  *MovementService
	reconciler *Reconciler
	item       *domain.InventoryItem
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := newMemoryStore()
	directory := &fakeDirectory{
		workOrders: map[string]*domain.DirectoryEntry{
			"wo-site":   {ID: "wo-site", Name: "Replace filters", SiteID: "site-1", CompanyID: "acme"},
			"wo-office": {ID: "wo-office", Name: "Restock office", CompanyID: "acme"},
		},
		sites: map[string]*domain.DirectoryEntry{
			"site-1": {ID: "site-1", Name: "North Plant"},
		},
		companies: map[string]*domain.DirectoryEntry{
			"acme": {ID: "acme", Name: "Acme Industrial"},
			"beta": {ID: "beta", Name: "Beta Supply"},
		},
		users: map[string]*domain.DirectoryEntry{
			"tech-1":      {ID: "tech-1", Name: "Tess", CompanyID: "acme"},
			"sup-1":       {ID: "sup-1", Name: "Sam", CompanyID: "acme"},
			"keeper-acme": {ID: "keeper-acme", Name: "Ann", CompanyID: "acme"},
			"keeper-beta": {ID: "keeper-beta", Name: "Bo", CompanyID: "beta"},
			"guest":       {ID: "guest", Name: "Gil", CompanyID: "gamma"},
		},
	}
	metrics := newRecordingMetrics()
	logger := logging.NewNop()
	clock := func() time.Time { return testNow }

	itemRepo := memoryItems{store}
	movementLog := NewMovementLog(memoryMovements{store})
	resolver := NewLocationResolver(directory, nil, logger)
	deps := LedgerDeps{
		Stock:     memoryStock{store},
		Movements: movementLog,
		Resolver:  resolver,
		Tx:        store,
		Events:    store,
		Metrics:   metrics,
		Clock:     clock,
		Logger:    logger,
	}
	ledger := NewStockLedger(deps)
	engine := NewTransferEngine(deps)

	item, err := domain.NewInventoryItem("acme", "", "sup-1", domain.ItemAttributes{
		Code:         "flt-10",
		Name:         "Air filter",
		Category:     "filters",
		MinStock:     5,
		ReorderPoint: 8,
		UnitCost:     decimal.RequireFromString("12.50"),
	}, testNow)
	require.NoError(t, err)
	store.items[item.ID] = *item

	return &harness{
		store:     store,
		directory: directory,
		metrics:   metrics,
		ledger:    ledger,
		engine:    engine,
		requests: NewRequestService(RequestServiceDeps{
			Requests:  memoryRequests{store},
			Items:     itemRepo,
			Ledger:    ledger,
			Engine:    engine,
			Movements: movementLog,
			Resolver:  resolver,
			Directory: directory,
			Authz:     testPolicy,
			Tx:        store,
			Events:    store,
			Metrics:   metrics,
			Clock:     clock,
			Logger:    logger,
		}),
		items:      NewItemService(itemRepo, testPolicy, clock, logger),
		stock:      NewStockService(ledger, engine, itemRepo, testPolicy),
		movements:  NewMovementService(movementLog),
		reconciler: NewReconciler(memoryRequests{store}, movementLog, store, store, metrics, clock, logger),
		item:       item,
	}
}

func warehouse(companyID string) domain.Location {
	return domain.Location{ID: companyID, Type: domain.LocationWarehouse, CompanyID: companyID}
}

func site(id string) domain.Location {
	return domain.NewLocation(id, domain.LocationSite)
}

// seed puts qty units of the harness item at loc
func (h *harness) seed(t *testing.T, loc domain.Location, qty int64) {
	t.Helper()
	row := domain.NewInventoryStock(h.item.ID, loc, loc.ID, testNow)
	_, err := row.SetAbsolute(qty, testNow)
	require.NoError(t, err)
	h.store.stock[stockKey(h.item.ID, loc)] = *row
}

func (h *harness) quantityAt(t *testing.T, loc domain.Location) int64 {
	t.Helper()
	row, ok := h.store.stock[stockKey(h.item.ID, loc)]
	if !ok {
		return 0
	}
	require.NoError(t, row.CheckInvariant())
	return row.Quantity
}

func (h *harness) createRequest(t *testing.T, workOrder string, qty int64, source domain.Location) *domain.InventoryRequest {
	t.Helper()
	req, err := h.requests.Create(testContext(), technician, CreateRequestCommand{
		WorkOrderID:     workOrder,
		InventoryItemID: h.item.ID,
		Quantity:        qty,
		Source:          source,
	})
	require.NoError(t, err)
	return req
}

func (h *harness) assertInvariants(t *testing.T) {
	t.Helper()
	for _, row := range h.store.allStock() {
		require.NoError(t, row.CheckInvariant(), "row %s", row.Location())
	}
}

func int64Ptr(v int64) *int64 { return &v }

func testContext() context.Context {
	return context.Background()
}
