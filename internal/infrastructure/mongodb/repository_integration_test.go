package mongodb

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mantenix/inventory-service/internal/application"
	"github.com/mantenix/inventory-service/internal/domain"
	"github.com/mantenix/inventory-service/pkg/cloudevents"
	"github.com/mantenix/inventory-service/pkg/contracts/events"
	"github.com/mantenix/inventory-service/pkg/logging"
	pkgmongo "github.com/mantenix/inventory-service/pkg/mongodb"
	outboxMongo "github.com/mantenix/inventory-service/pkg/outbox/mongodb"
	pkgtesting "github.com/mantenix/inventory-service/pkg/testing"
	"github.com/mantenix/inventory-service/pkg/tenant"
)

type staticDirectory struct{}

func (staticDirectory) WorkOrder(_ context.Context, id string) (*domain.DirectoryEntry, error) {
	return nil, domain.NewNotFoundError("work order", id)
}
func (staticDirectory) Site(_ context.Context, id string) (*domain.DirectoryEntry, error) {
	return &domain.DirectoryEntry{ID: id, Name: "Site " + id}, nil
}
func (staticDirectory) Company(_ context.Context, id string) (*domain.DirectoryEntry, error) {
	return &domain.DirectoryEntry{ID: id, Name: "Company " + id}, nil
}
func (staticDirectory) User(_ context.Context, id string) (*domain.DirectoryEntry, error) {
	return nil, domain.NewNotFoundError("user", id)
}

type RepositoryIntegrationTestSuite struct {
	suite.Suite
	ctx       context.Context
	container *pkgtesting.MongoDBContainer
	client    *mongo.Client
	db        *mongo.Database
	tx        *pkgmongo.InstrumentedClient

	items     *ItemRepository
	stock     *StockRepository
	movements *MovementRepository
	requests  *RequestRepository
	engine    *application.TransferEngine
	ledger    *application.StockLedger
}

func (s *RepositoryIntegrationTestSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := pkgtesting.NewMongoDBContainer(s.ctx)
	s.Require().NoError(err)
	s.container = container

	client, err := container.GetClient(s.ctx)
	s.Require().NoError(err)
	s.client = client
	s.db = client.Database("inventory_test")
	s.tx = pkgmongo.NewInstrumentedClient(pkgmongo.Wrap(client, "inventory_test"))

	s.items = NewItemRepository(s.db)
	s.stock = NewStockRepository(s.db)
	s.movements = NewMovementRepository(s.db)
	s.requests = NewRequestRepository(s.db)

	validator, err := events.NewValidator()
	s.Require().NoError(err)
	deps := application.LedgerDeps{
		Stock:     s.stock,
		Movements: application.NewMovementLog(s.movements),
		Resolver:  application.NewLocationResolver(staticDirectory{}, nil, logging.NewNop()),
		Tx:        s.tx,
		Events: NewOutboxPublisher(
			outboxMongo.NewRepository(s.db),
			cloudevents.NewEventFactory(cloudevents.SourceInventory),
			validator,
		),
	}
	s.engine = application.NewTransferEngine(deps)
	s.ledger = application.NewStockLedger(deps)
}

func (s *RepositoryIntegrationTestSuite) SetupTest() {
	s.Require().NoError(EnsureIndexes(s.ctx, s.db))
}

func (s *RepositoryIntegrationTestSuite) TearDownTest() {
	for _, name := range []string{ItemsCollection, StockCollection, MovementsCollection, RequestsCollection, outboxMongo.CollectionName} {
		s.Require().NoError(s.db.Collection(name).Drop(s.ctx))
	}
}

func (s *RepositoryIntegrationTestSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Disconnect(s.ctx)
	}
	if s.container != nil {
		s.Require().NoError(s.container.Close(s.ctx))
	}
}

func TestRepositoryIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	suite.Run(t, new(RepositoryIntegrationTestSuite))
}

var acme = domain.Location{ID: "acme", Type: domain.LocationWarehouse, CompanyID: "acme"}

func (s *RepositoryIntegrationTestSuite) setCount(itemID string, loc domain.Location, qty int64) {
	_, _, err := s.ledger.SetAbsolute(s.ctx, application.AdjustStockCommand{
		InventoryItemID: itemID,
		Location:        loc,
		Quantity:        qty,
		Reason:          "count",
		ActorID:         "sup-1",
		CompanyID:       "acme",
	})
	s.Require().NoError(err)
}

func (s *RepositoryIntegrationTestSuite) TestItemRepository_RoundTripAndDuplicateCode() {
	item, err := domain.NewInventoryItem("acme", "grp", "sup-1", domain.ItemAttributes{
		Code:     "flt-10",
		Name:     "Air filter",
		UnitCost: decimal.RequireFromString("12.3456"),
	}, pkgmongo.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.items.Create(s.ctx, item))

	got, err := s.items.FindByID(s.ctx, item.ID)
	s.Require().NoError(err)
	s.Equal("FLT-10", got.Code)
	s.True(item.UnitCost.Equal(got.UnitCost))

	dup, err := domain.NewInventoryItem("acme", "", "sup-1", domain.ItemAttributes{Code: "FLT-10", Name: "Other"}, pkgmongo.Now())
	s.Require().NoError(err)
	s.ErrorIs(s.items.Create(s.ctx, dup), domain.ErrDuplicateCode)

	rows, total, err := s.items.List(s.ctx, domain.ItemFilter{Search: "filt"}, tenant.NewScope("other", "grp"), domain.Page{Number: 1, Size: 10})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Len(rows, 1)
}

func (s *RepositoryIntegrationTestSuite) TestStockRepository_DecrementIsConditional() {
	s.setCount("item-1", acme, 5)

	_, err := s.stock.Decrement(s.ctx, "item-1", acme, 6)
	var stockErr *domain.StockError
	s.Require().ErrorAs(err, &stockErr)
	s.Equal(int64(5), stockErr.Available)

	row, err := s.stock.Decrement(s.ctx, "item-1", acme, 5)
	s.Require().NoError(err)
	s.Zero(row.Quantity)
	s.NoError(row.CheckInvariant())

	_, err = s.stock.Decrement(s.ctx, "item-1", domain.NewLocation("nowhere", domain.LocationSite), 1)
	s.ErrorIs(err, domain.ErrInsufficientStock)
}

func (s *RepositoryIntegrationTestSuite) TestTransferEngine_ConcurrentTransfersNeverOversell() {
	s.setCount("item-1", acme, 10)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.engine.Transfer(s.ctx, domain.TransferCommand{
				InventoryItemID: "item-1",
				From:            acme,
				To:              domain.NewLocation("site-"+string(rune('a'+i)), domain.LocationSite),
				Quantity:        6,
				ActorID:         "sup-1",
				CompanyID:       "acme",
			})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			s.ErrorIs(err, domain.ErrInsufficientStock)
		}(i)
	}
	wg.Wait()
	s.Equal(1, wins)

	rows, err := s.stock.FindAllForItem(s.ctx, "item-1")
	s.Require().NoError(err)
	var total int64
	for _, row := range rows {
		s.NoError(row.CheckInvariant())
		total += row.Quantity
	}
	s.Equal(int64(10), total)

	transfers, count, err := s.movements.List(s.ctx, domain.MovementFilter{Type: domain.MovementTransfer}, tenant.NewScope("acme", ""), domain.Page{Number: 1, Size: 10})
	s.Require().NoError(err)
	s.Equal(int64(1), count)
	s.Equal("Site "+transfers[0].ToLocationID, transfers[0].ToLocationName)
}

func (s *RepositoryIntegrationTestSuite) TestMovementRepository_OneTransferPerRequest() {
	s.setCount("item-1", acme, 10)
	cmd := domain.TransferCommand{
		InventoryItemID: "item-1",
		From:            acme,
		To:              domain.NewLocation("site-1", domain.LocationSite),
		Quantity:        2,
		RequestID:       "req-1",
		ActorID:         "sup-1",
		CompanyID:       "acme",
	}
	_, err := s.engine.Transfer(s.ctx, cmd)
	s.Require().NoError(err)

	_, err = s.engine.Transfer(s.ctx, cmd)
	s.ErrorIs(err, domain.ErrRequestNotEditable)

	row, err := s.stock.Get(s.ctx, "item-1", acme)
	s.Require().NoError(err)
	s.Equal(int64(8), row.Quantity)

	found, err := s.movements.FindTransferByRequest(s.ctx, "req-1")
	s.Require().NoError(err)
	s.Equal(int64(2), found.Quantity)

	staged, err := s.db.Collection(outboxMongo.CollectionName).CountDocuments(s.ctx, bson.M{"eventType": cloudevents.StockTransferred})
	s.Require().NoError(err)
	s.Equal(int64(1), staged)
}

func (s *RepositoryIntegrationTestSuite) TestRequestRepository_UpdateIsConditional() {
	item, err := domain.NewInventoryItem("acme", "", "sup-1", domain.ItemAttributes{Code: "X", Name: "X"}, pkgmongo.Now())
	s.Require().NoError(err)
	req, err := domain.NewInventoryRequest(domain.NewRequestParams{
		WorkOrderID: "wo-1",
		Item:        item,
		Quantity:    3,
		Destination: domain.NewLocation("site-1", domain.LocationSite),
		RequestedBy: "tech-1",
		Notes:       "urgent pump repair",
		CompanyID:   "acme",
	}, pkgmongo.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.requests.Create(s.ctx, req))

	stale := req.Precondition()
	s.Require().NoError(req.Reject("sup-1", "no budget", pkgmongo.Now()))
	s.Require().NoError(s.requests.Update(s.ctx, req, stale))

	again, err := s.requests.FindByID(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusRejected, again.Status)
	s.Len(again.StatusHistory, 2)
	s.ErrorIs(s.requests.Update(s.ctx, again, stale), domain.ErrConcurrentModification)

	from := time.Now().Add(-time.Hour)
	rows, total, err := s.requests.List(s.ctx, domain.RequestFilter{
		Statuses: []domain.RequestStatus{domain.StatusRejected, domain.StatusCancelled},
		From:     &from,
		Search:   "PUMP",
	}, tenant.NewScope("acme", ""), domain.Page{Number: 1, Size: 5})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal(req.ID, rows[0].ID)

	pending, err := s.requests.FindByStatus(s.ctx, domain.StatusPending, 10)
	s.Require().NoError(err)
	s.Empty(pending)
}
