package mongodb

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mantenix/inventory-service/internal/domain"
	pkgmongo "github.com/mantenix/inventory-service/pkg/mongodb"
)

// StockRepository implements domain.StockRepository. Quantity changes are
// single conditional updates so the invariants hold without reading first.
type StockRepository struct {
	collection *mongo.Collection
}

// NewStockRepository creates a StockRepository
func NewStockRepository(db *mongo.Database) *StockRepository {
	return &StockRepository{collection: db.Collection(StockCollection)}
}

func stockKey(itemID string, loc domain.Location) bson.M {
	return bson.M{
		"inventoryItemId": itemID,
		"locationId":      loc.ID,
		"locationType":    loc.Type,
	}
}

// Get returns the row for item at loc
func (r *StockRepository) Get(ctx context.Context, itemID string, loc domain.Location) (*domain.InventoryStock, error) {
	var stock domain.InventoryStock
	err := r.collection.FindOne(ctx, stockKey(itemID, loc)).Decode(&stock)
	if pkgmongo.IsNotFound(err) {
		return nil, domain.NewNotFoundError("inventory stock", itemID+"@"+loc.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find stock: %w", err)
	}
	return &stock, nil
}

// FindAllForItem returns every row of an item
func (r *StockRepository) FindAllForItem(ctx context.Context, itemID string) ([]*domain.InventoryStock, error) {
	return r.find(ctx, bson.M{"inventoryItemId": itemID})
}

// FindByLocation returns every row at loc
func (r *StockRepository) FindByLocation(ctx context.Context, loc domain.Location) ([]*domain.InventoryStock, error) {
	return r.find(ctx, bson.M{"locationId": loc.ID, "locationType": loc.Type})
}

func (r *StockRepository) find(ctx context.Context, filter bson.M) ([]*domain.InventoryStock, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(pkgmongo.SortAscending("locationId")))
	if err != nil {
		return nil, fmt.Errorf("failed to find stock: %w", err)
	}
	stocks := []*domain.InventoryStock{}
	if err := cursor.All(ctx, &stocks); err != nil {
		return nil, fmt.Errorf("failed to decode stock: %w", err)
	}
	return stocks, nil
}

// Increment upserts the row and adds qty to quantity and availability
func (r *StockRepository) Increment(ctx context.Context, itemID string, loc domain.Location, name string, qty int64) (*domain.InventoryStock, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: increment must be positive, got %d", domain.ErrInvalidQuantity, qty)
	}
	if name == "" {
		name = loc.ID
	}
	now := pkgmongo.Now()

	onInsert := bson.M{
		"_id":              uuid.NewString(),
		"locationName":     name,
		"reservedQuantity": int64(0),
		"createdAt":        now,
	}
	if loc.CompanyID != "" {
		onInsert["companyId"] = loc.CompanyID
	}
	update := bson.M{
		"$inc": bson.M{
			"quantity":          qty,
			"availableQuantity": qty,
			"version":           int64(1),
		},
		"$set":         bson.M{"updatedAt": now},
		"$setOnInsert": onInsert,
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stock domain.InventoryStock
	if err := r.collection.FindOneAndUpdate(ctx, stockKey(itemID, loc), update, opts).Decode(&stock); err != nil {
		return nil, fmt.Errorf("failed to increment stock: %w", err)
	}
	return &stock, nil
}

// Decrement subtracts qty when at least qty is available. Otherwise it
// returns a *domain.StockError carrying what was available.
func (r *StockRepository) Decrement(ctx context.Context, itemID string, loc domain.Location, qty int64) (*domain.InventoryStock, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: decrement must be positive, got %d", domain.ErrInvalidQuantity, qty)
	}

	filter := stockKey(itemID, loc)
	filter["availableQuantity"] = bson.M{"$gte": qty}
	update := bson.M{
		"$inc": bson.M{
			"quantity":          -qty,
			"availableQuantity": -qty,
			"version":           int64(1),
		},
		"$set": bson.M{"updatedAt": pkgmongo.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var stock domain.InventoryStock
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stock)
	if err == nil {
		return &stock, nil
	}
	if !pkgmongo.IsNotFound(err) {
		return nil, fmt.Errorf("failed to decrement stock: %w", err)
	}

	var available int64
	current, getErr := r.Get(ctx, itemID, loc)
	if getErr == nil {
		available = current.AvailableQuantity
		loc = current.Location()
	}
	return nil, domain.NewInsufficientStockError(itemID, loc, qty, available)
}

// Save inserts a new row (version 1) or replaces the row at the previous
// version.
func (r *StockRepository) Save(ctx context.Context, stock *domain.InventoryStock) error {
	if stock.Version == 1 {
		_, err := r.collection.InsertOne(ctx, stock)
		if pkgmongo.IsDuplicateKey(err) {
			return fmt.Errorf("%w: stock row for %s already exists", domain.ErrConcurrentModification, stock.LocationID)
		}
		if err != nil {
			return fmt.Errorf("failed to insert stock: %w", err)
		}
		return nil
	}

	filter := stockKey(stock.InventoryItemID, stock.Location())
	filter["version"] = stock.Version - 1
	res, err := r.collection.ReplaceOne(ctx, filter, stock)
	if err != nil {
		return fmt.Errorf("failed to save stock: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: stock row for %s changed", domain.ErrConcurrentModification, stock.LocationID)
	}
	return nil
}
