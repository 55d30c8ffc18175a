package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mantenix/inventory-service/pkg/tenant"
)

// Collection names
const (
	ItemsCollection     = "inventory_items"
	StockCollection     = "inventory_stock"
	MovementsCollection = "inventory_movements"
	RequestsCollection  = "inventory_requests"
)

// EnsureIndexes creates the indexes every repository relies on. The unique
// ones carry ledger guarantees: one stock row per item and location, one
// code per company, and at most one movement per request.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	scoped := tenant.NewRepositoryHelper().ScopeIndexes()

	plan := map[string][]mongo.IndexModel{
		ItemsCollection: append([]mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "companyId", Value: 1}, {Key: "code", Value: 1}},
				Options: options.Index().SetName("uniq_company_code").SetUnique(true),
			},
			{Keys: bson.D{{Key: "category", Value: 1}}},
		}, scoped...),
		StockCollection: {
			{
				Keys: bson.D{
					{Key: "inventoryItemId", Value: 1},
					{Key: "locationId", Value: 1},
					{Key: "locationType", Value: 1},
				},
				Options: options.Index().SetName("uniq_item_location").SetUnique(true),
			},
			{Keys: bson.D{{Key: "locationId", Value: 1}, {Key: "locationType", Value: 1}}},
		},
		MovementsCollection: append([]mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "requestId", Value: 1}},
				Options: options.Index().SetName("uniq_request").SetUnique(true).SetSparse(true),
			},
			{Keys: bson.D{{Key: "inventoryItemId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "workOrderId", Value: 1}}},
		}, scoped...),
		RequestsCollection: append([]mongo.IndexModel{
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "workOrderId", Value: 1}}},
			{Keys: bson.D{{Key: "inventoryItemId", Value: 1}}},
		}, scoped...),
	}

	for name, models := range plan {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func listOptions(sort bson.D, skip, limit int64) *options.FindOptions {
	opts := options.Find().SetSort(sort).SetSkip(skip)
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return opts
}

// Indexer creates the indexes of a store kept outside this package, such as
// the outbox or the idempotency keys.
type Indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// Migrate creates the inventory indexes followed by those of extra
func Migrate(ctx context.Context, db *mongo.Database, extra ...Indexer) error {
	if err := EnsureIndexes(ctx, db); err != nil {
		return err
	}
	for _, ix := range extra {
		if err := ix.EnsureIndexes(ctx); err != nil {
			return err
		}
	}
	return nil
}
