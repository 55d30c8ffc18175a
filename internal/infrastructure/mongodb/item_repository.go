package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mantenix/inventory-service/internal/domain"
	pkgmongo "github.com/mantenix/inventory-service/pkg/mongodb"
	"github.com/mantenix/inventory-service/pkg/tenant"
)

// itemDocument stores costs as Decimal128 so they sort and aggregate as numbers
type itemDocument struct {
	ID             string               `bson:"_id"`
	CompanyID      string               `bson:"companyId"`
	CompanyGroupID string               `bson:"companyGroupId,omitempty"`
	Code           string               `bson:"code"`
	Name           string               `bson:"name"`
	Description    string               `bson:"description,omitempty"`
	Category       string               `bson:"category,omitempty"`
	Unit           string               `bson:"unit"`
	MinStock       int64                `bson:"minStock"`
	MaxStock       int64                `bson:"maxStock"`
	ReorderPoint   int64                `bson:"reorderPoint"`
	UnitCost       primitive.Decimal128 `bson:"unitCost"`
	LastCost       primitive.Decimal128 `bson:"lastCost"`
	AverageCost    primitive.Decimal128 `bson:"averageCost"`
	IsActive       bool                 `bson:"isActive"`
	CreatedBy      string               `bson:"createdBy"`
	CreatedAt      time.Time            `bson:"createdAt"`
	UpdatedAt      time.Time            `bson:"updatedAt"`
}

func toItemDocument(i *domain.InventoryItem) (*itemDocument, error) {
	doc := &itemDocument{
		ID:             i.ID,
		CompanyID:      i.CompanyID,
		CompanyGroupID: i.CompanyGroupID,
		Code:           i.Code,
		Name:           i.Name,
		Description:    i.Description,
		Category:       i.Category,
		Unit:           i.Unit,
		MinStock:       i.MinStock,
		MaxStock:       i.MaxStock,
		ReorderPoint:   i.ReorderPoint,
		IsActive:       i.IsActive,
		CreatedBy:      i.CreatedBy,
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
	}
	var err error
	if doc.UnitCost, err = toDecimal128(i.UnitCost); err != nil {
		return nil, err
	}
	if doc.LastCost, err = toDecimal128(i.LastCost); err != nil {
		return nil, err
	}
	if doc.AverageCost, err = toDecimal128(i.AverageCost); err != nil {
		return nil, err
	}
	return doc, nil
}

func (d *itemDocument) toDomain() (*domain.InventoryItem, error) {
	item := &domain.InventoryItem{
		ID:             d.ID,
		CompanyID:      d.CompanyID,
		CompanyGroupID: d.CompanyGroupID,
		Code:           d.Code,
		Name:           d.Name,
		Description:    d.Description,
		Category:       d.Category,
		Unit:           d.Unit,
		MinStock:       d.MinStock,
		MaxStock:       d.MaxStock,
		ReorderPoint:   d.ReorderPoint,
		IsActive:       d.IsActive,
		CreatedBy:      d.CreatedBy,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	var err error
	if item.UnitCost, err = fromDecimal128(d.UnitCost); err != nil {
		return nil, err
	}
	if item.LastCost, err = fromDecimal128(d.LastCost); err != nil {
		return nil, err
	}
	if item.AverageCost, err = fromDecimal128(d.AverageCost); err != nil {
		return nil, err
	}
	return item, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("invalid decimal %s: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	if v.IsZero() {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(v.String())
}

// ItemRepository implements domain.ItemRepository
type ItemRepository struct {
	collection *mongo.Collection
}

// NewItemRepository creates an ItemRepository
func NewItemRepository(db *mongo.Database) *ItemRepository {
	return &ItemRepository{collection: db.Collection(ItemsCollection)}
}

// Create inserts an item. A second item with the same code in the company
// fails with domain.ErrDuplicateCode.
func (r *ItemRepository) Create(ctx context.Context, item *domain.InventoryItem) error {
	doc, err := toItemDocument(item)
	if err != nil {
		return err
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if pkgmongo.IsDuplicateKey(err) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateCode, item.Code)
		}
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

// Update replaces an item
func (r *ItemRepository) Update(ctx context.Context, item *domain.InventoryItem) error {
	doc, err := toItemDocument(item)
	if err != nil {
		return err
	}
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": item.ID}, doc)
	if err != nil {
		if pkgmongo.IsDuplicateKey(err) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateCode, item.Code)
		}
		return fmt.Errorf("failed to update item: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.NewNotFoundError("inventory item", item.ID)
	}
	return nil
}

// FindByID returns one item
func (r *ItemRepository) FindByID(ctx context.Context, id string) (*domain.InventoryItem, error) {
	var doc itemDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if pkgmongo.IsNotFound(err) {
		return nil, domain.NewNotFoundError("inventory item", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find item: %w", err)
	}
	return doc.toDomain()
}

// List returns one page of items ordered by code
func (r *ItemRepository) List(ctx context.Context, f domain.ItemFilter, scope tenant.Scope, page domain.Page) ([]*domain.InventoryItem, int64, error) {
	filter := ToFilter(domain.BuildPredicate(f, scope))
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count items: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, listOptions(pkgmongo.SortAscending("code"), page.Offset(), page.Size))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list items: %w", err)
	}
	var docs []itemDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode items: %w", err)
	}

	items := make([]*domain.InventoryItem, 0, len(docs))
	for i := range docs {
		item, err := docs[i].toDomain()
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	return items, total, nil
}
