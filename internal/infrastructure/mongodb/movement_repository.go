package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mantenix/inventory-service/internal/domain"
	pkgmongo "github.com/mantenix/inventory-service/pkg/mongodb"
	"github.com/mantenix/inventory-service/pkg/tenant"
)

// MovementRepository implements domain.MovementRepository. Movements are
// only ever inserted.
type MovementRepository struct {
	collection *mongo.Collection
}

// NewMovementRepository creates a MovementRepository
func NewMovementRepository(db *mongo.Database) *MovementRepository {
	return &MovementRepository{collection: db.Collection(MovementsCollection)}
}

// Append inserts m. The sparse unique index on requestId turns a second
// transfer for the same request into domain.ErrRequestNotEditable.
func (r *MovementRepository) Append(ctx context.Context, m *domain.InventoryMovement) error {
	_, err := r.collection.InsertOne(ctx, m)
	if err == nil {
		return nil
	}
	if pkgmongo.IsDuplicateKey(err) && m.RequestID != "" {
		return fmt.Errorf("%w: transfer already recorded for request %s", domain.ErrRequestNotEditable, m.RequestID)
	}
	return fmt.Errorf("failed to insert movement: %w", err)
}

// FindByID returns one movement
func (r *MovementRepository) FindByID(ctx context.Context, id string) (*domain.InventoryMovement, error) {
	return r.findOne(ctx, bson.M{"_id": id}, id)
}

// FindTransferByRequest returns the transfer recorded for a request
func (r *MovementRepository) FindTransferByRequest(ctx context.Context, requestID string) (*domain.InventoryMovement, error) {
	return r.findOne(ctx, bson.M{"requestId": requestID, "type": domain.MovementTransfer}, requestID)
}

func (r *MovementRepository) findOne(ctx context.Context, filter bson.M, id string) (*domain.InventoryMovement, error) {
	var m domain.InventoryMovement
	err := r.collection.FindOne(ctx, filter).Decode(&m)
	if pkgmongo.IsNotFound(err) {
		return nil, domain.NewNotFoundError("inventory movement", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find movement: %w", err)
	}
	return &m, nil
}

// List returns one page of movements, newest first
func (r *MovementRepository) List(ctx context.Context, f domain.MovementFilter, scope tenant.Scope, page domain.Page) ([]*domain.InventoryMovement, int64, error) {
	filter := ToFilter(domain.BuildPredicate(f, scope))
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count movements: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, listOptions(pkgmongo.SortDescending("createdAt"), page.Offset(), page.Size))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list movements: %w", err)
	}
	movements := []*domain.InventoryMovement{}
	if err := cursor.All(ctx, &movements); err != nil {
		return nil, 0, fmt.Errorf("failed to decode movements: %w", err)
	}
	return movements, total, nil
}
