package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mantenix/inventory-service/internal/domain"
	pkgmongo "github.com/mantenix/inventory-service/pkg/mongodb"
	"github.com/mantenix/inventory-service/pkg/tenant"
)

// RequestRepository implements domain.RequestRepository
type RequestRepository struct {
	collection *mongo.Collection
}

// NewRequestRepository creates a RequestRepository
func NewRequestRepository(db *mongo.Database) *RequestRepository {
	return &RequestRepository{collection: db.Collection(RequestsCollection)}
}

// Create inserts a new request
func (r *RequestRepository) Create(ctx context.Context, req *domain.InventoryRequest) error {
	if _, err := r.collection.InsertOne(ctx, req); err != nil {
		return fmt.Errorf("failed to insert request: %w", err)
	}
	return nil
}

// Update replaces the stored request when it still has pre's status and
// version.
func (r *RequestRepository) Update(ctx context.Context, req *domain.InventoryRequest, pre domain.Precondition) error {
	filter := bson.M{
		"_id":     req.ID,
		"status":  pre.Status,
		"version": pre.Version,
	}
	res, err := r.collection.ReplaceOne(ctx, filter, req)
	if err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: request %s is no longer %s at version %d",
			domain.ErrConcurrentModification, req.ID, pre.Status, pre.Version)
	}
	return nil
}

// FindByID returns one request
func (r *RequestRepository) FindByID(ctx context.Context, id string) (*domain.InventoryRequest, error) {
	var req domain.InventoryRequest
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if pkgmongo.IsNotFound(err) {
		return nil, domain.NewNotFoundError("inventory request", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find request: %w", err)
	}
	return &req, nil
}

// FindByStatus returns up to limit requests in status, oldest first
func (r *RequestRepository) FindByStatus(ctx context.Context, status domain.RequestStatus, limit int64) ([]*domain.InventoryRequest, error) {
	opts := options.Find().SetSort(pkgmongo.SortAscending("createdAt")).SetLimit(limit)
	cursor, err := r.collection.Find(ctx, bson.M{"status": status}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find requests by status: %w", err)
	}
	requests := []*domain.InventoryRequest{}
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("failed to decode requests: %w", err)
	}
	return requests, nil
}

// List returns one page of requests, newest first
func (r *RequestRepository) List(ctx context.Context, f domain.RequestFilter, scope tenant.Scope, page domain.Page) ([]*domain.InventoryRequest, int64, error) {
	filter := ToFilter(domain.BuildPredicate(f, scope))
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count requests: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, listOptions(pkgmongo.SortDescending("createdAt"), page.Offset(), page.Size))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list requests: %w", err)
	}
	requests := []*domain.InventoryRequest{}
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, 0, fmt.Errorf("failed to decode requests: %w", err)
	}
	return requests, total, nil
}
