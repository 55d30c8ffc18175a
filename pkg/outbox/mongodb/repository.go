package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mantenix/inventory-service/pkg/outbox"
)

const CollectionName = "outbox_events"

// Repository is the MongoDB outbox.Repository
type Repository struct {
	collection *mongo.Collection
}

func NewRepository(db *mongo.Database) *Repository {
	return &Repository{collection: db.Collection(CollectionName)}
}

// SaveAll inserts entries. With a session context the insert is part of the
// caller's transaction.
func (r *Repository) SaveAll(ctx context.Context, entries []*outbox.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	docs := make([]any, len(entries))
	for i, e := range entries {
		docs[i] = e
	}
	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to stage outbox entries: %w", err)
	}
	return nil
}

func (r *Repository) FindDue(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*outbox.Entry, error) {
	filter := bson.M{
		"publishedAt":   bson.M{"$exists": false},
		"attempts":      bson.M{"$lt": maxAttempts},
		"nextAttemptAt": bson.M{"$lte": now},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query due outbox entries: %w", err)
	}
	var entries []*outbox.Entry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode outbox entries: %w", err)
	}
	return entries, nil
}

func (r *Repository) MarkPublished(ctx context.Context, id string, at time.Time) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"publishedAt": at}})
}

func (r *Repository) RecordFailure(ctx context.Context, id, reason string, nextAttempt time.Time) error {
	return r.updateOne(ctx, id, bson.M{
		"$inc": bson.M{"attempts": 1},
		"$set": bson.M{"lastError": reason, "nextAttemptAt": nextAttempt},
	})
}

func (r *Repository) updateOne(ctx context.Context, id string, update bson.M) error {
	res, err := r.collection.UpdateByID(ctx, id, update)
	if err != nil {
		return fmt.Errorf("failed to update outbox entry %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("outbox entry %s not found", id)
	}
	return nil
}

func (r *Repository) DeletePublished(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"publishedAt": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete published outbox entries: %w", err)
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates the polling index. The partial filter keeps
// delivered entries out of it.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "nextAttemptAt", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index().
				SetName("idx_due").
				SetPartialFilterExpression(bson.M{"publishedAt": bson.M{"$exists": false}}),
		},
		{
			Keys:    bson.D{{Key: "publishedAt", Value: 1}},
			Options: options.Index().SetName("idx_publishedAt").SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "aggregateId", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("idx_aggregate"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create outbox indexes: %w", err)
	}
	return nil
}
