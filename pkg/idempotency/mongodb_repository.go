package idempotency

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const idempotencyKeysCollection = "idempotency_keys"

// MongoKeyRepository implements KeyRepository using MongoDB
type MongoKeyRepository struct {
	collection *mongo.Collection
}

// NewMongoKeyRepository creates a new MongoDB-backed key repository
func NewMongoKeyRepository(db *mongo.Database) *MongoKeyRepository {
	return &MongoKeyRepository{collection: db.Collection(idempotencyKeysCollection)}
}

// AcquireLock upserts the key. The unique index on service, scope and key
// makes a concurrent duplicate insert fail, in which case the winner's
// document is returned.
func (r *MongoKeyRepository) AcquireLock(ctx context.Context, key *Key) (*Key, bool, error) {
	filter := bson.M{
		"serviceId": key.ServiceID,
		"scope":     key.Scope,
		"key":       key.Key,
	}
	update := bson.M{"$setOnInsert": key}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var result Key
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&result)
	if mongo.IsDuplicateKeyError(err) {
		err = r.collection.FindOne(ctx, filter).Decode(&result)
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire idempotency lock: %w", err)
	}

	return &result, result.ID == key.ID, nil
}

// TakeOver locks an incomplete key whose lock is absent or stale
func (r *MongoKeyRepository) TakeOver(ctx context.Context, keyID string, staleBefore time.Time) (bool, error) {
	filter := bson.M{
		"_id":         keyID,
		"completedAt": bson.M{"$exists": false},
		"$or": []bson.M{
			{"lockedAt": bson.M{"$exists": false}},
			{"lockedAt": bson.M{"$lt": staleBefore}},
		},
	}
	res, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"lockedAt": time.Now().UTC()}})
	if err != nil {
		return false, fmt.Errorf("failed to take over idempotency lock: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

// ReleaseLock releases the lock on an idempotency key
func (r *MongoKeyRepository) ReleaseLock(ctx context.Context, keyID string) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": keyID}, bson.M{"$unset": bson.M{"lockedAt": ""}})
	if err != nil {
		return fmt.Errorf("failed to release idempotency lock: %w", err)
	}
	return nil
}

// StoreResponse stores the final response for a completed request
func (r *MongoKeyRepository) StoreResponse(ctx context.Context, keyID string, responseCode int, responseBody []byte, headers map[string]string) error {
	update := bson.M{
		"$set": bson.M{
			"responseCode":    responseCode,
			"responseBody":    responseBody,
			"responseHeaders": headers,
			"completedAt":     time.Now().UTC(),
		},
		"$unset": bson.M{"lockedAt": ""},
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": keyID}, update)
	if err != nil {
		return fmt.Errorf("failed to store idempotency response: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Clean removes keys that expired before the given time
func (r *MongoKeyRepository) Clean(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lt": before}})
	if err != nil {
		return 0, fmt.Errorf("failed to clean idempotency keys: %w", err)
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates the uniqueness and TTL indexes
func (r *MongoKeyRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "serviceId", Value: 1},
				{Key: "scope", Value: 1},
				{Key: "key", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("idx_service_scope_key"),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_ttl"),
		},
	}

	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create idempotency indexes: %w", err)
	}
	return nil
}
