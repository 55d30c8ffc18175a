package mongodb

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Now returns UTC time at the millisecond precision BSON dates keep, so
// values read back compare equal to what was written.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// SortAscending sorts by field, oldest or smallest first
func SortAscending(field string) bson.D {
	return bson.D{{Key: field, Value: 1}}
}

// SortDescending sorts by field, newest or largest first
func SortDescending(field string) bson.D {
	return bson.D{{Key: field, Value: -1}}
}

// IsDuplicateKey reports whether err is a unique index violation, including
// one raised inside a transaction or a bulk write.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// IsNotFound reports whether err is mongo.ErrNoDocuments
func IsNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
