package idempotency

import (
	"context"
	"time"
)

// KeyRepository stores idempotency keys. AcquireLock and TakeOver must be
// atomic in the backing store.
type KeyRepository interface {
	// AcquireLock inserts key locked, or returns the existing key for the
	// same service, scope and key string. created is true when key was inserted.
	AcquireLock(ctx context.Context, key *Key) (existing *Key, created bool, err error)

	// TakeOver locks an incomplete key whose lock is missing or older than
	// staleBefore. It reports whether the lock was obtained.
	TakeOver(ctx context.Context, keyID string, staleBefore time.Time) (bool, error)

	// ReleaseLock clears the lock so a retry can run the request again
	ReleaseLock(ctx context.Context, keyID string) error

	// StoreResponse marks the key completed and caches the response
	StoreResponse(ctx context.Context, keyID string, responseCode int, responseBody []byte, headers map[string]string) error

	// Clean removes keys that expired before the given time
	Clean(ctx context.Context, before time.Time) (int64, error)
}
