package idempotency

import (
	"time"
)

// Key is a stored idempotency key with the response it produced
type Key struct {
	ID                 string `bson:"_id"`
	Key                string `bson:"key"`
	Scope              string `bson:"scope"` // caller identity the key belongs to
	ServiceID          string `bson:"serviceId"`
	RequestPath        string `bson:"requestPath"`
	RequestMethod      string `bson:"requestMethod"`
	RequestFingerprint string `bson:"requestFingerprint"`

	LockedAt *time.Time `bson:"lockedAt,omitempty"`

	ResponseCode    int               `bson:"responseCode,omitempty"`
	ResponseBody    []byte            `bson:"responseBody,omitempty"`
	ResponseHeaders map[string]string `bson:"responseHeaders,omitempty"`

	CreatedAt   time.Time  `bson:"createdAt"`
	CompletedAt *time.Time `bson:"completedAt,omitempty"`
	ExpiresAt   time.Time  `bson:"expiresAt"`
}

// IsCompleted returns true if the request has been completed
func (k *Key) IsCompleted() bool {
	return k.CompletedAt != nil
}

// IsLockedAt reports whether another request holds a lock younger than timeout
func (k *Key) IsLockedAt(now time.Time, timeout time.Duration) bool {
	return k.LockedAt != nil && k.CompletedAt == nil && now.Sub(*k.LockedAt) < timeout
}
