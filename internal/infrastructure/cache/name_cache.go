package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mantenix/inventory-service/internal/domain"
	"github.com/mantenix/inventory-service/pkg/logging"
)

const (
	keyPrefix = "inventory:location-name:"

	// DefaultTTL bounds how stale a renamed site or company can appear
	DefaultTTL = 10 * time.Minute
)

// NameCache keeps resolved location names in Redis. Cache failures are
// logged and treated as misses; they never fail the caller.
type NameCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *logging.Logger
}

// NewNameCache creates a NameCache. A zero ttl uses DefaultTTL.
func NewNameCache(client redis.UniversalClient, ttl time.Duration, logger *logging.Logger) *NameCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &NameCache{client: client, ttl: ttl, logger: logger.WithComponent("name-cache")}
}

// NewClient connects to addr and pings it
func NewClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func (c *NameCache) Get(ctx context.Context, loc domain.Location) (string, bool) {
	name, err := c.client.Get(ctx, key(loc)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithContext(ctx).Debug("Name cache read failed", "location", loc.String(), "error", err)
		}
		return "", false
	}
	return name, true
}

func (c *NameCache) Set(ctx context.Context, loc domain.Location, name string) {
	if err := c.client.Set(ctx, key(loc), name, c.ttl).Err(); err != nil {
		c.logger.WithContext(ctx).Debug("Name cache write failed", "location", loc.String(), "error", err)
	}
}

func key(loc domain.Location) string {
	return keyPrefix + loc.String()
}
