// Package cache implements the best-effort redis role cache.
//
// The cache only ever accelerates role resolution; it carries no
// correctness weight. Every method on a nil *RoleCache is a no-op so a
// deployment without redis runs unchanged.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "authcore:role:"
	defaultTTL = 15 * time.Minute
)

// RoleCache caches resolved roles per identity.
type RoleCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a role cache against the given redis instance.
func New(addr, password string, db int) *RoleCache {
	return &RoleCache{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		ttl: defaultTTL,
	}
}

// SetRole stores the resolved role for an identity.
func (c *RoleCache) SetRole(ctx context.Context, userID, role string) error {
	if c == nil {
		return nil
	}

	return c.rdb.Set(ctx, keyPrefix+userID, role, c.ttl).Err()
}

// GetRole returns the cached role, or "" on a miss.
func (c *RoleCache) GetRole(ctx context.Context, userID string) (string, error) {
	if c == nil {
		return "", nil
	}

	v, err := c.rdb.Get(ctx, keyPrefix+userID).Result()
	if err == redis.Nil {
		return "", nil
	}

	return v, err
}

// Purge removes the cached role for one identity.
func (c *RoleCache) Purge(ctx context.Context, userID string) error {
	if c == nil {
		return nil
	}

	return c.rdb.Del(ctx, keyPrefix+userID).Err()
}

// PurgeAll removes every cached role. Used by the emergency cleanup path.
func (c *RoleCache) PurgeAll(ctx context.Context) error {
	if c == nil {
		return nil
	}

	iter := c.rdb.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}

	return iter.Err()
}

// Close releases the redis connection.
func (c *RoleCache) Close() error {
	if c == nil {
		return nil
	}

	return c.rdb.Close()
}
