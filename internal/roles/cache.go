package roles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Cache is a short-TTL store for resolved permission sets. It is an explicit
// dependency of the catalog service, never a package-level singleton, and it
// must be invalidated synchronously on every role or grant mutation: stale
// permission data is a security defect, not a performance tradeoff.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewCache constructs a Cache with the given TTL.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) key(tenantID int64, roleName string) string {
	return fmt.Sprintf("doctrove:perms:%d:%s", tenantID, strings.ToLower(strings.TrimSpace(roleName)))
}

// Resolve returns the cached permission set for (tenant, role) or computes
// and stores it. Concurrent resolves for the same key are collapsed into a
// single computation.
func (c *Cache) Resolve(ctx context.Context, tenantID int64, roleName string, compute func(context.Context) (PermissionSet, error)) (PermissionSet, error) {
	if c == nil || c.client == nil {
		return compute(ctx)
	}

	key := c.key(tenantID, roleName)
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var set PermissionSet
		if err := json.Unmarshal(payload, &set); err == nil {
			return set, nil
		}
		// Corrupt entry: drop it and fall through to recompute.
		_ = c.client.Del(ctx, key).Err()
	} else if !errors.Is(err, redis.Nil) {
		return nil, err
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		set, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(set)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
			return nil, err
		}
		return set, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(PermissionSet), nil
}

// Invalidate drops the cached set for (tenant, role). Must be called before
// a mutation is acknowledged to the caller.
func (c *Cache) Invalidate(ctx context.Context, tenantID int64, roleName string) error {
	if c == nil || c.client == nil {
		return nil
	}
	err := c.client.Del(ctx, c.key(tenantID, roleName)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
