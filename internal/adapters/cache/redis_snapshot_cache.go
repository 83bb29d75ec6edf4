package cache

import (
	"context"
	"delivery-eta-service/internal/domain"
	"delivery-eta-service/internal/platform/obs"
	"delivery-eta-service/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const snapshotNamespace = "eta:snapshot"

// RedisSnapshotCache caches a shop's stored records as JSON with a TTL.
// Merchant edits become visible once the entry expires or is invalidated.
type RedisSnapshotCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisSnapshotCache(client redis.UniversalClient, ttl time.Duration) *RedisSnapshotCache {
	return &RedisSnapshotCache{client: client, ttl: ttl}
}

func key(shop string) string {
	return snapshotNamespace + ":" + domain.NormalizeShop(shop)
}

// Fetch cached records for shop.
func (c *RedisSnapshotCache) Get(ctx context.Context, shop string) (_ ports.ShopRecords, _ bool, err error) {
	defer obs.Time(ctx, "snapshot.cache.Get")(&err)

	if c.client == nil {
		return ports.ShopRecords{}, false, errors.New("snapshot cache: client is nil")
	}

	raw, err := c.client.Get(ctx, key(shop)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ports.ShopRecords{}, false, nil
	}
	if err != nil {
		return ports.ShopRecords{}, false, fmt.Errorf("get snapshot cache: shop %q: %w", shop, err)
	}

	var rec ports.ShopRecords
	if err := json.Unmarshal(raw, &rec); err != nil {
		return ports.ShopRecords{}, false, fmt.Errorf("get snapshot cache: decode shop %q: %w", shop, err)
	}

	return rec, true, nil
}

// Store records for shop, replacing any previous entry.
func (c *RedisSnapshotCache) Put(ctx context.Context, shop string, rec ports.ShopRecords) error {
	if c.client == nil {
		return errors.New("snapshot cache: client is nil")
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("put snapshot cache: encode shop %q: %w", shop, err)
	}

	if err := c.client.Set(ctx, key(shop), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("put snapshot cache: shop %q: %w", shop, err)
	}

	return nil
}

// Invalidate drops the cached entry so the next load reads the store.
func (c *RedisSnapshotCache) Invalidate(ctx context.Context, shop string) error {
	if c.client == nil {
		return errors.New("snapshot cache: client is nil")
	}

	if err := c.client.Del(ctx, key(shop)).Err(); err != nil {
		return fmt.Errorf("invalidate snapshot cache: shop %q: %w", shop, err)
	}
	return nil
}
