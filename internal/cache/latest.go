// Package cache provides an optional Redis-backed projection of each
// item's latest stock event, saving the per-item store lookup on hot paths.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Voxel07/inventory/internal/models"
)

const (
	latestKeyPrefix = "latest_stock:"
	latestKeyTTL    = 24 * time.Hour
)

// LatestStockCache caches the latest stock event per item. A miss is
// (nil, false, nil), not an error.
type LatestStockCache interface {
	// Get returns the cached latest stock event for an item.
	Get(ctx context.Context, itemID string) (*models.StockEvent, bool, error)

	// Set stores the latest stock event for an item.
	Set(ctx context.Context, ev *models.StockEvent) error

	// Invalidate drops the cached event for an item.
	Invalidate(ctx context.Context, itemID string) error
}

// RedisCache implements LatestStockCache on a Redis client.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new RedisCache.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get returns the cached latest stock event for an item.
func (c *RedisCache) Get(ctx context.Context, itemID string) (*models.StockEvent, bool, error) {
	data, err := c.client.Get(ctx, latestKeyPrefix+itemID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var ev models.StockEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		// Stale or corrupt entry; treat as a miss after dropping it.
		c.client.Del(ctx, latestKeyPrefix+itemID)
		return nil, false, nil
	}
	return &ev, true, nil
}

// Set stores the latest stock event for an item.
func (c *RedisCache) Set(ctx context.Context, ev *models.StockEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal stock event: %w", err)
	}
	return c.client.Set(ctx, latestKeyPrefix+ev.ItemID.String(), data, latestKeyTTL).Err()
}

// Invalidate drops the cached event for an item.
func (c *RedisCache) Invalidate(ctx context.Context, itemID string) error {
	return c.client.Del(ctx, latestKeyPrefix+itemID).Err()
}

var _ LatestStockCache = (*RedisCache)(nil)
