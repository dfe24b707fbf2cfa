package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/domain"
)

// RedisStatusCache keeps short-lived status snapshots keyed per line item.
// It only ever serves what the dispatcher wrote after a load; the Postgres
// row stays the source of truth.
type RedisStatusCache struct {
	client *redis.Client
}

func NewRedisStatusCache(client *redis.Client) *RedisStatusCache {
	return &RedisStatusCache{client: client}
}

func statusKey(lineItemID uuid.UUID) string {
	return "lineitem:status:" + lineItemID.String()
}

func (c *RedisStatusCache) Get(ctx context.Context, lineItemID uuid.UUID) (*domain.StatusSnapshot, error) {
	raw, err := c.client.Get(ctx, statusKey(lineItemID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var out domain.StatusSnapshot
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *RedisStatusCache) Put(ctx context.Context, snapshot domain.StatusSnapshot, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statusKey(snapshot.LineItemID), raw, ttl).Err()
}

func (c *RedisStatusCache) Invalidate(ctx context.Context, lineItemID uuid.UUID) error {
	return c.client.Del(ctx, statusKey(lineItemID)).Err()
}
