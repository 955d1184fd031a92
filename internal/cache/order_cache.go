// Package cache keeps read-mostly order snapshots in Redis so status pages do not hit
// Postgres on every poll.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/EnuliForge/kwikorder-engine/internal/domain"
)

// OrderCache stores order snapshots by order code.
type OrderCache interface {
	Get(ctx context.Context, code string) (*domain.OrderGroup, bool, error)
	Set(ctx context.Context, order *domain.OrderGroup) error
	// Invalidate drops the snapshot of the order group with the given id.
	Invalidate(ctx context.Context, orderGroupID string) error
}

type redisOrderCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisOrderCache returns a cache backed by client. A zero ttl disables caching.
func NewRedisOrderCache(client redis.UniversalClient, ttl time.Duration) OrderCache {
	return &redisOrderCache{client: client, ttl: ttl}
}

func orderKey(code string) string {
	return "order:code:" + code
}

func groupKey(orderGroupID string) string {
	return "order:group:" + orderGroupID
}

func (c *redisOrderCache) enabled() bool {
	return c.client != nil && c.ttl > 0
}

func (c *redisOrderCache) Get(ctx context.Context, code string) (*domain.OrderGroup, bool, error) {
	if !c.enabled() {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, orderKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var order domain.OrderGroup
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, false, err
	}
	return &order, true, nil
}

func (c *redisOrderCache) Set(ctx context.Context, order *domain.OrderGroup) error {
	if !c.enabled() || order == nil {
		return nil
	}
	raw, err := json.Marshal(order)
	if err != nil {
		return err
	}
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, orderKey(order.OrderCode), raw, c.ttl)
		pipe.Set(ctx, groupKey(order.ID), order.OrderCode, c.ttl)
		return nil
	})
	return err
}

func (c *redisOrderCache) Invalidate(ctx context.Context, orderGroupID string) error {
	if !c.enabled() {
		return nil
	}
	code, err := c.client.Get(ctx, groupKey(orderGroupID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	return c.client.Del(ctx, orderKey(code), groupKey(orderGroupID)).Err()
}
