// Package kv holds the Redis-backed pieces shared by replicas: the
// per-session submission guard and the geocode cache.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/delivery"
)

const (
	guardPrefix   = "checkout:submitting:"
	geocodePrefix = "geocode:"
)

func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// releaseScript deletes KEYS[1] only while it still holds ARGV[1].
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGuard holds a key with SETNX for ttl; the ttl frees the key if a
// replica dies mid-submission. Each Acquire stores its own token so a
// holder whose key expired cannot release the next holder's key.
type RedisGuard struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisGuard(rdb redis.Cmdable, ttl time.Duration) *RedisGuard {
	return &RedisGuard{rdb: rdb, ttl: ttl}
}

func (g *RedisGuard) Acquire(ctx context.Context, key string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := g.rdb.SetNX(ctx, guardPrefix+key, token, g.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (g *RedisGuard) Release(ctx context.Context, key, token string) error {
	if err := releaseScript.Run(ctx, g.rdb, []string{guardPrefix + key}, token).Err(); err != nil {
		return fmt.Errorf("redis release: %w", err)
	}
	return nil
}

type GeocodeCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewGeocodeCache(rdb redis.Cmdable, ttl time.Duration) *GeocodeCache {
	return &GeocodeCache{rdb: rdb, ttl: ttl}
}

func (c *GeocodeCache) Get(ctx context.Context, address string) (delivery.Coordinates, bool, error) {
	raw, err := c.rdb.Get(ctx, geocodePrefix+address).Bytes()
	if errors.Is(err, redis.Nil) {
		return delivery.Coordinates{}, false, nil
	}
	if err != nil {
		return delivery.Coordinates{}, false, fmt.Errorf("redis get: %w", err)
	}

	var coords delivery.Coordinates
	if err := json.Unmarshal(raw, &coords); err != nil {
		return delivery.Coordinates{}, false, fmt.Errorf("decode cached coordinates: %w", err)
	}
	return coords, true, nil
}

func (c *GeocodeCache) Set(ctx context.Context, address string, coords delivery.Coordinates) error {
	raw, err := json.Marshal(coords)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, geocodePrefix+address, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
