package settings

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const cachePrefix = "settings:"

// Cache keeps setting values in Redis for TTL.
type Cache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{Client: client, TTL: ttl}
}

// Get reports whether key was cached.
func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.Client.Get(ctx, cachePrefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *Cache) Set(ctx context.Context, key, value string) error {
	return c.Client.Set(ctx, cachePrefix+key, value, c.TTL).Err()
}

func (c *Cache) Invalidate(ctx context.Context, key string) error {
	return c.Client.Del(ctx, cachePrefix+key).Err()
}
