package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisProbeTimeout = 2 * time.Second

// redisCache is the remote backend. Every user key is prefixed with the
// namespace so multiple namespaces can share one server. Transport errors
// degrade to cache misses; the caller never sees them.
type redisCache struct {
	client     *redis.Client
	prefix     string
	defaultTTL time.Duration
}

func newRedisCache(url, prefix string, ttl time.Duration) (*redisCache, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(context.Background(), redisProbeTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &redisCache{client: client, prefix: prefix, defaultTTL: ttl}, nil
}

func (c *redisCache) key(key string) string {
	return c.prefix + key
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Debug("redis get failed, treating as miss", "key", key, "error", err)
		}
		return nil, false
	}
	return value, true
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if err := c.client.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		// Cache writes are best-effort.
		slog.Debug("redis set dropped", "key", key, "error", err)
	}
}

func (c *redisCache) Delete(ctx context.Context, key string) bool {
	deleted, err := c.client.Del(ctx, c.key(key)).Result()
	if err != nil {
		slog.Debug("redis delete failed", "key", key, "error", err)
		return false
	}
	return deleted > 0
}

func (c *redisCache) Clear(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			slog.Debug("redis clear: delete failed", "key", iter.Val(), "error", err)
		}
	}
	if err := iter.Err(); err != nil {
		slog.Debug("redis clear: scan failed", "prefix", c.prefix, "error", err)
	}
}

func (c *redisCache) Size(ctx context.Context) int {
	count := 0
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		slog.Debug("redis size: scan failed", "prefix", c.prefix, "error", err)
		return 0
	}
	return count
}
