package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisCache is a Redis-backed response cache for deployments that share
// parsed results across processes. TTL is enforced by Redis itself; the
// stored entry carries its own timestamps for diagnostics.
type RedisCache struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisCache creates a Redis-backed response cache. prefix namespaces
// the keys; empty means "souschef:response:".
func NewRedisCache(client *redis.Client, prefix string, logger *zap.Logger) *RedisCache {
	if prefix == "" {
		prefix = "souschef:response:"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{
		client: client,
		prefix: prefix,
		logger: logger.With(zap.String("component", "redis_cache")),
	}
}

// Get implements ResponseCache.
func (c *RedisCache) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// A corrupt entry is treated as a miss; the next Put repairs it.
		c.logger.Warn("corrupt cache entry dropped", zap.String("key", key), zap.Error(err))
		_ = c.client.Del(ctx, c.prefix+key).Err()
		return nil, ErrCacheMiss
	}
	return &entry, nil
}

// Put implements ResponseCache.
func (c *RedisCache) Put(ctx context.Context, key string, payload json.RawMessage, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Hour
	}
	now := time.Now()
	entry := Entry{
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	data, err := json.Marshal(&entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	c.logger.Debug("cache set", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

// Invalidate implements ResponseCache.
func (c *RedisCache) Invalidate(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Clear implements ResponseCache. Scans the prefix rather than FLUSHDB so
// co-tenant keys survive.
func (c *RedisCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	return nil
}
