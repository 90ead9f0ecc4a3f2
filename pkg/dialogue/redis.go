package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "dialogue:"

// RedisCache is a shared dialogue cache backed by Redis. Entries are
// stored without expiration: a cached answer is valid for the lifetime
// of its model version.
type RedisCache struct {
	client *redis.Client
	logger *slog.Logger
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache creates a Redis-backed dialogue cache.
func NewRedisCache(addr string, logger *slog.Logger) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &RedisCache{client: rdb, logger: logger}
}

// NewRedisCacheFromClient wraps an existing client, letting the cache
// share a connection pool with other Redis-backed components.
func NewRedisCacheFromClient(client *redis.Client, logger *slog.Logger) *RedisCache {
	return &RedisCache{client: client, logger: logger}
}

// Ping tests the cache connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (c *RedisCache) Close() error {
	if err := c.client.Close(); err != nil {
		c.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	return nil
}

func (c *RedisCache) Get(ctx context.Context, d *Dialogue) (string, bool, error) {
	key := redisKeyPrefix + d.Fingerprint()
	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.logger.Debug("Dialogue cache miss", "fingerprint", d.Fingerprint())
			return "", false, nil
		}
		c.logger.Error("Dialogue cache GET failed", "key", key, "error", err)
		return "", false, fmt.Errorf("dialogue cache get failed: %w", err)
	}

	var stored Dialogue
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return "", false, fmt.Errorf("failed to unmarshal cached dialogue: %w", err)
	}
	if stored.Answer == nil {
		return "", false, nil
	}
	c.logger.Debug("Dialogue cache hit", "fingerprint", d.Fingerprint())
	return *stored.Answer, true, nil
}

func (c *RedisCache) Put(ctx context.Context, d *Dialogue) error {
	if d.Answer == nil {
		return ErrNoAnswer
	}
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal dialogue: %w", err)
	}
	key := redisKeyPrefix + d.Fingerprint()
	if err := c.client.Set(ctx, key, string(data), 0).Err(); err != nil {
		c.logger.Error("Dialogue cache SET failed", "key", key, "error", err)
		return fmt.Errorf("dialogue cache put failed: %w", err)
	}
	return nil
}
