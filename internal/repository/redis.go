package repository

import (
	"context"
	"fmt"
	"time"

	"campusrooms/internal/config"

	"github.com/redis/go-redis/v9"
)

// RedisLimiterRepository tracks per-principal request budgets in Redis
// so the limit holds across multiple API instances.
type RedisLimiterRepository struct {
	client *redis.Client
}

// NewRedisClient creates a Redis client from configuration.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisLimiterRepository(client *redis.Client) *RedisLimiterRepository {
	return &RedisLimiterRepository{client: client}
}

// CheckRateLimit increments the principal's counter and reports whether
// it is still within limit for the window. The first increment arms the
// window expiry.
func (r *RedisLimiterRepository) CheckRateLimit(ctx context.Context, principalID int64, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	key := fmt.Sprintf("rate_limit:%d", principalID)
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	if count == 1 {
		r.client.Expire(ctx, key, window)
	}

	return count <= int64(limit), nil
}

// Ping verifies the connection to Redis.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
