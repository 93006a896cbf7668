package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iwvelando/deal-calculator/internal/deal"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "deal:result:"

// RedisOptions configures a RedisCache.
type RedisOptions struct {
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisCache keeps results in Redis as JSON documents.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache connects to Redis and checks the connection.
func NewRedisCache(ctx context.Context, opts RedisOptions, logger *zap.Logger) (*RedisCache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Address == "" {
		return nil, errors.New("redis cache needs an address")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", opts.Address, err)
	}
	return &RedisCache{client: rdb, ttl: opts.TTL, logger: logger}, nil
}

// Get implements Cache. Unreadable entries are treated as misses.
func (r *RedisCache) Get(ctx context.Context, key string) (deal.Result, bool) {
	val, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("redis get failed",
				zap.String("op", "cache.RedisCache.Get"),
				zap.Error(err),
			)
		}
		return deal.Result{}, false
	}
	var result deal.Result
	if err := json.Unmarshal(val, &result); err != nil {
		r.logger.Warn("discarding unreadable cache entry",
			zap.String("op", "cache.RedisCache.Get"),
			zap.String("key", key),
			zap.Error(err),
		)
		return deal.Result{}, false
	}
	return result, true
}

// Set implements Cache.
func (r *RedisCache) Set(ctx context.Context, key string, result deal.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	return r.client.Set(ctx, redisKeyPrefix+key, data, r.ttl).Err()
}

// Close implements Cache.
func (r *RedisCache) Close() error {
	return r.client.Close()
}
