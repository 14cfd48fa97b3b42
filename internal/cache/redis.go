package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"opspulse/internal/config"
	apperrors "opspulse/internal/errors"
)

const (
	redisPingTimeout = 3 * time.Second
	redisScanBatch   = 100
)

// Redis stores views in a shared Redis instance so several API replicas
// reuse each other's work. All keys carry the configured prefix.
type Redis struct {
	client    *redis.Client
	prefix    string
	ttl       time.Duration
	logger    *slog.Logger
	hitCount  atomic.Int64
	missCount atomic.Int64
}

// NewRedis connects to cfg.RedisAddr and pings it once.
func NewRedis(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, apperrors.NewCacheError("connect to redis", err).WithContext("addr", cfg.RedisAddr)
	}

	logger.Info("redis view cache connected",
		slog.String("addr", cfg.RedisAddr),
		slog.Int("db", cfg.RedisDB),
		slog.Duration("ttl", cfg.TTL))

	return NewRedisWithClient(client, cfg.KeyPrefix, cfg.TTL, logger), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, prefix string, ttl time.Duration, logger *slog.Logger) *Redis {
	return &Redis{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.With("component", "redis_cache"),
	}
}

func (c *Redis) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.missCount.Add(1)
		return false, nil
	}
	if err != nil {
		c.missCount.Add(1)
		return false, apperrors.NewCacheError("redis get", err).WithContext("key", key)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.missCount.Add(1)
		return false, apperrors.NewCacheError("decode cached view", err).WithContext("key", key)
	}

	c.hitCount.Add(1)
	return true, nil
}

func (c *Redis) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return apperrors.NewCacheError("encode view", err).WithContext("key", key)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return apperrors.NewCacheError("redis set", err).WithContext("key", key)
	}
	return nil
}

// Invalidate collects every prefixed key with SCAN, then unlinks them in
// batches. Keys are not deleted mid-scan since that can move the cursor past
// keys that were never returned.
func (c *Redis) Invalidate(ctx context.Context, prefix string) error {
	var keys []string
	iter := c.client.Scan(ctx, 0, c.prefix+prefix+"*", redisScanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return apperrors.NewCacheError("redis scan", err).WithContext("prefix", prefix)
	}

	for start := 0; start < len(keys); start += redisScanBatch {
		end := min(start+redisScanBatch, len(keys))
		if err := c.client.Unlink(ctx, keys[start:end]...).Err(); err != nil {
			return apperrors.NewCacheError("redis unlink", err).WithContext("prefix", prefix)
		}
	}

	c.logger.Debug("views invalidated", slog.String("prefix", prefix), slog.Int("keys", len(keys)))
	return nil
}

// Stats reports this process's hit counters. Entries is not tracked for a
// shared store.
func (c *Redis) Stats() Stats {
	hits, misses := c.hitCount.Load(), c.missCount.Load()
	return Stats{
		Backend:   config.CacheBackendRedis,
		HitCount:  hits,
		MissCount: misses,
		HitRatio:  hitRatio(hits, misses),
		TTL:       c.ttl.Seconds(),
	}
}

func (c *Redis) Close() error {
	return c.client.Close()
}
