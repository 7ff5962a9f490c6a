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

const (
	keyPrefix            = "ledger:report:"
	generationKey        = "ledger:report-generation"
	defaultScanBatchSize = 100
)

var errStaleGeneration = errors.New("report generation moved on")

// RedisReportCache implements ReportCache on Redis with a fixed TTL.
type RedisReportCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisClient connects and pings the server.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisReportCache wraps an existing client. The caller keeps ownership of it.
func NewRedisReportCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisReportCache {
	return &RedisReportCache{client: client, ttl: ttl, logger: logger.Named("report_cache")}
}

// Generation reads the invalidation counter. A missing counter is generation 0.
func (c *RedisReportCache) Generation(ctx context.Context) int64 {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if err == redis.Nil {
		return 0
	}
	if err != nil {
		c.logger.Warn("Report cache generation read failed", zap.Error(err))
		return NoGeneration
	}
	return gen
}

func (c *RedisReportCache) Get(ctx context.Context, key string, dest interface{}) bool {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		c.logger.Warn("Report cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Warn("Discarding undecodable cached report", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Set stores value only while the generation is still gen. The counter is
// watched, so an Invalidate landing between the check and the write aborts it.
func (c *RedisReportCache) Set(ctx context.Context, key string, value interface{}, gen int64) {
	if gen == NoGeneration {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("Failed to encode report for cache", zap.String("key", key), zap.Error(err))
		return
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, generationKey).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if current != gen {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, keyPrefix+key, data, c.ttl)
			return nil
		})
		return err
	}, generationKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		c.logger.Debug("Skipping stale report", zap.String("key", key), zap.Int64("generation", gen))
	default:
		c.logger.Warn("Report cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate bumps the generation, then removes every cached report. It runs
// after commit, so it must not be cut short by a request that has already been
// answered.
func (c *RedisReportCache) Invalidate(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		c.logger.Warn("Report cache generation bump failed", zap.Error(err))
	}

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, keyPrefix+"*", defaultScanBatchSize).Result()
		if err != nil {
			c.logger.Warn("Report cache invalidation failed", zap.Error(err))
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.logger.Warn("Report cache invalidation failed", zap.Error(err))
				return
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}
