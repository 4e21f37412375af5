package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const sharedKeyPrefix = "ghostwriter:completion:"

// Shared is an optional Redis-backed tier behind the local LRU, letting
// multiple engine instances reuse each other's completions. All failures are
// logged and swallowed; the shared tier is an optimization only.
type Shared struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewShared creates a Redis-backed shared cache tier.
func NewShared(redisURL string, ttl time.Duration, logger *zap.Logger) (*Shared, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Shared{rdb: rdb, ttl: ttl, logger: logger}, nil
}

func redisKey(k Key) string {
	return fmt.Sprintf("%s%016x", sharedKeyPrefix, uint64(k))
}

// Get fetches a completion from the shared tier.
func (s *Shared) Get(ctx context.Context, k Key) (string, bool) {
	text, err := s.rdb.Get(ctx, redisKey(k)).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		s.logger.Warn("shared cache read failed", zap.Error(err))
		return "", false
	}
	return text, true
}

// Set writes a completion to the shared tier with the configured TTL.
func (s *Shared) Set(ctx context.Context, k Key, text string) {
	if err := s.rdb.Set(ctx, redisKey(k), text, s.ttl).Err(); err != nil {
		s.logger.Warn("shared cache write failed", zap.Error(err))
	}
}

// Close shuts down the Redis client.
func (s *Shared) Close() error {
	return s.rdb.Close()
}
