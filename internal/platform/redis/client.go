package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/weiwei-tsao/friendsfeed/internal/platform/config"
)

// New connects to Redis when REDIS_ADDR is configured. It returns (nil, nil)
// when Redis is not configured so callers can run without a cache.
func New(ctx context.Context, cfg config.Config) (*goredis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}
