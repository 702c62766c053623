// AngelaMos | 2026
// redis.go

package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Favourez/loope/internal/config"
)

const redisPingTimeout = 5 * time.Second

// Redis backs the shared rate limiter and the access token blacklist.
// A nil *Redis is valid and means those features run in-process; every
// method is safe to call on it.
type Redis struct {
	client *redis.Client
}

// OpenRedis connects when redis.url is set. With no URL, or when the
// server cannot be reached and required is false, it returns a nil
// *Redis and logs why.
func OpenRedis(
	ctx context.Context,
	cfg config.RedisConfig,
	required bool,
	logger *slog.Logger,
) (*Redis, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.URL == "" {
		logger.Info("redis disabled, using in-process rate limiting")
		return nil, nil
	}

	r, err := NewRedis(ctx, cfg)
	if err != nil {
		if required {
			return nil, err
		}
		logger.Warn("redis unavailable, using in-process rate limiting",
			"error", err,
		)
		return nil, nil
	}

	logger.Info("redis connected", "pool_size", cfg.PoolSize)
	return r, nil
}

func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.MinIdleConns = cfg.MinIdleConns
	opts.PoolTimeout = 30 * time.Second
	opts.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opts)

	r := &Redis{client: client}
	if err := r.Ping(ctx); err != nil {
		_ = client.Close() //nolint:errcheck // connection never became usable
		return nil, err
	}

	return r, nil
}

// Client returns the underlying client, or nil when Redis is disabled.
func (r *Redis) Client() *redis.Client {
	if r == nil {
		return nil
	}
	return r.client
}

func (r *Redis) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}

func (r *Redis) Ping(ctx context.Context) error {
	if r == nil {
		return fmt.Errorf("redis disabled")
	}

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if err := r.client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (r *Redis) PoolStats() *redis.PoolStats {
	if r == nil {
		return nil
	}
	return r.client.PoolStats()
}
