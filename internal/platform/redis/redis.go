package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"survey-rewards-backend/internal/common/config"
)

// Client wraps the go-redis client so connection concerns stay out of the
// repositories.
type Client struct {
	*redis.Client
}

// Open connects from the service configuration and pings the server, so a
// bad address fails startup instead of the first request.
func Open(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("empty redis host")
	}

	c := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{Client: c}, nil
}
