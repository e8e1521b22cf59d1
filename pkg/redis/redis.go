package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/code/app-dub-agpl/pkg/config"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// InitRedis initializes the shared Redis connection. The instance backs the
// reserved-slug set and per-workspace feature-flag overrides.
func InitRedis(cfg *config.Config) error {
	client = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	return nil
}

// GetClient returns the shared Redis client
func GetClient() *redis.Client {
	return client
}
