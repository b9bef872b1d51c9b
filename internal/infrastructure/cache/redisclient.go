package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/blink-inc/blink/internal/shared/config"
)

// NewRedisClient connects to logical database db of the configured server
// and verifies the connection.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetAddr(),
		Password: cfg.Password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis db %d: %w", db, err)
	}
	return client, nil
}
