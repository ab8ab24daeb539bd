package db

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"rtb-engine/internal/config/configs"
)

// NewRedisClient creates a go-redis client with the provided
// configuration. Command timeouts are taken from cfg.OpTimeout so store
// calls stay inside the per-request latency budget. The function
// verifies that a connection can be established by pinging the server
// with a 5 second timeout; on failure the client is closed and an error
// is returned. The caller must close the returned client when it is no
// longer needed.
func NewRedisClient(ctx context.Context, cfg configs.Redis) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.OpTimeout,
		WriteTimeout: cfg.OpTimeout,
		PoolSize:     cfg.PoolSize,
	})

	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctxPing).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
