// Package redis backs webhook replay suppression. It is degradable
// infrastructure: when Connect fails the service starts anyway and runs
// with replay dedup disabled.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDialTimeout = 5 * time.Second

// Config captures the connection settings for the replay dedup store.
type Config struct {
	Addr string
	DB   int
	// PoolSize bounds the connection pool; zero keeps the driver default.
	PoolSize int
	// Timeout bounds the startup connectivity probe.
	Timeout time.Duration
}

// Connect builds a Redis client and probes it with a ping so an unreachable
// instance surfaces at startup instead of on the first webhook delivery.
// Callers decide what the failure means; for this service it only disables
// replay dedup, it never prevents startup.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}
