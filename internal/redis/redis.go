// Package redis constructs go-redis clients used for session storage and
// change notifications.
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// PingTimeout bounds the connectivity check performed by New.
const PingTimeout = 2 * time.Second

// Config holds connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Client embeds *goredis.Client so callers use the full command set.
type Client struct {
	*goredis.Client
}

// New creates a client and pings the server; an unreachable server is an
// error rather than a lazily failing client.
func New(cfg Config) (*Client, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("failed to connect to Redis: empty address")
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), PingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{Client: client}, nil
}
