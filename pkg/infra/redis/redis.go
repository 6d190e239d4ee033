package redis

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/m-mizutani/githook/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Client is a key/value registry backed by Redis
type Client struct {
	client *redis.Client
}

// New connects to the Redis server at addr and verifies it with PING
func New(ctx context.Context, addr, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, goerr.Wrap(err, "failed to connect to redis", goerr.V("addr", addr))
	}

	return &Client{client: client}, nil
}

// Set stores value under key without expiration
func (c *Client) Set(ctx context.Context, key, value string) error {
	if err := c.client.Set(ctx, key, value, 0).Err(); err != nil {
		return goerr.Wrap(err, "failed to set key", goerr.V("key", key))
	}
	logging.From(ctx).Debug("Set registry key", "key", key, "value", value)
	return nil
}

// Get returns the value of key. A missing key yields an empty string.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	v, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", goerr.Wrap(err, "failed to get key", goerr.V("key", key))
	}
	return v, nil
}

// Close closes the connection pool
func (c *Client) Close() error {
	return c.client.Close()
}
