package config

import (
	"context"

	"github.com/m-mizutani/githook/pkg/infra/redis"
	"github.com/urfave/cli/v3"
)

// Redis holds key/value registry configuration
type Redis struct {
	Addr     string
	Password string `masq:"secret"`
	DB       int
}

// Flags returns CLI flags for Redis configuration
func (c *Redis) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "redis-addr",
			Usage:       "Redis address (host:port) of the key/value registry",
			Destination: &c.Addr,
			Sources:     cli.EnvVars("GITHOOK_REDIS_ADDR"),
		},
		&cli.StringFlag{
			Name:        "redis-password",
			Usage:       "Redis password",
			Destination: &c.Password,
			Sources:     cli.EnvVars("GITHOOK_REDIS_PASSWORD"),
		},
		&cli.IntFlag{
			Name:        "redis-db",
			Usage:       "Redis database number",
			Destination: &c.DB,
			Sources:     cli.EnvVars("GITHOOK_REDIS_DB"),
		},
	}
}

// Configure connects to Redis. It returns nil when no address is set.
func (c *Redis) Configure(ctx context.Context) (*redis.Client, error) {
	if c.Addr == "" {
		return nil, nil
	}
	return redis.New(ctx, c.Addr, c.Password, c.DB)
}
