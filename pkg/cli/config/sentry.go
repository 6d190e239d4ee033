package config

import (
	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/githook/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Sentry holds error reporting configuration
type Sentry struct {
	DSN         string `masq:"secret"`
	Environment string
}

// Flags returns CLI flags for Sentry configuration
func (c *Sentry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN, error reporting is disabled when empty",
			Destination: &c.DSN,
			Sources:     cli.EnvVars("GITHOOK_SENTRY_DSN"),
		},
		&cli.StringFlag{
			Name:        "sentry-env",
			Usage:       "Sentry environment",
			Destination: &c.Environment,
			Sources:     cli.EnvVars("GITHOOK_SENTRY_ENV"),
		},
	}
}

// Configure initializes the global Sentry client. It reports whether
// Sentry is enabled.
func (c *Sentry) Configure() (bool, error) {
	if c.DSN == "" {
		return false, nil
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         c.DSN,
		Environment: c.Environment,
		Release:     types.Version,
	}); err != nil {
		return false, goerr.Wrap(err, "failed to initialize sentry")
	}
	return true, nil
}
