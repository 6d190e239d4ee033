package config

import (
	"context"
	"time"

	"github.com/m-mizutani/githook/pkg/infra/shell"
	"github.com/m-mizutani/githook/pkg/registry"
	"github.com/m-mizutani/githook/pkg/taskgraph"
	"github.com/urfave/cli/v3"
)

// Pipeline holds build target and executor configuration
type Pipeline struct {
	ConfigFile    string
	ActionTimeout time.Duration
	Parallelism   int
	GracePeriod   time.Duration
}

// Flags returns CLI flags for pipeline configuration
func (c *Pipeline) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Build target configuration file (.toml, .yaml, .json, .jsonc)",
			Required:    true,
			Destination: &c.ConfigFile,
			Sources:     cli.EnvVars("GITHOOK_CONFIG"),
		},
		&cli.DurationFlag{
			Name:        "action-timeout",
			Usage:       "Timeout of each pipeline action, 0 disables it",
			Value:       taskgraph.DefaultActionTimeout,
			Destination: &c.ActionTimeout,
			Sources:     cli.EnvVars("GITHOOK_ACTION_TIMEOUT"),
		},
		&cli.IntFlag{
			Name:        "parallelism",
			Usage:       "Maximum concurrent actions per pipeline, 0 means unlimited",
			Destination: &c.Parallelism,
			Sources:     cli.EnvVars("GITHOOK_PARALLELISM"),
		},
		&cli.DurationFlag{
			Name:        "kill-grace-period",
			Usage:       "Time between SIGTERM and SIGKILL when a command is cancelled",
			Value:       5 * time.Second,
			Destination: &c.GracePeriod,
			Sources:     cli.EnvVars("GITHOOK_KILL_GRACE_PERIOD"),
		},
	}
}

// Registry loads the configuration file
func (c *Pipeline) Registry(ctx context.Context) (*registry.Registry, error) {
	return registry.New(ctx, c.ConfigFile)
}

// Executor creates the task graph executor
func (c *Pipeline) Executor() *taskgraph.Executor {
	return taskgraph.NewExecutor(
		taskgraph.WithDefaultTimeout(c.ActionTimeout),
		taskgraph.WithAbandonDelay(max(taskgraph.DefaultAbandonDelay, 2*c.GracePeriod)),
		taskgraph.WithParallelism(c.Parallelism),
	)
}

// Runner creates the shell command runner
func (c *Pipeline) Runner() *shell.Runner {
	return shell.NewRunner(shell.WithGracePeriod(c.GracePeriod))
}
