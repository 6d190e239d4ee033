package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/githook/pkg/cli/config"
	"github.com/m-mizutani/githook/pkg/domain/interfaces"
	"github.com/m-mizutani/githook/pkg/registry"
	"github.com/m-mizutani/githook/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdTargets() *cli.Command {
	var (
		configFile   string
		redisCfg     config.Redis
		firestoreCfg config.Firestore
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Build target configuration file (.toml, .yaml, .json, .jsonc)",
			Required:    true,
			Destination: &configFile,
			Sources:     cli.EnvVars("GITHOOK_CONFIG"),
		},
	}
	flags = append(flags, redisCfg.Flags()...)
	flags = append(flags, firestoreCfg.Flags()...)

	return &cli.Command{
		Name:  "targets",
		Usage: "Validate the configuration file and list build targets with their current release",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			reg, err := registry.New(ctx, configFile)
			if err != nil {
				return err
			}

			var releases releaseReaders
			kv, err := redisCfg.Configure(ctx)
			if err != nil {
				return err
			}
			if kv != nil {
				defer kv.Close()
				releases.kv = kv
			}

			params, err := firestoreCfg.Configure(ctx)
			if err != nil {
				return err
			}
			if params != nil {
				defer params.Close()
				releases.params = params
			}

			printTargets(ctx, os.Stdout, reg.Snapshot(), releases)
			return nil
		},
	}
}

// releaseReaders are the stores the release actions write to. Nil readers
// are not shown.
type releaseReaders struct {
	kv     interfaces.KVReader
	params interfaces.ParameterReader
}

func printTargets(ctx context.Context, w io.Writer, snapshot *registry.Snapshot, releases releaseReaders) {
	settings := snapshot.Settings()
	bold := color.New(color.Bold)
	app := color.New(color.FgCyan, color.Bold)
	branch := color.New(color.FgGreen)
	dim := color.New(color.Faint)
	failed := color.New(color.FgRed)

	_, _ = bold.Fprintf(w, "%s (%s)\n", settings.Domain, settings.Environment)
	_, _ = dim.Fprintf(w, "  build: %s  cache: %s  release: %s\n", settings.BuildDir, settings.CacheDir, settings.ReleasePath)

	targets := snapshot.Targets()
	if len(targets) == 0 {
		_, _ = color.New(color.FgYellow).Fprintln(w, "no build targets")
		return
	}

	for _, t := range targets {
		mode := "remote"
		if t.IsLocal() {
			mode = "local " + t.LocalPath
		}
		_, _ = app.Fprintf(w, "%-16s", t.AppID)
		_, _ = fmt.Fprintf(w, " %s ", t.Repository)
		_, _ = branch.Fprintf(w, "#%s", t.ReleaseBranch)
		_, _ = dim.Fprintf(w, "  %s  $ %s\n", mode, t.BuildCommand)

		if releases.kv != nil {
			key := usecase.ReleaseKey(t.AppID)
			switch v, err := releases.kv.Get(ctx, key); {
			case err != nil:
				_, _ = failed.Fprintf(w, "    kv %s: %v\n", key, err)
			case v == "":
				_, _ = dim.Fprintf(w, "    kv %s: not released\n", key)
			default:
				_, _ = fmt.Fprintf(w, "    kv %s: %s\n", key, v)
			}
		}

		if releases.params != nil {
			name := usecase.ReleaseParameter(settings.Environment, t.AppID)
			switch p, err := releases.params.Get(ctx, name); {
			case err != nil:
				_, _ = failed.Fprintf(w, "    parameter %s: %v\n", name, err)
			case p == nil:
				_, _ = dim.Fprintf(w, "    parameter %s: not released\n", name)
			default:
				_, _ = fmt.Fprintf(w, "    parameter %s: %s (%s)\n", name, p.Value, p.UpdatedAt.Format(time.RFC3339))
			}
		}
	}
}
