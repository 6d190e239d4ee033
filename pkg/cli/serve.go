package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/githook/pkg/cli/config"
	githubcontroller "github.com/m-mizutani/githook/pkg/controller/github"
	controller "github.com/m-mizutani/githook/pkg/controller/http"
	"github.com/m-mizutani/githook/pkg/domain/interfaces"
	"github.com/m-mizutani/githook/pkg/infra/archive"
	"github.com/m-mizutani/githook/pkg/registry"
	"github.com/m-mizutani/githook/pkg/usecase"
	"github.com/m-mizutani/githook/pkg/utils/errutil"
	"github.com/m-mizutani/githook/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var (
		serverCfg    config.Server
		githubCfg    config.GitHub
		pipelineCfg  config.Pipeline
		gcsCfg       config.GCS
		redisCfg     config.Redis
		firestoreCfg config.Firestore
		slackCfg     config.Slack
		sentryCfg    config.Sentry
	)

	var flags []cli.Flag
	flags = append(flags, serverCfg.Flags()...)
	flags = append(flags, githubCfg.Flags()...)
	flags = append(flags, pipelineCfg.Flags()...)
	flags = append(flags, gcsCfg.Flags()...)
	flags = append(flags, redisCfg.Flags()...)
	flags = append(flags, firestoreCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.From(ctx)

			logger.Info("Starting githook server",
				slog.String("addr", serverCfg.Addr),
				slog.Any("github", githubCfg),
				slog.Any("pipeline", pipelineCfg),
				slog.Any("slack", slackCfg),
			)
			if githubCfg.WebhookSecret == "" {
				logger.Warn("Webhook secret is not set, only unsigned deliveries are accepted")
			}

			sentryEnabled, err := sentryCfg.Configure()
			if err != nil {
				return err
			}
			if sentryEnabled {
				defer sentry.Flush(2 * time.Second)
			}

			reg, err := pipelineCfg.Registry(ctx)
			if err != nil {
				return err
			}

			opts := []usecase.Option{usecase.WithExecutor(pipelineCfg.Executor())}

			artifacts, err := gcsCfg.Configure(ctx)
			if err != nil {
				return err
			}
			if artifacts != nil {
				defer artifacts.Close()
				opts = append(opts, usecase.WithArtifactStore(artifacts))
			}

			kv, err := redisCfg.Configure(ctx)
			if err != nil {
				return err
			}
			if kv != nil {
				defer kv.Close()
				opts = append(opts, usecase.WithKVStore(kv))
			}

			params, err := firestoreCfg.Configure(ctx)
			if err != nil {
				return err
			}
			if params != nil {
				defer params.Close()
				opts = append(opts, usecase.WithParameterStore(params))
			}

			var notifier interfaces.Notifier
			if n := slackCfg.Configure(); n != nil {
				notifier = n
				opts = append(opts, usecase.WithNotifier(n))
			}

			pipelineUC := usecase.NewPipeline(reg, pipelineCfg.Runner(), archive.NewPackager(), opts...)
			processor := githubcontroller.NewEventProcessor(pipelineUC)

			// Create HTTP server with options
			server, err := controller.NewServer(
				ctx,
				processor,
				controller.WithAddr(serverCfg.Addr),
				controller.WithWebhookSecret(githubCfg.WebhookSecret),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			greet(ctx, notifier, reg)

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					serverErr <- goerr.Wrap(err, "HTTP server error", goerr.V("addr", serverCfg.Addr))
				}
			}()

			// Wait for signals. SIGHUP reloads the build targets.
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
			defer signal.Stop(sigChan)

		loop:
			for {
				select {
				case <-ctx.Done():
					logger.Info("Context cancelled, shutting down...")
					break loop

				case err := <-serverErr:
					return err

				case sig := <-sigChan:
					if sig == syscall.SIGHUP {
						logger.Info("SIGHUP received, reloading build targets", slog.String("config", pipelineCfg.ConfigFile))
						if err := reg.Reload(ctx); err != nil {
							errutil.Handle(ctx, "failed to reload build targets", err)
							continue
						}
						greet(ctx, notifier, reg)
						continue
					}
					logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
					break loop
				}
			}

			// Graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}

// greet posts the ready message listing the watched sources
func greet(ctx context.Context, notifier interfaces.Notifier, reg *registry.Registry) {
	if notifier == nil {
		return
	}
	snapshot := reg.Snapshot()
	if err := notifier.NotifyReady(ctx, snapshot.Settings(), snapshot.Sources()); err != nil {
		errutil.Handle(ctx, "failed to send ready notification", err)
	}
}
