package usecase

import (
	"context"
	"path"
	"path/filepath"
	"regexp"
	"time"

	"github.com/m-mizutani/githook/pkg/domain/interfaces"
	"github.com/m-mizutani/githook/pkg/domain/model"
	"github.com/m-mizutani/githook/pkg/domain/types"
	"github.com/m-mizutani/githook/pkg/taskgraph"
	"github.com/m-mizutani/githook/pkg/utils/errutil"
	"github.com/m-mizutani/githook/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

const tagTimeFormat = "2006-01-02_15-04-05"

var tagBranchPattern = regexp.MustCompile(`[^/a-zA-Z0-9_-]`)

type pipelineUseCase struct {
	registry  interfaces.TargetRegistry
	runner    interfaces.CommandRunner
	packager  interfaces.Packager
	artifacts interfaces.ArtifactStore
	kv        interfaces.KVStore
	params    interfaces.ParameterStore
	notifier  interfaces.Notifier
	executor  *taskgraph.Executor
	locker    *targetLocker
	now       func() time.Time
}

// Option is a functional option for the pipeline use case
type Option func(*pipelineUseCase)

// WithArtifactStore sets the store receiving release archives
func WithArtifactStore(store interfaces.ArtifactStore) Option {
	return func(uc *pipelineUseCase) {
		uc.artifacts = store
	}
}

// WithKVStore sets the key/value registry updated on release
func WithKVStore(store interfaces.KVStore) Option {
	return func(uc *pipelineUseCase) {
		uc.kv = store
	}
}

// WithParameterStore sets the parameter store updated on release
func WithParameterStore(store interfaces.ParameterStore) Option {
	return func(uc *pipelineUseCase) {
		uc.params = store
	}
}

// WithNotifier sets the chat notifier
func WithNotifier(notifier interfaces.Notifier) Option {
	return func(uc *pipelineUseCase) {
		uc.notifier = notifier
	}
}

// WithExecutor replaces the task graph executor
func WithExecutor(executor *taskgraph.Executor) Option {
	return func(uc *pipelineUseCase) {
		uc.executor = executor
	}
}

// WithClock replaces the time source used for tags and timestamps
func WithClock(now func() time.Time) Option {
	return func(uc *pipelineUseCase) {
		uc.now = now
	}
}

// NewPipeline creates the pipeline orchestrator
func NewPipeline(registry interfaces.TargetRegistry, runner interfaces.CommandRunner, packager interfaces.Packager, opts ...Option) interfaces.PipelineUseCase {
	uc := &pipelineUseCase{
		registry: registry,
		runner:   runner,
		packager: packager,
		executor: taskgraph.NewExecutor(),
		locker:   newTargetLocker(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Run drives a validated push event through the pipeline state machine.
// Events that cannot be built end in the dropped state without error.
func (uc *pipelineUseCase) Run(ctx context.Context, ev *model.PushEvent) (*model.PipelineRun, error) {
	run := &model.PipelineRun{
		ID:    types.NewPipelineID(),
		State: model.StateValidated,
		Event: ev,
	}

	logger := logging.From(ctx).With(
		"pipeline_id", run.ID,
		"delivery_id", ev.DeliveryID,
		"repository", ev.Repository,
		"ref", ev.Ref,
	)
	ctx = logging.With(ctx, logger)

	target, settings, ok := uc.registry.Resolve(ev.Repository)
	if !ok {
		logger.Debug("No build target for repository, drop event")
		run.State = model.StateDropped
		return run, nil
	}
	run.Target = target
	run.Settings = settings
	run.State = model.StateResolved

	branch, ok := ev.Branch()
	if !ok {
		logger.Info("Not a branch ref, drop event")
		run.State = model.StateDropped
		return run, nil
	}
	if ev.HeadCommit.ID == "" {
		logger.Info("Push has no head commit, drop event")
		run.State = model.StateDropped
		return run, nil
	}

	release, err := uc.locker.acquire(ctx, target.AppID)
	if err != nil {
		run.State = model.StateDropped
		return run, err
	}
	defer release()

	uc.plan(run, branch)

	graph, err := uc.buildGraph(run)
	if err != nil {
		run.State = model.StateDropped
		return run, err
	}

	run.State = model.StateRunning
	run.StartedAt = uc.now()
	logger.Info("Pipeline started",
		"app", target.AppID,
		"branch", branch,
		"release", run.IsRelease,
		"commit", ev.HeadCommit.ID,
		"actions", graph.Len(),
	)
	uc.notify(ctx, "failed to notify pipeline start", uc.notifyStarted, run)

	result, err := uc.executor.Run(ctx, graph)
	if err != nil {
		run.State = model.StateFailed
		return run, goerr.Wrap(err, "failed to execute pipeline", goerr.V("pipeline_id", run.ID))
	}
	run.Result = result
	run.State = result.Status.State()

	attrs := []any{
		"state", run.State,
		"executed", result.Executed(),
		"duration", uc.now().Sub(run.StartedAt),
	}
	if result.FirstError != nil {
		attrs = append(attrs, "failed_action", result.FirstError.Name, "error", result.FirstError.Err)
		logger.Error("Pipeline failed", attrs...)
	} else {
		logger.Info("Pipeline finished", attrs...)
	}

	uc.notify(ctx, "failed to notify pipeline result", uc.notifyFinished, run)
	return run, nil
}

// plan fills paths, keys and the tag of a run
func (uc *pipelineUseCase) plan(run *model.PipelineRun, branch string) {
	ev, target, settings := run.Event, run.Target, run.Settings
	commit := ev.HeadCommit.ID

	run.Branch = branch
	run.IsRelease = target.IsRelease(branch)

	if target.IsLocal() {
		run.BuildPath = target.LocalPath
	} else {
		run.BuildPath = filepath.Join(settings.BuildDir, commit)
	}
	run.ArchivePath = filepath.Join(settings.CacheDir, commit+".tgz")
	run.ArtifactKey = path.Join(settings.ReleasePath, target.AppID.String(), commit+".tgz")
	if uc.artifacts != nil {
		run.ArtifactURL = uc.artifacts.URL(run.ArtifactKey)
	}
	run.Tag = "build/" + tagBranchPattern.ReplaceAllString(branch, "") + "/" + uc.now().Format(tagTimeFormat)
}

func (uc *pipelineUseCase) notifyStarted(ctx context.Context, run *model.PipelineRun) error {
	return uc.notifier.NotifyStarted(ctx, run)
}

func (uc *pipelineUseCase) notifyFinished(ctx context.Context, run *model.PipelineRun) error {
	return uc.notifier.NotifyFinished(ctx, run)
}

func (uc *pipelineUseCase) notify(ctx context.Context, msg string, fn func(context.Context, *model.PipelineRun) error, run *model.PipelineRun) {
	if uc.notifier == nil {
		return
	}
	if err := fn(ctx, run); err != nil {
		errutil.Handle(ctx, msg, goerr.Wrap(err, msg, goerr.V("pipeline_id", run.ID)))
	}
}
