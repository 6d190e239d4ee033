package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/githook/pkg/domain/model"
	"github.com/m-mizutani/githook/pkg/domain/types"
	"github.com/m-mizutani/githook/pkg/taskgraph"
	"github.com/m-mizutani/goerr/v2"
)

// Action names of the build pipeline
const (
	ActionPrepare              = "prepare"
	ActionFetch                = "fetch"
	ActionCheckout             = "checkout"
	ActionReset                = "reset"
	ActionBuild                = "build"
	ActionPackage              = "package"
	ActionPublishArtifact      = "publish-artifact"
	ActionUpdateKVRegistry     = "update-kv-registry"
	ActionUpdateParameterStore = "update-parameter-store"
	ActionTagCommit            = "tag-commit"
	ActionPushTags             = "push-tags"
	ActionCleanup              = "cleanup"
)

var (
	errArtifactStoreNotConfigured  = goerr.New("artifact store is not configured")
	errKVStoreNotConfigured        = goerr.New("kv store is not configured")
	errParameterStoreNotConfigured = goerr.New("parameter store is not configured")
)

// buildGraph composes the task graph of a planned run
func (uc *pipelineUseCase) buildGraph(run *model.PipelineRun) (*taskgraph.Graph, error) {
	target := run.Target
	commit := run.Event.HeadCommit.ID
	var checksum string

	specs := []*model.ActionSpec{
		uc.prepareAction(run),
		uc.fetchAction(run),
		uc.shellAction(ActionCheckout, run.BuildPath,
			fmt.Sprintf("git checkout %s --quiet", quote(run.Branch)), ActionFetch),
		uc.shellAction(ActionReset, run.BuildPath,
			fmt.Sprintf("git reset --hard %s --quiet", quote(commit)), ActionCheckout),
		uc.shellAction(ActionBuild, run.BuildPath, target.BuildCommand, ActionReset),
		{
			Name:         ActionPackage,
			Dependencies: []string{ActionBuild},
			Command:      fmt.Sprintf("tar -czf %s -C %s .", quote(run.ArchivePath), quote(run.BuildPath)),
			Run: func(ctx context.Context) (*model.ActionOutput, error) {
				sum, err := uc.packager.Pack(ctx, run.BuildPath, run.ArchivePath)
				if err != nil {
					return nil, err
				}
				checksum = sum
				return &model.ActionOutput{Stdout: "blake3 " + sum}, nil
			},
		},
	}

	last := ActionPackage
	if run.IsRelease {
		kvKey := ReleaseKey(target.AppID)
		paramName := ReleaseParameter(run.Settings.Environment, target.AppID)

		specs = append(specs,
			&model.ActionSpec{
				Name:         ActionPublishArtifact,
				Dependencies: []string{ActionPackage},
				Command:      "upload " + run.ArtifactKey,
				Run: func(ctx context.Context) (*model.ActionOutput, error) {
					return uc.publish(ctx, run, checksum)
				},
			},
			&model.ActionSpec{
				Name:         ActionUpdateKVRegistry,
				Dependencies: []string{ActionPublishArtifact},
				Command:      fmt.Sprintf("kv set %s %s", kvKey, commit),
				Run: func(ctx context.Context) (*model.ActionOutput, error) {
					if uc.kv == nil {
						return nil, errKVStoreNotConfigured
					}
					if err := uc.kv.Set(ctx, kvKey, commit); err != nil {
						return nil, err
					}
					return &model.ActionOutput{}, nil
				},
			},
			&model.ActionSpec{
				Name:         ActionUpdateParameterStore,
				Dependencies: []string{ActionPublishArtifact},
				Command:      fmt.Sprintf("parameter put --overwrite %s %s", paramName, commit),
				Run: func(ctx context.Context) (*model.ActionOutput, error) {
					if uc.params == nil {
						return nil, errParameterStoreNotConfigured
					}
					if err := uc.params.Put(ctx, paramName, commit); err != nil {
						return nil, err
					}
					return &model.ActionOutput{}, nil
				},
			},
			uc.shellAction(ActionTagCommit, run.BuildPath,
				fmt.Sprintf("git tag --force %s %s", quote(run.Tag), quote(commit)),
				ActionUpdateKVRegistry, ActionUpdateParameterStore),
			uc.shellAction(ActionPushTags, run.BuildPath, "git push --tags --quiet --force", ActionTagCommit),
		)
		last = ActionPushTags
	}

	specs = append(specs, uc.cleanupAction(run, last))

	graph := taskgraph.NewGraph()
	for _, spec := range specs {
		if err := graph.Add(spec); err != nil {
			return nil, err
		}
	}
	return graph, nil
}

func (uc *pipelineUseCase) shellAction(name, dir, command string, deps ...string) *model.ActionSpec {
	return &model.ActionSpec{
		Name:         name,
		Dependencies: deps,
		Command:      command,
		Run: func(ctx context.Context) (*model.ActionOutput, error) {
			return uc.runner.Run(ctx, dir, command)
		},
	}
}

func (uc *pipelineUseCase) prepareAction(run *model.PipelineRun) *model.ActionSpec {
	if run.Target.IsLocal() {
		return &model.ActionSpec{
			Name:    ActionPrepare,
			Command: "test -d " + quote(run.BuildPath),
			Run: func(ctx context.Context) (*model.ActionOutput, error) {
				info, err := os.Stat(run.BuildPath)
				if err != nil {
					return nil, goerr.Wrap(err, "working directory is not available", goerr.V("path", run.BuildPath))
				}
				if !info.IsDir() {
					return nil, goerr.New("working directory is not a directory", goerr.V("path", run.BuildPath))
				}
				return &model.ActionOutput{}, nil
			},
		}
	}

	return uc.shellAction(ActionPrepare, "",
		fmt.Sprintf("mkdir -p %s && rm -rf %s", quote(filepath.Dir(run.BuildPath)), quote(run.BuildPath)))
}

func (uc *pipelineUseCase) fetchAction(run *model.PipelineRun) *model.ActionSpec {
	if run.Target.IsLocal() {
		return uc.shellAction(ActionFetch, run.BuildPath, "git fetch --quiet origin", ActionPrepare)
	}

	url := run.Target.CloneURL(run.Event.SSHURL)
	return uc.shellAction(ActionFetch, "",
		fmt.Sprintf("git clone %s %s --quiet", quote(url), quote(run.BuildPath)), ActionPrepare)
}

func (uc *pipelineUseCase) cleanupAction(run *model.PipelineRun, after string) *model.ActionSpec {
	if run.Target.IsLocal() {
		return uc.shellAction(ActionCleanup, "", "rm -f "+quote(run.ArchivePath), after)
	}
	return uc.shellAction(ActionCleanup, "",
		fmt.Sprintf("rm -rf %s %s", quote(run.BuildPath), quote(run.ArchivePath)), after)
}

func (uc *pipelineUseCase) publish(ctx context.Context, run *model.PipelineRun, checksum string) (*model.ActionOutput, error) {
	if uc.artifacts == nil {
		return nil, errArtifactStoreNotConfigured
	}

	f, err := os.Open(filepath.Clean(run.ArchivePath))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open archive", goerr.V("path", run.ArchivePath))
	}
	defer f.Close()

	metadata := map[string]string{
		"app":    run.Target.AppID.String(),
		"commit": run.Event.HeadCommit.ID,
		"branch": run.Branch,
		"tag":    run.Tag,
	}
	if checksum != "" {
		metadata["blake3"] = checksum
	}

	if err := uc.artifacts.Put(ctx, run.ArtifactKey, f, metadata); err != nil {
		return nil, err
	}
	return &model.ActionOutput{Stdout: run.ArtifactURL}, nil
}

// ReleaseKey is the key/value registry key holding the released commit of app
func ReleaseKey(app types.AppID) string {
	return app.String() + "/release"
}

// ReleaseParameter is the parameter name holding the released commit of app
func ReleaseParameter(environment string, app types.AppID) string {
	return fmt.Sprintf("/%s/%s/release", environment, app)
}

// quote wraps s in single quotes for sh
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
