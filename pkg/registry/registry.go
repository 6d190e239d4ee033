package registry

import (
	"cmp"
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"

	"github.com/m-mizutani/githook/pkg/domain/model"
	"github.com/m-mizutani/githook/pkg/domain/types"
	"github.com/m-mizutani/githook/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Snapshot is an immutable view of the registry. All lookups for one event
// go through the same snapshot.
type Snapshot struct {
	settings model.Settings
	targets  map[string]*model.BuildTarget // by repository full name
	sources  []string
}

// NewSnapshot builds a snapshot from a parsed configuration. Targets with a
// malformed source are skipped with a warning; an invalid target such as one
// with both remote_url and path fails the whole configuration.
func NewSnapshot(ctx context.Context, cfg *Config) (*Snapshot, error) {
	logger := logging.From(ctx)

	s := &Snapshot{
		settings: model.Settings{
			Domain:      cfg.Domain,
			Environment: cfg.Environment,
			BuildDir:    cfg.Paths.Build,
			CacheDir:    cfg.Paths.Cache,
			ReleasePath: cfg.ReleasePath,
			LogsURL:     cfg.LogsURL,
		},
		targets: make(map[string]*model.BuildTarget),
	}
	if s.settings.BuildDir == "" {
		s.settings.BuildDir = filepath.Join(os.TempDir(), "githook", "build")
	}
	if s.settings.CacheDir == "" {
		s.settings.CacheDir = filepath.Join(os.TempDir(), "githook", "cache")
	}

	apps := make([]string, 0, len(cfg.Targets))
	for app := range cfg.Targets {
		apps = append(apps, app)
	}
	slices.Sort(apps)

	for _, app := range apps {
		tc := cfg.Targets[app]

		repo, branch, err := model.ParseSource(tc.Source)
		if err != nil {
			logger.Warn("Skip target with invalid source", "app", app, "source", tc.Source, "error", err)
			continue
		}

		target := &model.BuildTarget{
			AppID:         types.AppID(app),
			Repository:    repo,
			ReleaseBranch: branch,
			RemoteURL:     tc.RemoteURL,
			LocalPath:     tc.Path,
			SSHHost:       tc.SSHHost,
			BuildCommand:  tc.BuildCommand,
		}
		if target.BuildCommand == "" {
			target.BuildCommand = model.DefaultBuildCommand
		}
		if err := target.Validate(); err != nil {
			return nil, goerr.Wrap(err, "invalid build target", goerr.V("app", app))
		}
		if prev, ok := s.targets[repo]; ok {
			logger.Warn("Skip duplicated repository", "app", app, "repository", repo, "registered_by", prev.AppID)
			continue
		}

		s.targets[repo] = target
		s.sources = append(s.sources, tc.Source)
	}

	return s, nil
}

// Resolve looks up the target registered for a repository full name
func (s *Snapshot) Resolve(repository string) (*model.BuildTarget, bool) {
	t, ok := s.targets[repository]
	return t, ok
}

// Settings returns the non-target settings
func (s *Snapshot) Settings() model.Settings {
	return s.settings
}

// Sources returns the configured sources of valid targets, ordered by app ID
func (s *Snapshot) Sources() []string {
	return slices.Clone(s.sources)
}

// Targets returns all valid targets ordered by app ID
func (s *Snapshot) Targets() []*model.BuildTarget {
	targets := make([]*model.BuildTarget, 0, len(s.targets))
	for _, t := range s.targets {
		targets = append(targets, t)
	}
	slices.SortFunc(targets, func(a, b *model.BuildTarget) int {
		return cmp.Compare(a.AppID, b.AppID)
	})
	return targets
}

// Registry holds the current snapshot and swaps it atomically on reload
type Registry struct {
	path    string
	current atomic.Pointer[Snapshot]
}

// New loads path and returns a registry serving its snapshot
func New(ctx context.Context, path string) (*Registry, error) {
	r := &Registry{path: path}
	if err := r.Reload(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// NewStatic returns a registry that always serves snapshot
func NewStatic(snapshot *Snapshot) *Registry {
	r := &Registry{}
	r.current.Store(snapshot)
	return r
}

// Reload re-reads the configuration file and swaps the snapshot. On error
// the previous snapshot stays in place.
func (r *Registry) Reload(ctx context.Context) error {
	if r.path == "" {
		return goerr.New("registry has no config file")
	}

	cfg, err := Load(r.path)
	if err != nil {
		return err
	}

	snapshot, err := NewSnapshot(ctx, cfg)
	if err != nil {
		return goerr.Wrap(err, "failed to load build targets", goerr.V("path", r.path))
	}
	r.current.Store(snapshot)

	logging.From(ctx).Info("Loaded build targets",
		"path", r.path,
		"targets", len(snapshot.targets),
	)
	return nil
}

// Snapshot returns the current snapshot
func (r *Registry) Snapshot() *Snapshot {
	return r.current.Load()
}

// Resolve looks up a target and the settings from one snapshot
func (r *Registry) Resolve(repository string) (*model.BuildTarget, model.Settings, bool) {
	s := r.Snapshot()
	t, ok := s.Resolve(repository)
	return t, s.settings, ok
}
