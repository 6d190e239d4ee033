package interfaces

import (
	"context"
	"io"

	"github.com/m-mizutani/githook/pkg/domain/model"
)

// CommandRunner runs a shell command in a working directory
type CommandRunner interface {
	Run(ctx context.Context, dir, command string) (*model.ActionOutput, error)
}

// Packager writes a gzipped tarball of a directory
type Packager interface {
	// Pack archives srcDir into dstFile and returns the hex checksum of the archive
	Pack(ctx context.Context, srcDir, dstFile string) (checksum string, err error)
}

// ArtifactStore stores packaged build artifacts. Put overwrites existing keys.
type ArtifactStore interface {
	Put(ctx context.Context, key string, body io.Reader, metadata map[string]string) error
	URL(key string) string
}

// KVStore is the shared key/value registry
type KVStore interface {
	Set(ctx context.Context, key, value string) error
}

// KVReader reads back the key/value registry. A missing key yields "".
type KVReader interface {
	Get(ctx context.Context, key string) (string, error)
}

// ParameterStore stores named parameters such as /prod/app/release. Put
// overwrites an existing value.
type ParameterStore interface {
	Put(ctx context.Context, name, value string) error
}

// ParameterReader reads back parameters. A missing parameter yields nil.
type ParameterReader interface {
	Get(ctx context.Context, name string) (*model.Parameter, error)
}

// Notifier reports pipeline progress to a chat channel. Implementations are
// best effort from the pipeline's point of view.
type Notifier interface {
	NotifyReady(ctx context.Context, settings model.Settings, sources []string) error
	NotifyStarted(ctx context.Context, run *model.PipelineRun) error
	NotifyFinished(ctx context.Context, run *model.PipelineRun) error
}

// TargetRegistry resolves repositories to build targets. Target and
// settings come from the same configuration snapshot.
type TargetRegistry interface {
	Resolve(repository string) (*model.BuildTarget, model.Settings, bool)
}
