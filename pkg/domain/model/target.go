package model

import (
	"strings"
	"time"

	"github.com/m-mizutani/githook/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

const (
	// DefaultReleaseBranch is used when a source has no #branch suffix
	DefaultReleaseBranch = "master"
	// DefaultBuildCommand is run in the working tree by the build action
	DefaultBuildCommand = "make githook"
)

// BuildTarget is a configured repository and its build recipe parameters
type BuildTarget struct {
	AppID         types.AppID
	Repository    string // owner/name
	ReleaseBranch string
	RemoteURL     string // clone URL, exclusive with LocalPath
	LocalPath     string // existing checkout, exclusive with RemoteURL
	SSHHost       string // host alias replacing github.com in the payload ssh_url
	BuildCommand  string
}

// ReleaseRef returns the full ref of the release branch
func (x *BuildTarget) ReleaseRef() string {
	return BranchRef(x.ReleaseBranch)
}

// IsRelease reports whether branch is the configured release branch
func (x *BuildTarget) IsRelease(branch string) bool {
	return x.ReleaseBranch == branch
}

// IsLocal reports whether the target builds in an existing checkout
func (x *BuildTarget) IsLocal() bool {
	return x.LocalPath != ""
}

// CloneURL returns the URL to clone from. sshURL is the payload ssh_url used
// when no RemoteURL is configured.
func (x *BuildTarget) CloneURL(sshURL string) string {
	if x.RemoteURL != "" {
		return x.RemoteURL
	}
	if x.SSHHost != "" {
		return strings.Replace(sshURL, "git@github.com", "git@"+x.SSHHost, 1)
	}
	return sshURL
}

// Validate checks the invariants of a build target
func (x *BuildTarget) Validate() error {
	if x.AppID == "" {
		return goerr.New("app id is required")
	}
	if x.Repository == "" {
		return goerr.New("repository is required", goerr.V("app", x.AppID))
	}
	if x.RemoteURL != "" && x.LocalPath != "" {
		return goerr.New("remote_url and path are mutually exclusive",
			goerr.V("app", x.AppID),
			goerr.V("remote_url", x.RemoteURL),
			goerr.V("path", x.LocalPath),
		)
	}
	return nil
}

// ParseSource parses "owner/repo" or "owner/repo#branch". The branch
// defaults to DefaultReleaseBranch.
func ParseSource(source string) (repository, branch string, err error) {
	repository, branch, _ = strings.Cut(strings.TrimSpace(source), "#")
	if branch == "" {
		branch = DefaultReleaseBranch
	}

	owner, name, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", goerr.New("invalid source, expected owner/repo[#branch]", goerr.V("source", source))
	}

	return repository, branch, nil
}

// Settings are the non-target values of the configuration file
type Settings struct {
	Domain      string // shown in notifications
	Environment string // first segment of parameter store names
	BuildDir    string // parent of per-commit build directories
	CacheDir    string // where archives are written before upload
	ReleasePath string // artifact key prefix
	LogsURL     string // optional link added to notifications
}

// Parameter is a named value in the parameter store
type Parameter struct {
	Name      string
	Value     string
	UpdatedAt time.Time
}
