package model_test

import (
	"testing"

	"github.com/m-mizutani/githook/pkg/domain/model"
	"github.com/m-mizutani/gt"
)

func TestParseSource(t *testing.T) {
	tests := []struct {
		name       string
		source     string
		wantRepo   string
		wantBranch string
		wantErr    bool
	}{
		{name: "without branch", source: "acme/app", wantRepo: "acme/app", wantBranch: "master"},
		{name: "with branch", source: "acme/app#main", wantRepo: "acme/app", wantBranch: "main"},
		{name: "empty branch", source: "acme/app#", wantRepo: "acme/app", wantBranch: "master"},
		{name: "nested branch", source: "acme/app#release/v2", wantRepo: "acme/app", wantBranch: "release/v2"},
		{name: "missing slash", source: "acme", wantErr: true},
		{name: "empty owner", source: "/app", wantErr: true},
		{name: "empty name", source: "acme/", wantErr: true},
		{name: "too many segments", source: "acme/app/extra", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, branch, err := model.ParseSource(tt.source)
			if tt.wantErr {
				gt.Error(t, err)
				return
			}
			gt.NoError(t, err)
			gt.Value(t, repo).Equal(tt.wantRepo)
			gt.Value(t, branch).Equal(tt.wantBranch)
		})
	}
}

func TestBuildTarget_CloneURL(t *testing.T) {
	sshURL := "git@github.com:acme/app.git"

	t.Run("payload url", func(t *testing.T) {
		target := &model.BuildTarget{}
		gt.Value(t, target.CloneURL(sshURL)).Equal(sshURL)
	})

	t.Run("ssh host alias", func(t *testing.T) {
		target := &model.BuildTarget{SSHHost: "github-app"}
		gt.Value(t, target.CloneURL(sshURL)).Equal("git@github-app:acme/app.git")
	})

	t.Run("explicit remote", func(t *testing.T) {
		target := &model.BuildTarget{RemoteURL: "https://git.example.com/app.git", SSHHost: "ignored"}
		gt.Value(t, target.CloneURL(sshURL)).Equal("https://git.example.com/app.git")
	})
}

func TestBuildTarget_Validate(t *testing.T) {
	valid := &model.BuildTarget{AppID: "app", Repository: "acme/app"}
	gt.NoError(t, valid.Validate())

	both := &model.BuildTarget{AppID: "app", Repository: "acme/app", RemoteURL: "x", LocalPath: "/srv/app"}
	gt.Error(t, both.Validate())

	noRepo := &model.BuildTarget{AppID: "app"}
	gt.Error(t, noRepo.Validate())
}

func TestBuildTarget_IsRelease(t *testing.T) {
	target := &model.BuildTarget{ReleaseBranch: "main"}
	gt.True(t, target.IsRelease("main"))
	gt.False(t, target.IsRelease("develop"))
	gt.Value(t, target.ReleaseRef()).Equal("refs/heads/main")
}
