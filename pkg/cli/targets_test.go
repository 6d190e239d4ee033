package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/githook/pkg/domain/model"
	"github.com/m-mizutani/githook/pkg/registry"
	"github.com/m-mizutani/gt"
)

func TestPrintTargets(t *testing.T) {
	color.NoColor = true

	snapshot, err := registry.NewSnapshot(context.Background(), &registry.Config{
		Domain:      "example.com",
		Environment: "prod",
		Targets: map[string]registry.TargetConfig{
			"api": {Source: "acme/api"},
			"web": {Source: "acme/web#main", Path: "/srv/web"},
		},
	})
	gt.NoError(t, err)

	var buf bytes.Buffer
	printTargets(context.Background(), &buf, snapshot, releaseReaders{})

	out := buf.String()
	gt.String(t, out).Contains("example.com (prod)")
	gt.String(t, out).Contains("acme/api #master")
	gt.String(t, out).Contains("acme/web #main")
	gt.String(t, out).Contains("local /srv/web")
	gt.String(t, out).Contains("$ make githook")
}

func TestPrintTargets_Empty(t *testing.T) {
	color.NoColor = true

	snapshot, err := registry.NewSnapshot(context.Background(), &registry.Config{})
	gt.NoError(t, err)

	var buf bytes.Buffer
	printTargets(context.Background(), &buf, snapshot, releaseReaders{})
	gt.String(t, buf.String()).Contains("no build targets")
}

func TestRun_Targets(t *testing.T) {
	gt.Error(t, Run(context.Background(), []string{"githook", "targets", "--config", "/nonexistent/githook.toml"}))
}

type fakeKV map[string]string

func (f fakeKV) Get(ctx context.Context, key string) (string, error) {
	if key == "broken/release" {
		return "", errors.New("connection refused")
	}
	return f[key], nil
}

type fakeParams map[string]*model.Parameter

func (f fakeParams) Get(ctx context.Context, name string) (*model.Parameter, error) {
	return f[name], nil
}

func TestPrintTargets_CurrentRelease(t *testing.T) {
	color.NoColor = true

	snapshot, err := registry.NewSnapshot(context.Background(), &registry.Config{
		Environment: "prod",
		Targets: map[string]registry.TargetConfig{
			"api":    {Source: "acme/api"},
			"web":    {Source: "acme/web#main"},
			"broken": {Source: "acme/broken"},
		},
	})
	gt.NoError(t, err)

	releases := releaseReaders{
		kv: fakeKV{"api/release": "abc123"},
		params: fakeParams{
			"/prod/api/release": {Name: "/prod/api/release", Value: "abc123", UpdatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		},
	}

	var buf bytes.Buffer
	printTargets(context.Background(), &buf, snapshot, releases)

	out := buf.String()
	gt.String(t, out).Contains("kv api/release: abc123")
	gt.String(t, out).Contains("parameter /prod/api/release: abc123 (2024-01-02T03:04:05Z)")
	gt.String(t, out).Contains("kv web/release: not released")
	gt.String(t, out).Contains("parameter /prod/web/release: not released")
	gt.String(t, out).Contains("kv broken/release: connection refused")
}
