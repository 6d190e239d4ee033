package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/m-mizutani/githook/pkg/utils/logging"
	"github.com/m-mizutani/gt"
)

func TestWithAndFrom(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := logging.With(context.Background(), logger)
	logging.From(ctx).Info("hello", "key", "value")

	gt.String(t, buf.String()).Contains("hello")
	gt.String(t, buf.String()).Contains("key=value")
}

func TestFrom_Default(t *testing.T) {
	gt.True(t, logging.From(context.Background()) == slog.Default())
}
