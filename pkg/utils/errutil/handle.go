package errutil

import (
	"context"
	"log/slog"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/githook/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Handle logs err with its goerr values and reports it to Sentry when a
// Sentry client is configured. It never fails.
func Handle(ctx context.Context, msg string, err error) {
	if err == nil {
		return
	}

	attrs := []any{slog.Any("error", err)}
	if gErr := goerr.Unwrap(err); gErr != nil {
		for k, v := range gErr.Values() {
			attrs = append(attrs, slog.Any(k, v))
		}
	}
	logging.From(ctx).Error(msg, attrs...)

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	if hub.Client() == nil {
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("message", msg)
		hub.CaptureException(err)
	})
}
