package async

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/githook/pkg/utils/errutil"
	"github.com/m-mizutani/githook/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Dispatch executes a handler function asynchronously with proper context and panic recovery
//
// Parameters:
//   - ctx: Original context (values will be preserved, but cancellation won't affect the async handler)
//   - handler: Function to execute asynchronously
//
// Behavior:
//   - Creates a new background context with preserved logger and Sentry hub
//   - Executes handler in a new goroutine
//   - Recovers from panics and logs them
//   - Reports errors returned by handler via errutil.Handle
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	newCtx := newBackgroundContext(ctx)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				logger := logging.From(newCtx)
				logger.Error("panic in async handler",
					"recover", r,
					"stack", string(stack))
				if hub := sentry.GetHubFromContext(newCtx); hub != nil {
					hub.Recover(r)
				}
			}
		}()

		if err := handler(newCtx); err != nil {
			errutil.Handle(newCtx, "error in async handler", err)
		}
	}()
}

// Sync runs handler in the calling goroutine with the same context handling
// as Dispatch. Tests use it to observe handler results deterministically.
func Sync(ctx context.Context, handler func(ctx context.Context) error) {
	newCtx := newBackgroundContext(ctx)
	defer func() {
		if r := recover(); r != nil {
			errutil.Handle(newCtx, "panic in sync handler", goerr.New(fmt.Sprint(r)))
		}
	}()

	if err := handler(newCtx); err != nil {
		errutil.Handle(newCtx, "error in sync handler", err)
	}
}

// newBackgroundContext creates a new background context preserving important values
//
// Preserved values:
//   - logger
//   - Sentry hub
//
// Returns: New context.Background() with preserved values
func newBackgroundContext(ctx context.Context) context.Context {
	newCtx := context.Background()
	newCtx = logging.With(newCtx, logging.From(ctx))
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		newCtx = sentry.SetHubOnContext(newCtx, hub)
	}
	return newCtx
}
