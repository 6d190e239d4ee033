package usecase

import (
	"context"
	"sync"

	"github.com/m-mizutani/githook/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/semaphore"
)

// targetLocker serializes pipelines of the same build target. A second
// event for a busy target waits for the running one to finish.
type targetLocker struct {
	mu   sync.Mutex
	sems map[types.AppID]*semaphore.Weighted
}

func newTargetLocker() *targetLocker {
	return &targetLocker{sems: make(map[types.AppID]*semaphore.Weighted)}
}

func (l *targetLocker) acquire(ctx context.Context, app types.AppID) (func(), error) {
	l.mu.Lock()
	sem, ok := l.sems[app]
	if !ok {
		sem = semaphore.NewWeighted(1)
		l.sems[app] = sem
	}
	l.mu.Unlock()

	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, goerr.Wrap(err, "failed to acquire target lock", goerr.V("app", app))
	}
	return func() { sem.Release(1) }, nil
}
