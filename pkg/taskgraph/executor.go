package taskgraph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m-mizutani/githook/pkg/domain/model"
	"github.com/m-mizutani/githook/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// DefaultActionTimeout bounds a single action unless overridden
const DefaultActionTimeout = 30 * time.Minute

// DefaultAbandonDelay is how long an action may take to return after its
// context is done before the executor stops waiting for it
const DefaultAbandonDelay = 10 * time.Second

// Executor runs task graphs
type Executor struct {
	defaultTimeout time.Duration
	abandonDelay   time.Duration
	parallelism    int
	benignMarkers  []string
}

// Option is a functional option for Executor configuration
type Option func(*Executor)

// WithDefaultTimeout sets the deadline of actions without their own
// Timeout. Zero disables the deadline.
func WithDefaultTimeout(d time.Duration) Option {
	return func(x *Executor) {
		x.defaultTimeout = d
	}
}

// WithAbandonDelay sets how long a cancelled or timed out action may keep
// running before it is recorded as failed and left behind
func WithAbandonDelay(d time.Duration) Option {
	return func(x *Executor) {
		x.abandonDelay = d
	}
}

// WithParallelism limits how many actions run at once. Zero or negative
// means no limit.
func WithParallelism(n int) Option {
	return func(x *Executor) {
		x.parallelism = n
	}
}

// WithBenignMarkers replaces the stderr fragments ignored by warning detection
func WithBenignMarkers(markers ...string) Option {
	return func(x *Executor) {
		x.benignMarkers = markers
	}
}

// NewExecutor creates a new Executor
func NewExecutor(opts ...Option) *Executor {
	x := &Executor{
		defaultTimeout: DefaultActionTimeout,
		abandonDelay:   DefaultAbandonDelay,
		benignMarkers:  DefaultBenignMarkers,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

type actionDone struct {
	result *model.ActionResult
}

type runState struct {
	x        *Executor
	ctx      context.Context
	graph    *Graph
	inDegree map[string]int
	ready    []string
	active   int
	failed   bool
	doneCh   chan actionDone
	results  map[string]*model.ActionResult
}

// Run validates graph and executes it. An action starts only after all its
// dependencies succeeded. After the first failure no new action starts;
// running actions are allowed to finish and the rest are recorded as
// skipped. The returned error is non-nil only when the graph is invalid.
func (x *Executor) Run(ctx context.Context, graph *Graph) (*model.PipelineResult, error) {
	if err := graph.Validate(); err != nil {
		return nil, err
	}

	state := &runState{
		x:        x,
		ctx:      ctx,
		graph:    graph,
		inDegree: make(map[string]int, graph.Len()),
		doneCh:   make(chan actionDone, graph.Len()),
		results:  make(map[string]*model.ActionResult, graph.Len()),
	}
	for _, name := range graph.Order() {
		deps := len(graph.Action(name).Dependencies)
		state.inDegree[name] = deps
		if deps == 0 {
			state.ready = append(state.ready, name)
		}
	}

	for {
		state.schedule()
		if state.active == 0 {
			break
		}
		state.handle(<-state.doneCh)
	}

	return state.aggregate(), nil
}

func (s *runState) schedule() {
	for !s.failed && len(s.ready) > 0 {
		if s.x.parallelism > 0 && s.active >= s.x.parallelism {
			return
		}
		name := s.ready[0]
		s.ready = s.ready[1:]
		s.active++

		go func(spec *model.ActionSpec) {
			s.doneCh <- actionDone{result: s.x.runAction(s.ctx, spec)}
		}(s.graph.Action(name))
	}
}

func (s *runState) handle(done actionDone) {
	s.active--
	res := done.result
	s.results[res.Name] = res

	if !res.Succeeded() {
		s.failed = true
		return
	}

	for _, next := range s.graph.Dependents(res.Name) {
		s.inDegree[next]--
		if s.inDegree[next] == 0 {
			s.ready = insertByRank(s.ready, next, s.graph.rank)
		}
	}
}

func (s *runState) aggregate() *model.PipelineResult {
	result := &model.PipelineResult{Status: model.PipelineCompleted}

	for _, name := range s.graph.Order() {
		res, ok := s.results[name]
		if !ok {
			spec := s.graph.Action(name)
			res = &model.ActionResult{
				Name:    name,
				Command: spec.Command,
				Status:  model.ActionSkipped,
			}
		}
		result.Results = append(result.Results, res)

		switch {
		case res.Status == model.ActionFailed:
			if result.FirstError == nil {
				result.FirstError = res
			}
			result.Status = model.PipelineFailed
		case res.Warnings != "" && result.Status == model.PipelineCompleted:
			result.Status = model.PipelineCompletedWithWarnings
		}
	}

	return result
}

type actionReturn struct {
	out *model.ActionOutput
	err error
}

func (x *Executor) runAction(ctx context.Context, spec *model.ActionSpec) *model.ActionResult {
	logger := logging.From(ctx).With("action", spec.Name)
	start := time.Now()

	res := &model.ActionResult{
		Name:    spec.Name,
		Command: spec.Command,
	}

	timeout := spec.Timeout
	if timeout == 0 {
		timeout = x.defaultTimeout
	}
	actionCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		actionCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	logger.Debug("action started", "command", spec.Command)

	ret := x.await(actionCtx, spec)
	if ret.out != nil {
		res.Stdout = ret.out.Stdout
		res.Stderr = ret.out.Stderr
	}

	// A unit of work ignoring its context must not succeed past the deadline
	err := ret.err
	if ctxErr := actionCtx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		attrs := []goerr.Option{goerr.V("action", spec.Name), goerr.V("timeout", timeout.String())}
		if err != nil {
			attrs = append(attrs, goerr.V("cause", err.Error()))
		}
		err = goerr.Wrap(ctxErr, "action did not finish in time", attrs...)
	}

	res.Status = model.ActionSucceeded
	if err != nil {
		res.Status = model.ActionFailed
		res.Err = err
	}
	res.Duration = time.Since(start)
	res.Warnings = FilterStderr(res.Stderr, x.benignMarkers)

	logger.Debug("action finished",
		"status", res.Status,
		"duration_ms", res.Duration.Milliseconds(),
		"error", res.Err,
	)
	return res
}

// await runs the unit of work in its own goroutine. Once ctx is done the
// action gets abandonDelay to return, then it is left running and reported
// as not finished.
func (x *Executor) await(ctx context.Context, spec *model.ActionSpec) actionReturn {
	done := make(chan actionReturn, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- actionReturn{err: goerr.Wrap(ErrActionPanicked, fmt.Sprint(r), goerr.V("action", spec.Name))}
			}
		}()
		out, err := spec.Run(ctx)
		done <- actionReturn{out: out, err: err}
	}()

	select {
	case ret := <-done:
		return ret
	case <-ctx.Done():
	}

	abandon := time.NewTimer(x.abandonDelay)
	defer abandon.Stop()
	select {
	case ret := <-done:
		return ret
	case <-abandon.C:
		logging.From(ctx).Warn("Abandon action that ignores cancellation", "action", spec.Name)
		return actionReturn{err: ctx.Err()}
	}
}
