package taskgraph

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrActionAlreadyExists is returned when an action name is added twice
	ErrActionAlreadyExists = goerr.New("action already exists")

	// ErrMissingDependency is returned when an action depends on an unknown action
	ErrMissingDependency = goerr.New("missing dependency")

	// ErrCycleDetected is returned when the dependency relation has a cycle
	ErrCycleDetected = goerr.New("cycle detected")

	// ErrInvalidAction is returned for actions without a name or a unit of work
	ErrInvalidAction = goerr.New("invalid action")

	// ErrActionPanicked is returned when an action's unit of work panics
	ErrActionPanicked = goerr.New("action panicked")
)
