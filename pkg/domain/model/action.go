package model

import (
	"context"
	"time"
)

// ActionOutput is what a unit of work reports back to the executor
type ActionOutput struct {
	Stdout string
	Stderr string
}

// ActionFunc is the opaque unit of work of an action: a shell invocation or
// an API call
type ActionFunc func(ctx context.Context) (*ActionOutput, error)

// ActionSpec is one node of a task graph
type ActionSpec struct {
	Name         string
	Dependencies []string
	Command      string        // human readable description of Run
	Run          ActionFunc
	Timeout      time.Duration // zero means the executor default
}

// ActionStatus is the outcome of one action
type ActionStatus string

const (
	ActionSucceeded ActionStatus = "succeeded"
	ActionFailed    ActionStatus = "failed"
	ActionSkipped   ActionStatus = "skipped"
)

// ActionResult is the outcome of one action in a pipeline run
type ActionResult struct {
	Name     string
	Command  string
	Status   ActionStatus
	Stdout   string
	Stderr   string
	Warnings string // Stderr after benign lines are filtered out
	Err      error
	Duration time.Duration
}

// Succeeded reports whether the action completed without error
func (x *ActionResult) Succeeded() bool {
	return x.Status == ActionSucceeded
}
