package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/githook/pkg/domain/types"
)

// PipelineState is a state of the pipeline state machine
type PipelineState string

const (
	StateReceived              PipelineState = "received"
	StateValidated             PipelineState = "validated"
	StateResolved              PipelineState = "resolved"
	StateRunning               PipelineState = "running"
	StateDropped               PipelineState = "dropped"
	StateFailed                PipelineState = "failed"
	StateCompleted             PipelineState = "completed"
	StateCompletedWithWarnings PipelineState = "completed_with_warnings"
)

// IsTerminal reports whether no further transition can happen
func (s PipelineState) IsTerminal() bool {
	switch s {
	case StateDropped, StateFailed, StateCompleted, StateCompletedWithWarnings:
		return true
	default:
		return false
	}
}

// PipelineStatus is the overall status of an executed task graph
type PipelineStatus string

const (
	PipelineFailed                PipelineStatus = "failed"
	PipelineCompleted             PipelineStatus = "completed"
	PipelineCompletedWithWarnings PipelineStatus = "completed_with_warnings"
)

// State maps a pipeline status to the terminal state of the state machine
func (s PipelineStatus) State() PipelineState {
	switch s {
	case PipelineCompleted:
		return StateCompleted
	case PipelineCompletedWithWarnings:
		return StateCompletedWithWarnings
	default:
		return StateFailed
	}
}

// PipelineResult aggregates the results of one task graph execution
type PipelineResult struct {
	Status     PipelineStatus
	Results    []*ActionResult // in scheduling order
	FirstError *ActionResult   // nil unless Status is failed
}

// Result returns the result of the named action, or nil
func (x *PipelineResult) Result(name string) *ActionResult {
	for _, r := range x.Results {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// Executed returns names of actions that actually ran
func (x *PipelineResult) Executed() []string {
	var names []string
	for _, r := range x.Results {
		if r.Status != ActionSkipped {
			names = append(names, r.Name)
		}
	}
	return names
}

// WarningReport formats surviving stderr of every action as
// "$ command", stdout and stderr blocks
func (x *PipelineResult) WarningReport() string {
	var blocks []string
	for _, r := range x.Results {
		if r.Warnings == "" {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("$ %s\n%s\n%s",
			r.Command, strings.TrimSpace(r.Stdout), strings.TrimSpace(r.Warnings)))
	}
	return strings.Join(blocks, "\n")
}

// PipelineRun holds everything one orchestrator invocation knows about an event
type PipelineRun struct {
	ID          types.PipelineID
	State       PipelineState
	Event       *PushEvent
	Target      *BuildTarget
	Settings    Settings
	Branch      string
	IsRelease   bool
	BuildPath   string // working tree
	ArchivePath string // packaged archive on local disk
	ArtifactKey string // object key in the artifact store
	ArtifactURL string
	Tag         string
	StartedAt   time.Time
	Result      *PipelineResult
}
