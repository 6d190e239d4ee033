package interfaces

import (
	"context"

	"github.com/m-mizutani/githook/pkg/domain/model"
)

// EventProcessor translates verified webhook events and hands them to use cases
type EventProcessor interface {
	// ProcessEvent processes a webhook event. payload is the value returned by
	// github.ParseWebHook for the event type.
	ProcessEvent(ctx context.Context, event *model.WebhookEvent, payload any) error
}

// PipelineUseCase runs the build pipeline for a push event
type PipelineUseCase interface {
	// Run resolves the build target of the push, executes the task graph and
	// reports the result. It returns the run with its terminal state.
	Run(ctx context.Context, event *model.PushEvent) (*model.PipelineRun, error)
}
