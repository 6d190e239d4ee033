package github

import (
	"context"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/githook/pkg/domain/interfaces"
	"github.com/m-mizutani/githook/pkg/domain/model"
	"github.com/m-mizutani/githook/pkg/utils/async"
	"github.com/m-mizutani/githook/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/samber/lo"
)

// DispatchFunc runs handler outside of the request lifecycle
type DispatchFunc func(ctx context.Context, handler func(ctx context.Context) error)

// EventProcessor processes GitHub webhook events
type EventProcessor struct {
	pipelineUC interfaces.PipelineUseCase
	dispatch   DispatchFunc
}

// Option is a functional option for EventProcessor configuration
type Option func(*EventProcessor)

// WithDispatch replaces how pipelines are started. async.Sync runs them inline.
func WithDispatch(fn DispatchFunc) Option {
	return func(p *EventProcessor) {
		p.dispatch = fn
	}
}

// NewEventProcessor creates a new GitHub event processor
func NewEventProcessor(pipelineUC interfaces.PipelineUseCase, opts ...Option) *EventProcessor {
	p := &EventProcessor{
		pipelineUC: pipelineUC,
		dispatch:   async.Dispatch,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessEvent processes a GitHub webhook event
func (p *EventProcessor) ProcessEvent(ctx context.Context, event *model.WebhookEvent, payload any) error {
	logger := logging.From(ctx)

	switch event.Type {
	case model.EventTypePush:
		return p.processPushEvent(ctx, event, payload)

	case model.EventTypePing:
		ping, _ := payload.(*github.PingEvent)
		logger.Info("Received ping event",
			"delivery_id", event.ID,
			"hook_id", ping.GetHookID(),
			"zen", ping.GetZen(),
		)
		return nil

	default:
		logger.Info("Ignoring unsupported event type", "delivery_id", event.ID)
		return nil
	}
}

// processPushEvent translates the payload and starts the pipeline without
// waiting for it
func (p *EventProcessor) processPushEvent(ctx context.Context, event *model.WebhookEvent, payload any) error {
	pushEvent, ok := payload.(*github.PushEvent)
	if !ok {
		return goerr.New("invalid push event payload", goerr.V("delivery_id", event.ID))
	}

	push, err := toPushEvent(event.ID, pushEvent)
	if err != nil {
		return err
	}

	logging.From(ctx).Info("Received push event",
		"delivery_id", push.DeliveryID,
		"repository", push.Repository,
		"ref", push.Ref,
		"head_commit", push.HeadCommit.ID,
		"sender", push.Sender.Login,
	)

	p.dispatch(ctx, func(ctx context.Context) error {
		_, err := p.pipelineUC.Run(ctx, push)
		return err
	})
	return nil
}

// toPushEvent extracts the fields used by the pipeline from a push payload
func toPushEvent(deliveryID string, e *github.PushEvent) (*model.PushEvent, error) {
	if e.GetRepo() == nil {
		return nil, goerr.New("missing repository information in push event", goerr.V("delivery_id", deliveryID))
	}
	if e.GetRepo().GetFullName() == "" || e.GetRef() == "" {
		return nil, goerr.New("missing required fields in push event",
			goerr.V("delivery_id", deliveryID),
			goerr.V("repository", e.GetRepo().GetFullName()),
			goerr.V("ref", e.GetRef()),
		)
	}

	return &model.PushEvent{
		DeliveryID:    deliveryID,
		Repository:    e.GetRepo().GetFullName(),
		RepositoryURL: e.GetRepo().GetHTMLURL(),
		SSHURL:        e.GetRepo().GetSSHURL(),
		Ref:           e.GetRef(),
		Compare:       e.GetCompare(),
		HeadCommit:    toCommit(e.GetHeadCommit()),
		Commits: lo.Map(e.Commits, func(c *github.HeadCommit, _ int) model.Commit {
			return toCommit(c)
		}),
		Sender: model.Sender{
			Login:     e.GetSender().GetLogin(),
			URL:       e.GetSender().GetHTMLURL(),
			AvatarURL: e.GetSender().GetAvatarURL(),
		},
	}, nil
}

func toCommit(c *github.HeadCommit) model.Commit {
	return model.Commit{
		ID:      c.GetID(),
		URL:     c.GetURL(),
		Message: c.GetMessage(),
	}
}
