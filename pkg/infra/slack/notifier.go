package slack

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/githook/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/samber/lo"
	"github.com/slack-go/slack"
)

const (
	colorStarted = "#666666"
	colorGood    = "good"
	colorWarning = "warning"
	colorDanger  = "danger"
)

// Notifier posts pipeline progress to a Slack incoming webhook
type Notifier struct {
	webhookURL string
	post       func(ctx context.Context, url string, msg *slack.WebhookMessage) error
}

// Option is a functional option for Notifier configuration
type Option func(*Notifier)

// WithPostFunc replaces the function delivering webhook messages
func WithPostFunc(fn func(ctx context.Context, url string, msg *slack.WebhookMessage) error) Option {
	return func(n *Notifier) {
		n.post = fn
	}
}

// New creates a Notifier for the incoming webhook URL
func New(webhookURL string, opts ...Option) *Notifier {
	n := &Notifier{
		webhookURL: webhookURL,
		post:       slack.PostWebhookContext,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Notifier) send(ctx context.Context, msg *slack.WebhookMessage) error {
	if err := n.post(ctx, n.webhookURL, msg); err != nil {
		return goerr.Wrap(err, "failed to post slack message")
	}
	return nil
}

// NotifyReady greets the channel and lists the watched sources
func (n *Notifier) NotifyReady(ctx context.Context, settings model.Settings, sources []string) error {
	text := fmt.Sprintf("Hello %s! I'm here and waiting for github updates. to", settings.Domain)
	for _, src := range sources {
		text += "\n * " + src
	}
	return n.send(ctx, &slack.WebhookMessage{Text: text})
}

// NotifyStarted announces a pipeline entering the running state
func (n *Notifier) NotifyStarted(ctx context.Context, run *model.PipelineRun) error {
	ev := run.Event

	title := fmt.Sprintf("Build Started for branch [%s]", run.Branch)
	if run.IsRelease {
		title = fmt.Sprintf("Build Started for Auto-Release branch [%s]", run.Branch)
	}

	commits := lo.Map(ev.Commits, func(c model.Commit, _ int) string {
		return fmt.Sprintf("<%s|%s>: %s", c.URL, c.ShortID(), c.Message)
	})

	return n.send(ctx, &slack.WebhookMessage{
		Attachments: []slack.Attachment{
			{
				Fallback: fmt.Sprintf("%s: %s for repo %s, commit %s by *%s* with message:\n> %s",
					run.Settings.Domain, title, repoLink(ev), compareLink(ev), ev.Sender.Login, ev.HeadCommit.Message),
				Title:      title,
				TitleLink:  ev.Compare,
				AuthorName: ev.Sender.Login,
				AuthorLink: ev.Sender.URL,
				AuthorIcon: ev.Sender.AvatarURL,
				Color:      colorStarted,
				Text:       joinLinks(run.Settings.Domain, repoLink(ev), compareLink(ev)),
				MarkdownIn: []string{"text", "title"},
			},
			{
				Text:       strings.Join(commits, "\n"),
				MarkdownIn: []string{"text"},
			},
		},
	})
}

// NotifyFinished reports the terminal state of a pipeline
func (n *Notifier) NotifyFinished(ctx context.Context, run *model.PipelineRun) error {
	if run.Result == nil {
		return goerr.New("pipeline has no result", goerr.V("pipeline_id", run.ID))
	}

	if run.Result.Status == model.PipelineFailed {
		return n.send(ctx, failedMessage(run))
	}
	return n.send(ctx, finishedMessage(run))
}

func failedMessage(run *model.PipelineRun) *slack.WebhookMessage {
	ev := run.Event

	var errText, command string
	if first := run.Result.FirstError; first != nil {
		command = first.Command
		if first.Err != nil {
			errText = first.Err.Error()
		}
		if stderr := strings.TrimSpace(first.Stderr); stderr != "" {
			errText += "\n" + stderr
		}
	}

	detail := "```\n"
	if command != "" {
		detail += "$ " + command + "\n"
	}
	detail += errText + "\n```"

	return &slack.WebhookMessage{
		IconEmoji: ":bangbang:",
		Attachments: []slack.Attachment{
			{
				Fallback: fmt.Sprintf("%s: I failed a Build for repo %s.\n>*Error:*\n> %s",
					run.Settings.Domain, repoLink(ev), errText),
				AuthorName: ev.Sender.Login,
				AuthorLink: ev.Sender.URL,
				AuthorIcon: ev.Sender.AvatarURL,
				Color:      colorDanger,
				Text: "<!here> Build Failed: " +
					joinLinks(run.Settings.Domain, repoLink(ev), compareLink(ev), logsLink(run.Settings)),
				MarkdownIn: []string{"text"},
			},
			{
				Text:       detail,
				MarkdownIn: []string{"text"},
			},
		},
	}
}

func finishedMessage(run *model.PipelineRun) *slack.WebhookMessage {
	ev := run.Event

	title := "Build Complete"
	if run.IsRelease {
		title = "Build Complete and Installed"
	}

	var release string
	if run.IsRelease && run.ArtifactURL != "" {
		release = fmt.Sprintf("<%s|%s>", run.ArtifactURL, run.Tag)
	}

	summary := slack.Attachment{
		Fallback: fmt.Sprintf("%s: I finished a Build for repo %s, commits %s by *%s* with message:\n> %s",
			run.Settings.Domain, repoLink(ev), compareLink(ev), ev.Sender.Login, ev.HeadCommit.Message),
		Title:     title,
		TitleLink: ev.Compare,
		Color:     colorGood,
		Text:      joinLinks(run.Settings.Domain, repoLink(ev), compareLink(ev), release, logsLink(run.Settings)),
	}

	attachments := []slack.Attachment{summary}
	if run.Result.Status == model.PipelineCompletedWithWarnings {
		attachments[0].Title = title + ", with stderr output"
		attachments[0].Color = colorWarning
		attachments = append(attachments, slack.Attachment{
			Text: "```\n" + run.Result.WarningReport() + "\n```",
		})
	}

	return &slack.WebhookMessage{Attachments: attachments}
}

func repoLink(ev *model.PushEvent) string {
	return fmt.Sprintf("<%s|%s>", ev.RepositoryURL, ev.Repository)
}

func compareLink(ev *model.PushEvent) string {
	return fmt.Sprintf("<%s|%s>", ev.Compare, ev.CompareHash())
}

func logsLink(settings model.Settings) string {
	if settings.LogsURL == "" {
		return ""
	}
	return fmt.Sprintf("<%s|Logs>", settings.LogsURL)
}

func joinLinks(parts ...string) string {
	return strings.Join(lo.Compact(parts), " - ")
}
