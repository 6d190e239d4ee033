package config

import (
	"github.com/m-mizutani/githook/pkg/infra/slack"
	"github.com/urfave/cli/v3"
)

// Slack holds chat notification configuration
type Slack struct {
	WebhookURL string `masq:"secret"`
}

// Flags returns CLI flags for Slack configuration
func (c *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook URL for build notifications",
			Destination: &c.WebhookURL,
			Sources:     cli.EnvVars("GITHOOK_SLACK_WEBHOOK_URL"),
		},
	}
}

// Configure creates the notifier. It returns nil when no URL is set.
func (c *Slack) Configure() *slack.Notifier {
	if c.WebhookURL == "" {
		return nil
	}
	return slack.New(c.WebhookURL)
}
