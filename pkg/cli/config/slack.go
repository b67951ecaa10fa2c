package config

import (
	"github.com/urfave/cli/v3"

	"github.com/memberops-lab/memberflow/pkg/domain/interfaces"
	"github.com/memberops-lab/memberflow/pkg/service/slack"
)

// Slack holds CLI flags for the messaging channel configuration
type Slack struct {
	botToken        string
	bounceChannelID string
	cancelChannelID string
}

// Flags returns CLI flags for Slack configuration
func (s *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot Token (xoxb-...)",
			Sources:     cli.EnvVars("MEMBERFLOW_SLACK_BOT_TOKEN"),
			Destination: &s.botToken,
		},
		&cli.StringFlag{
			Name:        "slack-bounce-channel-id",
			Usage:       "Channel hosting payment-failure threads",
			Sources:     cli.EnvVars("MEMBERFLOW_SLACK_BOUNCE_CHANNEL_ID"),
			Destination: &s.bounceChannelID,
		},
		&cli.StringFlag{
			Name:        "slack-cancel-channel-id",
			Usage:       "Channel hosting cancellation threads",
			Sources:     cli.EnvVars("MEMBERFLOW_SLACK_CANCEL_CHANNEL_ID"),
			Destination: &s.cancelChannelID,
		},
	}
}

// IsConfigured reports whether a bot token was provided
func (s *Slack) IsConfigured() bool {
	return s.botToken != ""
}

// BounceChannelID returns the payment-failure channel
func (s *Slack) BounceChannelID() string {
	return s.bounceChannelID
}

// CancelChannelID returns the cancellation channel
func (s *Slack) CancelChannelID() string {
	return s.cancelChannelID
}

// Configure builds the messenger, or nil when no token is configured
func (s *Slack) Configure() (interfaces.Messenger, error) {
	if !s.IsConfigured() {
		return nil, nil
	}
	return slack.New(s.botToken)
}
