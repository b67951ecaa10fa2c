package slack

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"

	"github.com/memberops-lab/memberflow/pkg/domain/interfaces"
)

// client implements interfaces.Messenger
type client struct {
	api *slack.Client
}

var _ interfaces.Messenger = &client{}

// New creates a new Slack messenger with the provided bot token
func New(token string) (interfaces.Messenger, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}

	return &client{api: slack.New(token)}, nil
}

// PostMessage posts a top-level message and returns its timestamp, which
// serves as the thread root for later replies
func (c *client) PostMessage(ctx context.Context, channelID, text string) (string, error) {
	_, ts, err := c.api.PostMessageContext(ctx, channelID,
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return "", wrapAPIError(err, "failed to post message", channelID, "")
	}
	return ts, nil
}

// PostThreadReply posts a reply into an existing thread
func (c *client) PostThreadReply(ctx context.Context, channelID, threadTS, text string) error {
	_, _, err := c.api.PostMessageContext(ctx, channelID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionTS(threadTS),
	)
	if err != nil {
		return wrapAPIError(err, "failed to post thread reply", channelID, threadTS)
	}
	return nil
}

// goneCodes are Slack API error codes meaning the post target no longer
// exists. Threads can be deleted by humans out-of-band; these are detected by
// error-code matching because the API exposes nothing more structured.
var goneCodes = []string{
	"thread_not_found",
	"message_not_found",
	"channel_not_found",
	"is_archived",
}

func wrapAPIError(err error, msg, channelID, threadTS string) error {
	opts := []goerr.Option{
		goerr.V("channel_id", channelID),
	}
	if threadTS != "" {
		opts = append(opts, goerr.V("thread_ts", threadTS))
	}

	errMsg := err.Error()
	for _, code := range goneCodes {
		if strings.Contains(errMsg, code) {
			opts = append(opts, goerr.T(interfaces.ThreadGoneTag))
			break
		}
	}

	return goerr.Wrap(err, msg, opts...)
}
