package perception

import (
	"bytes"
	"context"

	"github.com/slack-go/slack"
)

// SlackSink pushes identification events to a Slack channel via a bot
// token, as an outbound debug channel.
type SlackSink struct {
	client    *slack.Client
	channelID string
}

func NewSlackSink(botToken, channelID string) *SlackSink {
	return &SlackSink{client: slack.New(botToken), channelID: channelID}
}

func (s *SlackSink) PushText(ctx context.Context, text string) error {
	_, _, err := s.client.PostMessageContext(ctx, s.channelID, slack.MsgOptionText(text, false))
	return err
}

func (s *SlackSink) PushImage(ctx context.Context, caption string, png []byte) error {
	_, err := s.client.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		Channel:  s.channelID,
		Filename: "frame.png",
		FileSize: len(png),
		Reader:   bytes.NewReader(png),
		Title:    caption,
	})
	return err
}
