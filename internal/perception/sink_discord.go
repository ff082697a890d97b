package perception

import (
	"bytes"
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// DiscordSink pushes identification events to a Discord channel via a bot
// token, as a purely outbound debug channel — only session creation and
// message/file sends are used.
type DiscordSink struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscordSink(token, channelID string) (*DiscordSink, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord sink: %w", err)
	}
	return &DiscordSink{session: session, channelID: channelID}, nil
}

func (s *DiscordSink) PushText(ctx context.Context, text string) error {
	_, err := s.session.ChannelMessageSend(s.channelID, text)
	return err
}

func (s *DiscordSink) PushImage(ctx context.Context, caption string, png []byte) error {
	_, err := s.session.ChannelMessageSendComplex(s.channelID, &discordgo.MessageSend{
		Content: caption,
		Files: []*discordgo.File{
			{Name: "frame.png", ContentType: "image/png", Reader: bytes.NewReader(png)},
		},
	})
	return err
}
