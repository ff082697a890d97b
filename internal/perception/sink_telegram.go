package perception

import (
	"bytes"
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// TelegramSink pushes identification events to a single Telegram chat. It
// only ever sends, so it skips long-polling and update routing entirely.
type TelegramSink struct {
	bot    *telego.Bot
	chatID int64
}

func NewTelegramSink(token string, chatID int64) (*TelegramSink, error) {
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("telegram sink: %w", err)
	}
	return &TelegramSink{bot: bot, chatID: chatID}, nil
}

func (s *TelegramSink) PushText(ctx context.Context, text string) error {
	_, err := s.bot.SendMessage(ctx, tu.Message(tu.ID(s.chatID), text))
	return err
}

func (s *TelegramSink) PushImage(ctx context.Context, caption string, png []byte) error {
	params := tu.Photo(tu.ID(s.chatID), tu.File(bytes.NewReader(png)))
	params.Caption = caption
	_, err := s.bot.SendPhoto(ctx, params)
	return err
}
