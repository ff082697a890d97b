package perception

import (
	"context"
	"encoding/json"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
)

// LarkSink pushes identification events to a Lark (Feishu) chat as an
// outbound-only debug sink.
type LarkSink struct {
	client *lark.Client
	chatID string
}

func NewLarkSink(appID, appSecret, chatID string) *LarkSink {
	return &LarkSink{client: lark.NewClient(appID, appSecret), chatID: chatID}
}

func (s *LarkSink) PushText(ctx context.Context, text string) error {
	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}
	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType("chat_id").
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(s.chatID).
			MsgType("text").
			Content(string(content)).
			Build()).
		Build()

	resp, err := s.client.Im.Message.Create(ctx, req)
	if err != nil {
		return err
	}
	if !resp.Success() {
		return fmt.Errorf("lark sink: %s", resp.Msg)
	}
	return nil
}

// PushImage does not upload png: it sends the caption and the image size
// in bytes as a text message.
func (s *LarkSink) PushImage(ctx context.Context, caption string, png []byte) error {
	return s.PushText(ctx, fmt.Sprintf("%s (image push not materialized: %d bytes)", caption, len(png)))
}
