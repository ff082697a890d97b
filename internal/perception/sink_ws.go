package perception

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/adbplan/planrunner/internal/planlog"
)

// WSSink broadcasts identification events over a local websocket, so a
// developer can watch perception decisions live without a bundled GUI
// studio — this only provides the transport a future studio could attach
// to.
type WSSink struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	clients  map[*websocket.Conn]bool
}

type wsEvent struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Caption string `json:"caption,omitempty"`
	PNGB64  string `json:"png_b64,omitempty"`
}

func NewWSSink() *WSSink {
	return &WSSink{
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:  map[*websocket.Conn]bool{},
	}
}

// ServeHTTP upgrades incoming connections to websocket and registers them
// as broadcast targets.
func (s *WSSink) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		planlog.WarnF("perception.wssink", "upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *WSSink) broadcast(event wsEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(s.clients, conn)
		}
	}
}

func (s *WSSink) PushText(ctx context.Context, text string) error {
	s.broadcast(wsEvent{Type: "text", Text: text})
	return nil
}

func (s *WSSink) PushImage(ctx context.Context, caption string, png []byte) error {
	s.broadcast(wsEvent{Type: "image", Caption: caption, PNGB64: base64.StdEncoding.EncodeToString(png)})
	return nil
}
