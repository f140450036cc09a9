package api

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all for dev; restrict in prod
	},
}

// MediaWatchHandler streams discovered-media notifications over a
// websocket, fed by the NATS subject the publisher writes to.
type MediaWatchHandler struct {
	conn    *nats.Conn
	subject string
	auth    func(token string) error
}

func NewMediaWatchHandler(conn *nats.Conn, subject string, auth func(token string) error) *MediaWatchHandler {
	return &MediaWatchHandler{conn: conn, subject: subject, auth: auth}
}

// ServeWS upgrades the connection and relays notifications until the
// client disconnects.
func (h *MediaWatchHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	// Auth via query param (standard for WS)
	if h.auth != nil {
		if err := h.auth(r.URL.Query().Get("token")); err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
	}
	if h.conn == nil {
		http.Error(w, "media watch unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WARN] Media Watch: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	msgs := make(chan *nats.Msg, 64)
	sub, err := h.conn.ChanSubscribe(h.subject, msgs)
	if err != nil {
		log.Printf("[ERROR] Media Watch: subscribe failed: %v", err)
		return
	}
	defer sub.Unsubscribe()

	// Reader goroutine only detects client disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg.Data); err != nil {
				log.Printf("[WARN] Media Watch: write failed: %v", err)
				return
			}
		}
	}
}
