package preview

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The browser app runs on a different origin than the API in dev.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// StatusFeed returns a handler that upgrades to a websocket and streams the
// sandbox status: the current status on connect, then one message per
// change.
func StatusFeed(b *Bridge) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("preview: websocket upgrade: %v", err)
			return
		}
		defer conn.Close()

		updates := b.Subscribe()
		defer b.Unsubscribe(updates)

		// Drain reads so close frames are processed.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		send := func() error {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			return conn.WriteJSON(b.Status())
		}
		if err := send(); err != nil {
			return
		}

		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-r.Context().Done():
				return
			case <-updates:
				if err := send(); err != nil {
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}
}
