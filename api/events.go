package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const eventsWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type eventMessage struct {
	Type    string `json:"type"`
	Key     string `json:"key,omitempty"`
	Removed bool   `json:"removed,omitempty"`
}

// handleEvents streams store changes to the client, so every open page can
// refresh its history and theme when another one changes them.
func (h *handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("events upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	id, changes := h.hub.Subscribe(ctx)
	log := h.log.With(zap.String("subscriber", id))
	log.Debug("events client connected")

	// Goroutine: drain client frames so close/ping control messages are
	// processed; any read error means the client is gone.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := writeEvent(conn, eventMessage{Type: "hello"}); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			log.Debug("events client disconnected")
			return
		case c, ok := <-changes:
			if !ok {
				// Hub closed: the store is shutting down.
				_ = writeEvent(conn, eventMessage{Type: "closed"})
				return
			}
			if err := writeEvent(conn, eventMessage{Type: "change", Key: c.Key, Removed: c.Removed}); err != nil {
				log.Debug("events write", zap.Error(err))
				return
			}
		}
	}
}

// writeEvent sends m, giving up after eventsWriteTimeout.
func writeEvent(conn *websocket.Conn, m eventMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(eventsWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(m)
}
