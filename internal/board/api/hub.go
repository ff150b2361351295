package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/parlorgames/parlor/internal/message"
)

const watchWriteWait = 10 * time.Second

// watchHub fans appended records out to websocket watchers. Watching is
// a latency optimisation over polling: clients treat a push as a cue to
// poll the full log immediately, so a dropped or duplicated push never
// violates delivery guarantees.
type watchHub struct {
	mu       sync.Mutex
	watchers map[*watcher]struct{}
	upgrader websocket.Upgrader
}

type watcher struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func newWatchHub() *watchHub {
	return &watchHub{
		watchers: make(map[*watcher]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *watchHub) serve(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	sub := &watcher{conn: conn}
	h.mu.Lock()
	h.watchers[sub] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.watchers, sub)
		h.mu.Unlock()
		_ = conn.Close()
	}()

	// Drain the connection so close frames and pings are handled; the
	// watch surface is one-way.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}

func (h *watchHub) broadcast(rec message.Record) {
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}

	h.mu.Lock()
	subs := make([]*watcher, 0, len(h.watchers))
	for sub := range h.watchers {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		sub.mu.Lock()
		_ = sub.conn.SetWriteDeadline(time.Now().Add(watchWriteWait))
		err := sub.conn.WriteMessage(websocket.TextMessage, data)
		sub.mu.Unlock()
		if err != nil {
			h.mu.Lock()
			delete(h.watchers, sub)
			h.mu.Unlock()
			_ = sub.conn.Close()
		}
	}
}
