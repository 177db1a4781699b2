package realtime

import (
	"context"
	"net/http"
	"sync"
	"time"

	"coinsentry/internal/application/port"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// client wraps a connection with a write lock. Gorilla connections allow
// at most one concurrent writer, and Send is called from several
// reconciliation passes at once.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Hub broadcasts fired alerts to connected websocket clients. It is one
// branch of the MultiNotifier: a dashboard tails alerts live while the
// webhook transport does the durable delivery.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &client{conn: conn}
	h.addClient(c)
	log.Info().Str("remote", conn.RemoteAddr().String()).Msg("realtime client connected")

	// drain control frames; the feed is broadcast-only
	go func() {
		defer h.removeClient(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) addClient(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) removeClient(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	_ = c.conn.Close()
}

type alertMessage struct {
	UserID   int64  `json:"user_id"`
	Text     string `json:"text"`
	Critical bool   `json:"critical"`
	TsMs     int64  `json:"ts_ms"`
}

// Send implements port.Notifier by broadcasting to every connected client.
// Writes to one connection are serialized; clients that fail a write are
// dropped.
func (h *Hub) Send(_ context.Context, userID int64, text string, emphasis port.Emphasis) error {
	msg := alertMessage{
		UserID:   userID,
		Text:     text,
		Critical: emphasis == port.EmphasisCritical,
		TsMs:     time.Now().UnixMilli(),
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.writeJSON(msg); err != nil {
			h.removeClient(c)
		}
	}
	return nil
}

var _ port.Notifier = (*Hub)(nil)
