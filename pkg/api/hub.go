package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/NotCoffee418/p1plus_monitor/pkg/session"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // The display page may be served from anywhere on the LAN
	},
}

// DefaultWriteWait bounds a single websocket write. Show runs on the read
// loop, so a client slower than this is dropped.
const DefaultWriteWait = 2 * time.Second

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		WriteWait: DefaultWriteWait,
		logger:    logger.With().Str("component", "hub").Logger(),
		clients:   make(map[*client]bool),
	}
}

// Latest returns a copy of the most recent update, or nil before the first.
func (h *Hub) Latest() *session.Update {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.latest == nil {
		return nil
	}
	latest := *h.latest
	return &latest
}

// Show implements session.Display.
func (h *Hub) Show(update session.Update) {
	payload, err := json.Marshal(update)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode update")
		return
	}

	h.mu.Lock()
	h.latest = &update
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.write(payload, h.WriteWait); err != nil {
			h.logger.Debug().Err(err).Msg("Dropping websocket client")
			h.remove(c)
		}
	}
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and keeps the client registered until its
// connection fails.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}
	c := &client{conn: conn}

	// Holding c.mu until the snapshot is written keeps a concurrent Show
	// from overtaking it.
	c.mu.Lock()
	h.mu.Lock()
	h.clients[c] = true
	latest := h.latest
	h.mu.Unlock()

	// Send current update immediately if available
	if latest != nil {
		var payload []byte
		if payload, err = json.Marshal(latest); err == nil {
			err = c.writeLocked(payload, h.WriteWait)
		}
	}
	c.mu.Unlock()
	if err != nil {
		h.logger.Debug().Err(err).Msg("Dropping websocket client")
		h.remove(c)
		return
	}

	// Keep connection alive
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.remove(c)
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		c.conn.Close()
	}
}

func (c *client) write(payload []byte, wait time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeLocked(payload, wait)
}

func (c *client) writeLocked(payload []byte, wait time.Duration) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(wait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}
