package api

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nerrad567/upnp-display/internal/infrastructure/config"
	"github.com/nerrad567/upnp-display/internal/infrastructure/logging"
)

// ChannelNowPlaying carries a nowplaying.Message whenever the display changes.
const ChannelNowPlaying = "nowplaying.changed"

// Hub fans events out to WebSocket clients. The last event on each
// channel is retained and sent to a client as soon as it subscribes, so
// a page opened mid-track shows the current state at once.
type Hub struct {
	cfg    config.WebSocketConfig
	logger *logging.Logger

	mu       sync.Mutex
	clients  map[*wsClient]struct{}
	retained map[string][]byte
	closed   bool
}

// NewHub creates a hub. Run must be called to tie it to a lifetime.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:      cfg,
		logger:   logger,
		clients:  make(map[*wsClient]struct{}),
		retained: make(map[string][]byte),
	}
}

// Run blocks until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[*wsClient]struct{})
	h.mu.Unlock()

	for c := range clients {
		c.close()
	}
}

// Broadcast sends payload as an event on channel to every subscribed
// client and retains it. It never blocks: a slow client misses events.
func (h *Hub) Broadcast(channel string, payload any) {
	data, err := json.Marshal(WSMessage{
		Type:      WSTypeEvent,
		EventType: channel,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
	if err != nil {
		h.logger.Error("encoding websocket event", "channel", channel, "error", err)
		return
	}

	h.mu.Lock()
	h.retained[channel] = data
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if c.subscribed(channel) {
			c.queue(data)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// add registers c. It reports false once the hub has shut down.
func (h *Hub) add(c *wsClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// retainedEvent returns the last event broadcast on channel, if any.
func (h *Hub) retainedEvent(channel string) ([]byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	data, ok := h.retained[channel]
	return data, ok
}
