// Package notifications delivers realtime events to websocket clients.
package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"murmur/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerUser = 12
	maxTotalConns   = 10000
)

var (
	ErrServerConnLimit = errors.New("server connection limit reached")
	ErrUserConnLimit   = errors.New("user connection limit reached")
	ErrHubClosed       = errors.New("hub is shutting down")
)

// Hub maps a user id to that user's open websocket clients.
type Hub struct {
	mu     sync.RWMutex
	conns  map[uint]map[*Client]struct{}
	total  int
	closed bool
}

func NewHub() *Hub {
	return &Hub{conns: make(map[uint]map[*Client]struct{})}
}

// Name identifies the hub in logs and metrics.
func (h *Hub) Name() string { return "notification hub" }

// Register attaches conn to userID. conn may be nil in tests.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if h.total >= maxTotalConns {
		return nil, ErrServerConnLimit
	}

	set, ok := h.conns[userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.conns[userID] = set
	}
	if len(set) >= maxConnsPerUser {
		return nil, ErrUserConnLimit
	}

	client := NewClient(h, conn, userID)
	set[client] = struct{}{}
	h.total++
	observability.ActiveWebSockets.Inc()
	return client, nil
}

// UnregisterClient detaches c. Calling it twice is harmless.
func (h *Hub) UnregisterClient(c *Client) {
	h.mu.Lock()
	removed := false
	if set, ok := h.conns[c.UserID]; ok {
		if _, exists := set[c]; exists {
			delete(set, c)
			h.total--
			removed = true
		}
		if len(set) == 0 {
			delete(h.conns, c.UserID)
		}
	}
	h.mu.Unlock()

	if removed {
		observability.ActiveWebSockets.Dec()
		c.stop()
	}
}

// Deliver queues payload on every connection of userID and returns how many
// clients it reached.
func (h *Hub) Deliver(userID uint, payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for c := range h.conns[userID] {
		c.TrySend(payload)
		n++
	}
	return n
}

// Online reports whether userID has at least one open connection on this node.
func (h *Hub) Online(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID]) > 0
}

// ConnectionCount returns the number of registered clients.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.total
}

// StartWiring subscribes to the per-user redis channels and forwards each
// message to the matching local connections.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPatternSubscriber(ctx, func(channel, payload string) {
		userID, ok := ParseUserChannel(channel)
		if !ok {
			observability.Logger.WarnContext(ctx, "invalid notification channel", slog.String("channel", channel))
			return
		}
		h.Deliver(userID, []byte(payload))
	})
}

// Shutdown sends a going-away close frame to every client and refuses new
// registrations.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	conns := h.conns
	h.conns = make(map[uint]map[*Client]struct{})
	h.total = 0
	h.mu.Unlock()

	for userID, set := range conns {
		for c := range set {
			observability.ActiveWebSockets.Dec()
			c.stop()
			if c.Conn == nil {
				continue
			}
			if err := c.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
				observability.Logger.DebugContext(ctx, "websocket close frame failed",
					slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
			}
			_ = c.Conn.Close()
		}
	}
	return nil
}
