package ws

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// EventPublisher is what services use to push events, so they never depend
// on the concrete Hub.
type EventPublisher interface {
	BroadcastToUser(userID string, event Event)
}

// Hub tracks the connected UI sessions, keyed by user.
//
// Register and unregister go through channels drained by Run; broadcasts
// take the read lock and never block on a slow session: a full send buffer
// drops that session.
type Hub struct {
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	seq atomic.Int64
	log *zap.Logger

	// onConnect runs after a session registers, on its own goroutine.
	onConnect func(c *Client)
}

// NewHub creates a Hub. Call Run before accepting connections.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log.Named("hub"),
	}
}

// OnConnect sets the callback that greets a new session (e.g. with the
// inbox snapshot). Must be called before Run.
func (h *Hub) OnConnect(fn func(c *Client)) {
	h.onConnect = fn
}

// Run serves register/unregister until ctx is done, then closes every
// session.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case client := <-h.register:
			h.addClient(client)
			if h.onConnect != nil {
				go h.onConnect(client)
			}

		case client := <-h.unregister:
			h.removeClient(client)

		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true

	h.log.Debug("session connected",
		zap.String("user_id", client.userID),
		zap.Int("sessions", len(h.clients[client.userID])))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.userID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)

	if len(clients) == 0 {
		delete(h.clients, client.userID)
	}
	h.log.Debug("session disconnected",
		zap.String("user_id", client.userID),
		zap.Int("remaining", len(clients)))
}

// BroadcastToUser sends event to every session of userID.
func (h *Hub) BroadcastToUser(userID string, event Event) {
	event.Seq = h.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("failed to marshal event", zap.String("op", event.Op), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userID] {
		select {
		case client.send <- data:
		default:
			h.log.Warn("send buffer full, dropping session", zap.String("user_id", userID))
			go h.drop(client)
		}
	}
}

// SessionCount returns how many sessions userID has open.
func (h *Hub) SessionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// drop queues client for removal unless the hub already stopped.
func (h *Hub) drop(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) shutdown() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for client := range clients {
			close(client.send)
		}
	}
	h.clients = make(map[string]map[*Client]bool)
	h.log.Info("hub shut down, all sessions closed")
}
