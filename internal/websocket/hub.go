// Package websocket delivers change notifications to the live connections of
// each owner.
package websocket

import (
	"context"
	"log/slog"
	"sync"
)

type delivery struct {
	ownerID string
	data    []byte
}

// Hub maintains the set of active clients, grouped by owner, and routes each
// message to the connections of a single owner.
type Hub struct {
	// Registered clients by owner
	clients map[string]map[*Client]bool

	deliver    chan delivery
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		deliver:    make(chan delivery, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.With(slog.String("component", "websocket")),
	}
}

// Run starts the hub's event loop and returns when ctx is cancelled. All
// remaining clients are closed on return.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for ownerID, set := range h.clients {
				for client := range set {
					close(client.send)
				}
				delete(h.clients, ownerID)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[client.ownerID]
			if !ok {
				set = make(map[*Client]bool)
				h.clients[client.ownerID] = set
			}
			set[client] = true
			h.mu.Unlock()
			h.logger.Debug("client connected", slog.String("owner_id", client.ownerID), slog.Int("total", h.ClientCount()))

		case client := <-h.unregister:
			h.remove(client)
			h.logger.Debug("client disconnected", slog.String("owner_id", client.ownerID), slog.Int("total", h.ClientCount()))

		case d := <-h.deliver:
			h.mu.Lock()
			for client := range h.clients[d.ownerID] {
				select {
				case client.send <- d.data:
				default:
					// Client send buffer full, drop the connection
					h.removeLocked(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	set, ok := h.clients[client.ownerID]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, client.ownerID)
	}
}

// SendTo queues a message for every connection of ownerID. Messages are
// dropped when the queue is full.
func (h *Hub) SendTo(ownerID string, message []byte) {
	select {
	case h.deliver <- delivery{ownerID: ownerID, data: message}:
	default:
		h.logger.Warn("delivery queue full, dropping message", slog.String("owner_id", ownerID))
	}
}

// Register adds a client to the hub. If the hub has stopped the client's
// send channel is closed immediately.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// OwnerClientCount returns the number of connections of one owner.
func (h *Hub) OwnerClientCount(ownerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[ownerID])
}

// Client represents one WebSocket connection of an owner.
type Client struct {
	ownerID string
	send    chan []byte
}

// NewClient creates a new client for ownerID.
func NewClient(ownerID string) *Client {
	return &Client{
		ownerID: ownerID,
		send:    make(chan []byte, 256),
	}
}

// OwnerID returns the owner the client belongs to.
func (c *Client) OwnerID() string {
	return c.ownerID
}

// Send returns the send channel for the client. It is closed when the hub
// drops the client.
func (c *Client) Send() <-chan []byte {
	return c.send
}
