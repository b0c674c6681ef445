package hub

import (
	"log/slog"
	"sync"

	"city-relay-server/domain"
)

// Hub is the set of connections eligible for fan-out.
type Hub struct {
	clients map[domain.ConnectionID]domain.Connection
	mu      sync.RWMutex
}

func New() *Hub {
	return &Hub{
		clients: make(map[domain.ConnectionID]domain.Connection),
	}
}

func (h *Hub) Register(conn domain.Connection) {
	h.mu.Lock()
	h.clients[conn.ID()] = conn
	count := len(h.clients)
	h.mu.Unlock()

	slog.Debug("client eligible for broadcast", "clientId", conn.ID(), "connected", count)
}

func (h *Hub) Unregister(conn domain.Connection) {
	h.mu.Lock()
	delete(h.clients, conn.ID())
	h.mu.Unlock()
}

// Broadcast delivers data to every registered connection except sender.
// A failed delivery closes that recipient and does not stop the fan-out.
// sender may be nil to reach every connection.
func (h *Hub) Broadcast(sender domain.Connection, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, conn := range h.clients {
		if sender != nil && id == sender.ID() {
			continue
		}
		if err := conn.Send(data); err != nil {
			slog.Debug("delivery failed", "clientId", id, "error", err)
			go func(c domain.Connection) {
				c.Close()
			}(conn)
		}
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
