package protocol

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"city-relay-server/domain"
	"city-relay-server/registry"
)

// Handler sequences connect, update and disconnect events against the
// registry. Events from all connections are serialized by mu so that a
// joiner's roster always precedes any broadcast it can receive.
type Handler struct {
	mu          sync.Mutex
	registry    *registry.Registry
	broadcaster domain.Broadcaster
	now         func() time.Time
}

func NewHandler(r *registry.Registry, b domain.Broadcaster) *Handler {
	return &Handler{registry: r, broadcaster: b, now: time.Now}
}

func (h *Handler) Connect(conn domain.Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry, err := h.registry.Register(conn.ID())
	if err != nil {
		slog.Error("register failed", "clientId", conn.ID(), "error", err)
		conn.Close()
		return
	}

	roster := h.registry.SnapshotAll()
	delete(roster, conn.ID())
	if !h.send(conn, Roster{Self: conn.ID(), Players: roster}) {
		conn.Close()
	}

	h.broadcaster.Register(conn)
	h.broadcast(conn, Joined{ID: conn.ID(), Data: entry.Snapshot})

	slog.Info("client connected", "clientId", conn.ID(), "sessions", h.registry.Len())
}

func (h *Handler) Handle(conn domain.Connection, data []byte) {
	msg, err := Decode(data)
	if err != nil {
		slog.Warn("invalid message", "clientId", conn.ID(), "error", err)
		return
	}

	switch m := msg.(type) {
	case Move:
		h.move(conn, m)
	case Ping:
		h.send(conn, Pong{Timestamp: m.Timestamp, ServerTime: h.now().UnixMilli()})
	default:
		slog.Warn("invalid message", "clientId", conn.ID(), "error", domain.ErrMalformedUpdate, "type", msg.Kind())
	}
}

func (h *Handler) move(conn domain.Connection, m Move) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry, err := h.registry.Update(conn.ID(), m.Update)
	if errors.Is(err, domain.ErrUnknownSession) {
		slog.Debug("update for removed session", "clientId", conn.ID())
		return
	}
	if err != nil {
		slog.Warn("update failed", "clientId", conn.ID(), "error", err)
		return
	}

	h.broadcast(conn, Moved{ID: conn.ID(), Data: entry.Snapshot})
}

// Disconnect may be called more than once; only the first call broadcasts left.
func (h *Handler) Disconnect(conn domain.Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.broadcaster.Unregister(conn)
	if _, ok := h.registry.Remove(conn.ID()); !ok {
		return
	}
	h.broadcast(conn, Left{ID: conn.ID()})

	slog.Info("client disconnected", "clientId", conn.ID(), "sessions", h.registry.Len())
}

// Sessions returns the number of roster entries.
func (h *Handler) Sessions() int {
	return h.registry.Len()
}

func (h *Handler) send(conn domain.Connection, m Message) bool {
	data, err := Encode(m)
	if err != nil {
		slog.Warn("marshal error", "clientId", conn.ID(), "error", err)
		return false
	}
	if err := conn.Send(data); err != nil {
		slog.Debug("send failed", "clientId", conn.ID(), "type", m.Kind(), "error", err)
		return false
	}
	return true
}

func (h *Handler) broadcast(sender domain.Connection, m Message) {
	data, err := Encode(m)
	if err != nil {
		slog.Warn("marshal error", "clientId", sender.ID(), "error", err)
		return
	}
	h.broadcaster.Broadcast(sender, data)
}
