package client

import (
	"maps"
	"sync"

	"city-relay-server/domain"
	"city-relay-server/protocol"
)

// Target is what the renderer interpolates a remote entity toward. It is
// the last received pose; nothing is extrapolated between updates.
type Target struct {
	Position domain.Vec3
	Rotation domain.Quat
	Action   string
}

// Mirror is the client's read-only copy of the relay roster.
type Mirror struct {
	mu      sync.RWMutex
	self    domain.ConnectionID
	entries map[domain.ConnectionID]domain.TransformSnapshot
}

func NewMirror() *Mirror {
	return &Mirror{entries: make(map[domain.ConnectionID]domain.TransformSnapshot)}
}

// Apply merges one relay event. Events that are not roster events are ignored.
// A moved event for an id the mirror has never seen creates the entry, so a
// lost joined event cannot hide that entity for the rest of the session.
func (m *Mirror) Apply(msg protocol.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch e := msg.(type) {
	case protocol.Roster:
		m.self = e.Self
		m.entries = make(map[domain.ConnectionID]domain.TransformSnapshot, len(e.Players))
		for id, s := range e.Players {
			if id != m.self {
				m.entries[id] = s
			}
		}
	case protocol.Joined:
		if e.ID != m.self {
			m.entries[e.ID] = e.Data
		}
	case protocol.Moved:
		if e.ID != m.self {
			m.entries[e.ID] = e.Data
		}
	case protocol.Left:
		delete(m.entries, e.ID)
	}
}

// Clear drops every remote entity, as when the relay connection is lost.
func (m *Mirror) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.self = ""
	m.entries = make(map[domain.ConnectionID]domain.TransformSnapshot)
}

// Self is the connection id the relay assigned, empty before the first roster.
func (m *Mirror) Self() domain.ConnectionID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.self
}

func (m *Mirror) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Snapshot returns a copy of the mirrored roster.
func (m *Mirror) Snapshot() map[domain.ConnectionID]domain.TransformSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.entries)
}

// Targets returns interpolation targets for every remote entity. Rotations
// are normalized; degenerate ones become the identity.
func (m *Mirror) Targets() map[domain.ConnectionID]Target {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[domain.ConnectionID]Target, len(m.entries))
	for id, s := range m.entries {
		out[id] = Target{Position: s.Position, Rotation: s.Rotation.Normalized(), Action: s.Action}
	}
	return out
}
