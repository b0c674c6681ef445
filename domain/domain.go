package domain

import (
	"errors"
	"math"
	"time"
)

var (
	ErrUnknownSession   = errors.New("unknown session")
	ErrDuplicateSession = errors.New("duplicate session")
	ErrMalformedUpdate  = errors.New("malformed update")
	ErrSendQueueFull    = errors.New("send queue full")
)

// ConnectionID is assigned by the server when a connection is accepted.
type ConnectionID = string

// ActionIdle is the action tag of a freshly joined entity.
const ActionIdle = "idle"

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type Quat struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// IdentityQuat is the rotation of a freshly joined entity.
var IdentityQuat = Quat{W: 1}

// Normalized returns q scaled to unit length. Degenerate input (zero length,
// NaN or Inf components) yields the identity.
func (q Quat) Normalized() Quat {
	n := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return IdentityQuat
	}
	return Quat{X: q.X / n, Y: q.Y / n, Z: q.Z / n, W: q.W / n}
}

// TransformSnapshot is one entity's pose and intent. Action is opaque to the relay.
type TransformSnapshot struct {
	Position Vec3   `json:"position"`
	Rotation Quat   `json:"rotation"`
	Action   string `json:"action"`
}

// DefaultSnapshot is the pose assigned on register: origin, identity, idle.
func DefaultSnapshot() TransformSnapshot {
	return TransformSnapshot{Rotation: IdentityQuat, Action: ActionIdle}
}

// PartialSnapshot carries the fields of a move update. Nil fields are absent.
type PartialSnapshot struct {
	Position *Vec3   `json:"position,omitempty"`
	Rotation *Quat   `json:"rotation,omitempty"`
	Action   *string `json:"action,omitempty"`
}

// Empty reports whether no field is present.
func (p PartialSnapshot) Empty() bool {
	return p.Position == nil && p.Rotation == nil && p.Action == nil
}

// Merge returns s with every present field of p replacing the prior value.
func (s TransformSnapshot) Merge(p PartialSnapshot) TransformSnapshot {
	if p.Position != nil {
		s.Position = *p.Position
	}
	if p.Rotation != nil {
		s.Rotation = *p.Rotation
	}
	if p.Action != nil {
		s.Action = *p.Action
	}
	return s
}

// Diff returns the fields of s that differ from prev.
func (s TransformSnapshot) Diff(prev TransformSnapshot) PartialSnapshot {
	var p PartialSnapshot
	if s.Position != prev.Position {
		pos := s.Position
		p.Position = &pos
	}
	if s.Rotation != prev.Rotation {
		rot := s.Rotation
		p.Rotation = &rot
	}
	if s.Action != prev.Action {
		action := s.Action
		p.Action = &action
	}
	return p
}

// Full returns a partial with every field of s present.
func (s TransformSnapshot) Full() PartialSnapshot {
	pos, rot, action := s.Position, s.Rotation, s.Action
	return PartialSnapshot{Position: &pos, Rotation: &rot, Action: &action}
}

type SessionEntry struct {
	ID        ConnectionID
	Snapshot  TransformSnapshot
	CreatedAt time.Time
}

type Connection interface {
	ID() ConnectionID
	Send(data []byte) error
	Close() error
}

type Broadcaster interface {
	Register(conn Connection)
	Unregister(conn Connection)
	Broadcast(sender Connection, data []byte)
	Len() int
}

// SessionHandler receives the lifecycle events of one connection.
// Calls for a single connection never overlap.
type SessionHandler interface {
	Connect(conn Connection)
	Handle(conn Connection, data []byte)
	Disconnect(conn Connection)
}
