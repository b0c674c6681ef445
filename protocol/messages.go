package protocol

import (
	"encoding/json"
	"fmt"

	"city-relay-server/domain"
)

// Kind tags a wire envelope.
type Kind string

const (
	KindMove   Kind = "move"
	KindPing   Kind = "ping"
	KindRoster Kind = "roster"
	KindJoined Kind = "joined"
	KindMoved  Kind = "moved"
	KindLeft   Kind = "left"
	KindPong   Kind = "pong"
)

// Message is the closed set of frames exchanged between client and relay.
type Message interface {
	Kind() Kind
}

// Move is a client's partial transform update.
type Move struct {
	Update domain.PartialSnapshot
}

// Ping asks the relay to echo Timestamp back in a Pong.
type Ping struct {
	Timestamp int64 `json:"timestamp"`
}

// Roster is the full roster sent to a joiner, excluding the joiner itself.
type Roster struct {
	Self    domain.ConnectionID
	Players map[domain.ConnectionID]domain.TransformSnapshot
}

type Joined struct {
	ID   domain.ConnectionID      `json:"id"`
	Data domain.TransformSnapshot `json:"data"`
}

type Moved struct {
	ID   domain.ConnectionID      `json:"id"`
	Data domain.TransformSnapshot `json:"data"`
}

type Left struct {
	ID domain.ConnectionID
}

type Pong struct {
	Timestamp  int64 `json:"timestamp"`
	ServerTime int64 `json:"serverTime"`
}

func (Move) Kind() Kind   { return KindMove }
func (Ping) Kind() Kind   { return KindPing }
func (Roster) Kind() Kind { return KindRoster }
func (Joined) Kind() Kind { return KindJoined }
func (Moved) Kind() Kind  { return KindMoved }
func (Left) Kind() Kind   { return KindLeft }
func (Pong) Kind() Kind   { return KindPong }

type envelope struct {
	Type    Kind            `json:"type"`
	Self    string          `json:"self,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// Encode renders m as a single JSON text frame.
func Encode(m Message) ([]byte, error) {
	env := envelope{Type: m.Kind()}

	var payload any
	switch v := m.(type) {
	case Move:
		payload = v.Update
	case Roster:
		env.Self = v.Self
		players := v.Players
		if players == nil {
			players = map[domain.ConnectionID]domain.TransformSnapshot{}
		}
		payload = players
	case Left:
		payload = v.ID
	case Ping, Joined, Moved, Pong:
		payload = v
	default:
		return nil, fmt.Errorf("encode %T: unsupported message", m)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", env.Type, err)
	}
	env.Payload = raw
	return json.Marshal(env)
}

// Decode parses a frame into its typed message. Any shape error is
// reported as domain.ErrMalformedUpdate.
func Decode(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedUpdate, err)
	}
	if len(env.Payload) == 0 {
		env.Payload = json.RawMessage("null")
	}

	switch env.Type {
	case KindMove:
		var p domain.PartialSnapshot
		if err := unmarshalPayload(env, &p); err != nil {
			return nil, err
		}
		if p.Empty() {
			return nil, fmt.Errorf("%w: move has no position, rotation or action", domain.ErrMalformedUpdate)
		}
		return Move{Update: p}, nil
	case KindPing:
		var p Ping
		if err := unmarshalPayload(env, &p); err != nil {
			return nil, err
		}
		return p, nil
	case KindRoster:
		var players map[domain.ConnectionID]domain.TransformSnapshot
		if err := unmarshalPayload(env, &players); err != nil {
			return nil, err
		}
		if players == nil {
			players = map[domain.ConnectionID]domain.TransformSnapshot{}
		}
		return Roster{Self: env.Self, Players: players}, nil
	case KindJoined:
		var j Joined
		if err := unmarshalPayload(env, &j); err != nil {
			return nil, err
		}
		if j.ID == "" {
			return nil, fmt.Errorf("%w: joined without id", domain.ErrMalformedUpdate)
		}
		return j, nil
	case KindMoved:
		var m Moved
		if err := unmarshalPayload(env, &m); err != nil {
			return nil, err
		}
		if m.ID == "" {
			return nil, fmt.Errorf("%w: moved without id", domain.ErrMalformedUpdate)
		}
		return m, nil
	case KindLeft:
		var id string
		if err := unmarshalPayload(env, &id); err != nil {
			return nil, err
		}
		if id == "" {
			return nil, fmt.Errorf("%w: left without id", domain.ErrMalformedUpdate)
		}
		return Left{ID: id}, nil
	case KindPong:
		var p Pong
		if err := unmarshalPayload(env, &p); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", domain.ErrMalformedUpdate, env.Type)
	}
}

func unmarshalPayload(env envelope, target any) error {
	if err := json.Unmarshal(env.Payload, target); err != nil {
		return fmt.Errorf("%w: %s payload: %v", domain.ErrMalformedUpdate, env.Type, err)
	}
	return nil
}
