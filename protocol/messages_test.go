package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"city-relay-server/domain"
)

func TestEncode_WireShape(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{
			name: "left carries bare id",
			msg:  Left{ID: "abc"},
			want: `{"type":"left","payload":"abc"}`,
		},
		{
			name: "empty roster is an object",
			msg:  Roster{Self: "me"},
			want: `{"type":"roster","self":"me","payload":{}}`,
		},
		{
			name: "move omits absent fields",
			msg:  Move{Update: domain.PartialSnapshot{Action: ptr("walk")}},
			want: `{"type":"move","payload":{"action":"walk"}}`,
		},
		{
			name: "moved carries full snapshot",
			msg:  Moved{ID: "a", Data: domain.DefaultSnapshot()},
			want: `{"type":"moved","payload":{"id":"a","data":{"position":{"x":0,"y":0,"z":0},"rotation":{"x":0,"y":0,"z":0,"w":1},"action":"idle"}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.msg)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestDecode_Move(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"move","payload":{"position":{"x":1,"y":0,"z":0},"extra":true}}`))
	require.NoError(t, err)

	move, ok := msg.(Move)
	require.True(t, ok)
	require.NotNil(t, move.Update.Position)
	assert.Equal(t, domain.Vec3{X: 1}, *move.Update.Position)
	assert.Nil(t, move.Update.Rotation)
	assert.Nil(t, move.Update.Action)
}

func TestDecode_Malformed(t *testing.T) {
	inputs := []string{
		``,
		`[]`,
		`{"type":"move","payload":[1,2]}`,
		`{"type":"joined","payload":{"data":{}}}`,
		`{"type":"left","payload":""}`,
		`{"type":"","payload":{}}`,
	}
	for _, in := range inputs {
		_, err := Decode([]byte(in))
		assert.ErrorIs(t, err, domain.ErrMalformedUpdate, "input %q", in)
	}
}

func TestDecode_RosterNullPayload(t *testing.T) {
	raw, err := json.Marshal(map[string]any{"type": "roster", "self": "x", "payload": nil})
	require.NoError(t, err)

	msg, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, Roster{Self: "x", Players: map[string]domain.TransformSnapshot{}}, msg)
}
