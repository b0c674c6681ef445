package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"city-relay-server/domain"
)

func ptr[T any](v T) *T { return &v }

func TestRegistry_Register(t *testing.T) {
	r := New()
	fixed := time.Unix(1700000000, 0)
	r.now = func() time.Time { return fixed }

	e, err := r.Register("a")
	require.NoError(t, err)
	assert.Equal(t, "a", e.ID)
	assert.Equal(t, domain.DefaultSnapshot(), e.Snapshot)
	assert.Equal(t, fixed, e.CreatedAt)

	all := r.SnapshotAll()
	require.Len(t, all, 1)
	assert.Equal(t, domain.DefaultSnapshot(), all["a"])

	_, err = r.Register("a")
	assert.ErrorIs(t, err, domain.ErrDuplicateSession)
	assert.Len(t, r.SnapshotAll(), 1)
}

func TestRegistry_UpdateMerge(t *testing.T) {
	tests := []struct {
		name     string
		partials []domain.PartialSnapshot
		want     domain.TransformSnapshot
	}{
		{
			name:     "position only",
			partials: []domain.PartialSnapshot{{Position: &domain.Vec3{X: 1}}},
			want:     domain.TransformSnapshot{Position: domain.Vec3{X: 1}, Rotation: domain.IdentityQuat, Action: "idle"},
		},
		{
			name: "later fields overwrite earlier",
			partials: []domain.PartialSnapshot{
				{Position: &domain.Vec3{X: 1}, Action: ptr("walk")},
				{Position: &domain.Vec3{Y: 2}},
				{Action: ptr("run")},
			},
			want: domain.TransformSnapshot{Position: domain.Vec3{Y: 2}, Rotation: domain.IdentityQuat, Action: "run"},
		},
		{
			name: "absent fields never regress",
			partials: []domain.PartialSnapshot{
				{Rotation: &domain.Quat{Y: 1}},
				{Position: &domain.Vec3{Z: 3}},
			},
			want: domain.TransformSnapshot{Position: domain.Vec3{Z: 3}, Rotation: domain.Quat{Y: 1}, Action: "idle"},
		},
		{
			name: "empty action string is a value",
			partials: []domain.PartialSnapshot{
				{Action: ptr("")},
			},
			want: domain.TransformSnapshot{Rotation: domain.IdentityQuat, Action: ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()
			_, err := r.Register("a")
			require.NoError(t, err)

			var last domain.SessionEntry
			for _, p := range tt.partials {
				last, err = r.Update("a", p)
				require.NoError(t, err)
			}

			assert.Equal(t, tt.want, last.Snapshot)
			assert.Equal(t, tt.want, r.SnapshotAll()["a"])
		})
	}
}

func TestRegistry_UpdateUnknown(t *testing.T) {
	r := New()
	_, err := r.Update("ghost", domain.PartialSnapshot{Position: &domain.Vec3{X: 1}})
	assert.ErrorIs(t, err, domain.ErrUnknownSession)
	assert.Empty(t, r.SnapshotAll())
}

func TestRegistry_RemoveIdempotent(t *testing.T) {
	r := New()
	_, err := r.Register("a")
	require.NoError(t, err)
	_, err = r.Register("b")
	require.NoError(t, err)

	e, ok := r.Remove("a")
	assert.True(t, ok)
	assert.Equal(t, "a", e.ID)

	_, ok = r.Remove("a")
	assert.False(t, ok)

	all := r.SnapshotAll()
	assert.NotContains(t, all, "a")
	assert.Contains(t, all, "b")
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_SnapshotIsCopy(t *testing.T) {
	r := New()
	_, err := r.Register("a")
	require.NoError(t, err)

	all := r.SnapshotAll()
	all["a"] = domain.TransformSnapshot{Action: "mutated"}
	delete(all, "a")

	assert.Equal(t, domain.DefaultSnapshot(), r.SnapshotAll()["a"])
}
