package registry

import (
	"fmt"
	"sync"
	"time"

	"city-relay-server/domain"
)

// Registry owns the server roster. All methods are safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	entries map[domain.ConnectionID]*domain.SessionEntry
	now     func() time.Time
}

func New() *Registry {
	return &Registry{
		entries: make(map[domain.ConnectionID]*domain.SessionEntry),
		now:     time.Now,
	}
}

func (r *Registry) Register(id domain.ConnectionID) (domain.SessionEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[id]; exists {
		return domain.SessionEntry{}, fmt.Errorf("register %s: %w", id, domain.ErrDuplicateSession)
	}
	e := &domain.SessionEntry{ID: id, Snapshot: domain.DefaultSnapshot(), CreatedAt: r.now()}
	r.entries[id] = e
	return *e, nil
}

// Update shallow-merges p into the entry's snapshot.
func (r *Registry) Update(id domain.ConnectionID, p domain.PartialSnapshot) (domain.SessionEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.entries[id]
	if !exists {
		return domain.SessionEntry{}, fmt.Errorf("update %s: %w", id, domain.ErrUnknownSession)
	}
	e.Snapshot = e.Snapshot.Merge(p)
	return *e, nil
}

// Remove deletes the entry. The second result is false if it was already gone.
func (r *Registry) Remove(id domain.ConnectionID) (domain.SessionEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.entries[id]
	if !exists {
		return domain.SessionEntry{}, false
	}
	delete(r.entries, id)
	return *e, true
}

// SnapshotAll returns a point-in-time copy of the roster.
func (r *Registry) SnapshotAll() map[domain.ConnectionID]domain.TransformSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[domain.ConnectionID]domain.TransformSnapshot, len(r.entries))
	for id, e := range r.entries {
		out[id] = e.Snapshot
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
