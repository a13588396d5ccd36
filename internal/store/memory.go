// internal/store/memory.go
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/lobbyd/internal/lobby"
)

// MemoryStore keeps lobbies in process memory only. Everything in it is lost on
// restart, which is fine for lobbies that never started a game.
//
// Snapshots are copied on the way in and out, so callers never share state
// with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	lobbies map[uuid.UUID]lobby.Snapshot
	opts    []lobby.Option
}

// NewMemoryStore returns an empty store. opts are applied to every aggregate it hands out.
func NewMemoryStore(opts ...lobby.Option) *MemoryStore {
	return &MemoryStore{
		lobbies: make(map[uuid.UUID]lobby.Snapshot),
		opts:    opts,
	}
}

func (s *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*lobby.Aggregate, error) {
	s.mu.RLock()
	snap, ok := s.lobbies[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return lobby.FromSnapshot(snap.Clone(), s.opts...)
}

func (s *MemoryStore) Save(_ context.Context, agg *lobby.Aggregate) error {
	snap := agg.Snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lobbies[snap.ID] = snap
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lobbies[id]; !ok {
		return ErrNotFound
	}
	delete(s.lobbies, id)
	return nil
}

func (s *MemoryStore) FindAll(_ context.Context) ([]*lobby.Aggregate, error) {
	return rehydrate(s.filter(func(lobby.Snapshot) bool { return true }), s.opts)
}

func (s *MemoryStore) FindByStatus(_ context.Context, status lobby.Status) ([]*lobby.Aggregate, error) {
	return rehydrate(s.filter(func(snap lobby.Snapshot) bool { return snap.Status == status }), s.opts)
}

func (s *MemoryStore) FindAvailable(_ context.Context) ([]*lobby.Aggregate, error) {
	return rehydrate(s.filter(lobby.Snapshot.Available), s.opts)
}

func (s *MemoryStore) FindByInvitationCode(_ context.Context, code string) (*lobby.Aggregate, error) {
	code = lobby.NormalizeInvitationCode(code)
	matches := s.filter(func(snap lobby.Snapshot) bool { return snap.InvitationCode == code })
	if len(matches) == 0 {
		return nil, ErrNotFound
	}
	return lobby.FromSnapshot(matches[0], s.opts...)
}

// Export removes a lobby from the store and returns what was stored.
func (s *MemoryStore) Export(_ context.Context, id uuid.UUID) (lobby.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.lobbies[id]
	if !ok {
		return lobby.Snapshot{}, ErrNotFound
	}
	delete(s.lobbies, id)
	return snap, nil
}

// Restore puts a previously exported snapshot back.
func (s *MemoryStore) Restore(_ context.Context, snap lobby.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lobbies[snap.ID] = snap.Clone()
}

// Len returns the number of stored lobbies.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lobbies)
}

// filter returns clones of matching snapshots, oldest lobby first.
func (s *MemoryStore) filter(keep func(lobby.Snapshot) bool) []lobby.Snapshot {
	s.mu.RLock()
	out := make([]lobby.Snapshot, 0, len(s.lobbies))
	for _, snap := range s.lobbies {
		if keep(snap) {
			out = append(out, snap.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
