package orchestrator

import (
	"context"
	"errors"
	"sync"

	"rundown-orchestrator/internal/playout"
)

// ErrPlaylistNotFound is returned when no state exists for a playlist id.
var ErrPlaylistNotFound = errors.New("playlist not found")

// Store is the persistence abstraction for playout state.
// Implementations can be in-memory or SQLite backed.
// The Repository uses Store for all reads and writes; callers of Repository
// do not need to know which Store is used.
type Store interface {
	// GetPlaylist returns ErrPlaylistNotFound when the id is unknown.
	GetPlaylist(ctx context.Context, id playout.PlaylistID) (*PlayoutState, error)
	SetPlaylist(ctx context.Context, st *PlayoutState) error
	ListPlaylistIDs(ctx context.Context) ([]playout.PlaylistID, error)
}

// InMemoryStore is an in-memory implementation of Store. It keeps its own
// copies, so callers may mutate what they pass in or get back.
type InMemoryStore struct {
	mu        sync.RWMutex
	playlists map[playout.PlaylistID]*PlayoutState
}

// NewInMemoryStore returns a new empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		playlists: make(map[playout.PlaylistID]*PlayoutState),
	}
}

// GetPlaylist implements Store.GetPlaylist.
func (s *InMemoryStore) GetPlaylist(_ context.Context, id playout.PlaylistID) (*PlayoutState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.playlists[id]
	if !ok {
		return nil, ErrPlaylistNotFound
	}
	return st.Clone(), nil
}

// SetPlaylist implements Store.SetPlaylist.
func (s *InMemoryStore) SetPlaylist(_ context.Context, st *PlayoutState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playlists[st.Playlist.ID] = st.Clone()
	return nil
}

// ListPlaylistIDs implements Store.ListPlaylistIDs.
func (s *InMemoryStore) ListPlaylistIDs(_ context.Context) ([]playout.PlaylistID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]playout.PlaylistID, 0, len(s.playlists))
	for id := range s.playlists {
		ids = append(ids, id)
	}
	return ids, nil
}
