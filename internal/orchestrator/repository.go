package orchestrator

import (
	"context"
	"errors"
	"sync"

	"rundown-orchestrator/internal/playout"
)

// Repository defines the concurrency-safe contract for reading and mutating
// playout state.
type Repository interface {
	// GetPlaylist returns a snapshot of the playlist's state, or
	// ErrPlaylistNotFound.
	GetPlaylist(ctx context.Context, id playout.PlaylistID) (*PlayoutState, error)

	// UpdatePlaylist runs fn on a copy of the playlist's state and persists the
	// copy only if fn returns nil. Updates of one playlist run one at a time;
	// different playlists do not block each other.
	UpdatePlaylist(ctx context.Context, id playout.PlaylistID, fn func(st *PlayoutState) error) (*PlayoutState, error)

	// UpsertPlaylist is UpdatePlaylist that hands fn an empty state when the
	// playlist does not exist yet.
	UpsertPlaylist(ctx context.Context, id playout.PlaylistID, fn func(st *PlayoutState) error) (*PlayoutState, error)

	// ActivePlaylistCount returns the number of activated playlists.
	// Used for metrics.
	ActivePlaylistCount(ctx context.Context) int
}

// StoreRepository implements Repository on top of a Store.
type StoreRepository struct {
	mu    sync.Mutex
	locks map[playout.PlaylistID]*sync.Mutex
	store Store
}

// NewInMemoryRepository constructs a repository with a default in-memory store.
func NewInMemoryRepository() *StoreRepository {
	return NewRepository(NewInMemoryStore())
}

// NewRepository constructs a repository that uses the given Store.
func NewRepository(store Store) *StoreRepository {
	return &StoreRepository{
		locks: make(map[playout.PlaylistID]*sync.Mutex),
		store: store,
	}
}

// GetPlaylist implements Repository.GetPlaylist.
func (r *StoreRepository) GetPlaylist(ctx context.Context, id playout.PlaylistID) (*PlayoutState, error) {
	return r.store.GetPlaylist(ctx, id)
}

// UpdatePlaylist implements Repository.UpdatePlaylist.
func (r *StoreRepository) UpdatePlaylist(ctx context.Context, id playout.PlaylistID, fn func(st *PlayoutState) error) (*PlayoutState, error) {
	return r.update(ctx, id, false, fn)
}

// UpsertPlaylist implements Repository.UpsertPlaylist.
func (r *StoreRepository) UpsertPlaylist(ctx context.Context, id playout.PlaylistID, fn func(st *PlayoutState) error) (*PlayoutState, error) {
	return r.update(ctx, id, true, fn)
}

func (r *StoreRepository) update(ctx context.Context, id playout.PlaylistID, create bool, fn func(st *PlayoutState) error) (*PlayoutState, error) {
	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	st, err := r.store.GetPlaylist(ctx, id)
	switch {
	case errors.Is(err, ErrPlaylistNotFound) && create:
		st = &PlayoutState{Playlist: playout.Playlist{ID: id}}
	case err != nil:
		return nil, err
	default:
		st = st.Clone()
	}

	if err := fn(st); err != nil {
		return nil, err
	}
	st.Playlist.ID = id
	if err := r.store.SetPlaylist(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// ActivePlaylistCount implements Repository.ActivePlaylistCount.
func (r *StoreRepository) ActivePlaylistCount(ctx context.Context) int {
	ids, err := r.store.ListPlaylistIDs(ctx)
	if err != nil {
		return 0
	}
	n := 0
	for _, id := range ids {
		if st, err := r.store.GetPlaylist(ctx, id); err == nil && st.Activated {
			n++
		}
	}
	return n
}

// lockFor returns the mutex serialising updates of one playlist.
func (r *StoreRepository) lockFor(id playout.PlaylistID) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[id]
	if !ok {
		l = &sync.Mutex{}
		r.locks[id] = l
	}
	return l
}
