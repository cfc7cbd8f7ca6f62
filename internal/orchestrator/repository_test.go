package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"rundown-orchestrator/internal/playout"
)

func TestStoreRepository_UpdatePlaylist(t *testing.T) {
	ctx := context.Background()

	t.Run("not_found", func(t *testing.T) {
		repo := NewInMemoryRepository()
		_, err := repo.UpdatePlaylist(ctx, "missing", func(*PlayoutState) error { return nil })
		if !errors.Is(err, ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("upsert_creates", func(t *testing.T) {
		repo := NewInMemoryRepository()
		st, err := repo.UpsertPlaylist(ctx, "news", func(st *PlayoutState) error {
			st.Playlist.Name = "Evening News"
			return nil
		})
		if err != nil {
			t.Fatalf("UpsertPlaylist: %v", err)
		}
		if st.Playlist.ID != "news" {
			t.Errorf("id = %q", st.Playlist.ID)
		}
		got, err := repo.GetPlaylist(ctx, "news")
		if err != nil || got.Playlist.Name != "Evening News" {
			t.Errorf("upsert not persisted: %v %+v", err, got)
		}
	})

	t.Run("failed_update_is_discarded", func(t *testing.T) {
		repo := NewRepository(NewInMemoryStore())
		_ = repo.store.SetPlaylist(ctx, sampleState("news"))
		boom := errors.New("boom")

		_, err := repo.UpdatePlaylist(ctx, "news", func(st *PlayoutState) error {
			st.Playlist.Name = "half done"
			st.Activated = false
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		got, _ := repo.GetPlaylist(ctx, "news")
		if got.Playlist.Name != "Evening News" || !got.Activated {
			t.Errorf("failed update leaked: %+v", got)
		}
	})

	t.Run("cancelled_context", func(t *testing.T) {
		repo := NewInMemoryRepository()
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		called := false
		_, err := repo.UpsertPlaylist(cctx, "news", func(*PlayoutState) error { called = true; return nil })
		if !errors.Is(err, context.Canceled) || called {
			t.Errorf("expected context.Canceled without running fn, got %v called=%v", err, called)
		}
	})

	t.Run("serialises_updates_per_playlist", func(t *testing.T) {
		repo := NewInMemoryRepository()
		const n = 50
		var wg sync.WaitGroup
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.UpsertPlaylist(ctx, "news", func(st *PlayoutState) error {
					st.Parts = append(st.Parts, playout.Part{ID: playout.PartID(fmt.Sprintf("p%d", i))})
					return nil
				})
				if err != nil {
					t.Errorf("UpsertPlaylist: %v", err)
				}
			}()
		}
		wg.Wait()

		got, _ := repo.GetPlaylist(ctx, "news")
		if len(got.Parts) != n {
			t.Errorf("lost updates: %d parts, want %d", len(got.Parts), n)
		}
	})
}

func TestStoreRepository_ActivePlaylistCount(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(testSQLiteStore(t))

	for i, active := range []bool{true, false, true} {
		id := playout.PlaylistID(fmt.Sprintf("pl%d", i))
		_, err := repo.UpsertPlaylist(ctx, id, func(st *PlayoutState) error {
			st.Activated = active
			return nil
		})
		if err != nil {
			t.Fatalf("UpsertPlaylist: %v", err)
		}
	}
	if got := repo.ActivePlaylistCount(ctx); got != 2 {
		t.Errorf("ActivePlaylistCount = %d, want 2", got)
	}
}
