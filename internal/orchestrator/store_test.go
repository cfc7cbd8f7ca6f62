package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sort"
	"testing"

	"rundown-orchestrator/internal/playout"
)

func testSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
	st, err := NewSQLiteStore(":memory:", logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleState(id playout.PlaylistID) *PlayoutState {
	return &PlayoutState{
		Playlist: playout.Playlist{
			ID:         id,
			Name:       "Evening News",
			RundownIDs: []playout.RundownID{"rd1"},
			QuickLoop: &playout.QuickLoopProps{
				Start:         playout.SegmentMarker("seg1"),
				End:           playout.PlaylistMarker(),
				ForceAutoNext: playout.ForceAutoNextWhenValidDuration,
			},
		},
		Rundowns: []playout.Rundown{{ID: "rd1", Name: "Main"}},
		Segments: []playout.Segment{{ID: "seg1", RundownID: "rd1", Name: "Opening"}},
		Parts:    []playout.Part{{ID: "p1", SegmentID: "seg1", Title: "Headlines", ExpectedDuration: 5e9}},
		Current: &playout.PartInstance{
			ID:                     "pi1",
			RundownID:              "rd1",
			Part:                   playout.Part{ID: "p1", SegmentID: "seg1"},
			TakeCount:              1,
			PlannedStartedPlayback: testNow,
		},
		Activated: true,
		UpdatedAt: testNow,
	}
}

func TestStores(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewInMemoryStore() },
		"sqlite": func(t *testing.T) Store { return testSQLiteStore(t) },
	}
	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			t.Run("not_found", func(t *testing.T) {
				_, err := newStore(t).GetPlaylist(ctx, "missing")
				if !errors.Is(err, ErrPlaylistNotFound) {
					t.Errorf("expected ErrPlaylistNotFound, got %v", err)
				}
			})

			t.Run("set_get", func(t *testing.T) {
				store := newStore(t)
				if err := store.SetPlaylist(ctx, sampleState("news")); err != nil {
					t.Fatalf("SetPlaylist: %v", err)
				}
				got, err := store.GetPlaylist(ctx, "news")
				if err != nil {
					t.Fatalf("GetPlaylist: %v", err)
				}
				if got.Playlist.Name != "Evening News" || !got.Activated || len(got.Parts) != 1 {
					t.Errorf("unexpected state: %+v", got)
				}
				if got.Parts[0].ExpectedDuration != 5e9 {
					t.Errorf("duration lost: %v", got.Parts[0].ExpectedDuration)
				}
				ql := got.Playlist.QuickLoop
				if ql == nil || ql.Start.Type != playout.MarkerSegment || ql.End.Type != playout.MarkerPlaylist {
					t.Errorf("quickloop markers lost: %+v", ql)
				}
				if got.Current == nil || !got.Current.PlannedStartedPlayback.Equal(testNow) {
					t.Errorf("current instance lost: %+v", got.Current)
				}
			})

			t.Run("set_replaces", func(t *testing.T) {
				store := newStore(t)
				first := sampleState("news")
				second := sampleState("news")
				second.Playlist.Name = "Late News"
				_ = store.SetPlaylist(ctx, first)
				_ = store.SetPlaylist(ctx, second)

				got, err := store.GetPlaylist(ctx, "news")
				if err != nil || got.Playlist.Name != "Late News" {
					t.Errorf("SetPlaylist should replace: %v %+v", err, got)
				}
			})

			t.Run("list", func(t *testing.T) {
				store := newStore(t)
				_ = store.SetPlaylist(ctx, sampleState("b"))
				_ = store.SetPlaylist(ctx, sampleState("a"))
				ids, err := store.ListPlaylistIDs(ctx)
				if err != nil {
					t.Fatalf("ListPlaylistIDs: %v", err)
				}
				sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
				if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
					t.Errorf("got %v", ids)
				}
			})

			t.Run("returns_copies", func(t *testing.T) {
				store := newStore(t)
				in := sampleState("news")
				_ = store.SetPlaylist(ctx, in)
				in.Playlist.Name = "mutated"
				in.Playlist.QuickLoop.Start.ID = "mutated"

				got, _ := store.GetPlaylist(ctx, "news")
				got.Parts[0].Title = "mutated"
				again, _ := store.GetPlaylist(ctx, "news")
				if again.Playlist.Name != "Evening News" || again.Playlist.QuickLoop.Start.ID != "seg1" || again.Parts[0].Title != "Headlines" {
					t.Errorf("store shares memory with callers: %+v", again)
				}
			})
		})
	}
}
