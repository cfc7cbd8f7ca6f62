package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rundown-orchestrator/internal/playout"

	"github.com/google/uuid"
)

var (
	// ErrPlaylistNotActive is returned for playout operations on an inactive playlist.
	ErrPlaylistNotActive = errors.New("playlist is not active")

	// ErrNoNextPart is returned by Take when nothing is set as next.
	ErrNoNextPart = errors.New("no next part")

	// ErrNoCurrentPart is returned when an operation needs something on air.
	ErrNoCurrentPart = errors.New("no current part")

	// ErrSegmentNotFound is returned when queueing a segment the playlist does not contain.
	ErrSegmentNotFound = errors.New("segment not found")

	// ErrNoPlayablePart is returned when a queued segment has nothing to play.
	ErrNoPlayablePart = errors.New("segment has no playable part")

	// ErrMarkerNotFound is returned when a QuickLoop marker references nothing.
	ErrMarkerNotFound = errors.New("quickloop marker target not found")
)

// TakeResult describes what a take did besides moving next to current.
type TakeResult struct {
	// ConsumedQueue is set when the taken part was chosen from a queued segment.
	ConsumedQueue bool `json:"consumed_queue"`
	// LoopWrapped is set when the new next part jumps back to the loop start.
	LoopWrapped bool `json:"loop_wrapped"`
	// EndOfRundown is set when nothing is left to set as next.
	EndOfRundown bool `json:"end_of_rundown"`
}

// Service is the playout-state writer. It loads a playlist, asks the playout
// core what to do, and writes the result back through the Repository.
type Service struct {
	repo     Repository
	settings playout.StudioSettings
	now      func() time.Time
	log      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now. Tests use it to pin planned start times.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// NewService returns a Service that stores state in repo and applies the
// given studio settings to QuickLoop decisions.
func NewService(repo Repository, settings playout.StudioSettings, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		settings: settings,
		now:      time.Now,
		log:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "playout")
	return s
}

// GetPlaylist returns the current state of a playlist.
func (s *Service) GetPlaylist(ctx context.Context, id playout.PlaylistID) (*PlayoutState, error) {
	return s.repo.GetPlaylist(ctx, id)
}

// ActivePlaylistCount returns the number of activated playlists.
func (s *Service) ActivePlaylistCount(ctx context.Context) int {
	return s.repo.ActivePlaylistCount(ctx)
}

// ImportPlaylist creates or replaces the rundown data of a playlist. Runtime
// state survives: instances whose part disappeared are marked deleted,
// markers whose target disappeared are dropped, and an active playlist gets a
// fresh next part.
func (s *Service) ImportPlaylist(ctx context.Context, id playout.PlaylistID, doc *Document) (*PlayoutState, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return s.repo.UpsertPlaylist(ctx, id, func(st *PlayoutState) error {
		doc.apply(st)
		g := st.Graph()

		markDeleted(st.Current, g)
		markDeleted(st.Previous, g)
		if st.Next != nil && st.Next.Orphaned != playout.InstanceAdlibPart {
			requeue(st, g)
			st.Next = nil
		}

		s.refreshQuickLoop(st, g, "")
		if st.Activated && st.Next == nil {
			s.selectNext(st, g)
		}
		st.UpdatedAt = s.now()

		s.log.Info("playlist imported",
			slog.String("playlist_id", string(id)),
			slog.Int("rundowns", len(st.Rundowns)),
			slog.Int("segments", len(st.Segments)),
			slog.Int("parts", len(st.Parts)))
		return nil
	})
}

// Activate puts the playlist on air with the first playable part as next.
// Activating an active playlist is a no-op.
func (s *Service) Activate(ctx context.Context, id playout.PlaylistID) (*PlayoutState, error) {
	return s.repo.UpdatePlaylist(ctx, id, func(st *PlayoutState) error {
		if st.Activated {
			return nil
		}
		st.Activated = true
		st.Previous, st.Current, st.Next = nil, nil, nil
		g := st.Graph()
		s.refreshQuickLoop(st, g, "")
		s.selectNext(st, g)
		st.UpdatedAt = s.now()

		s.log.Info("playlist activated", slog.String("playlist_id", string(id)))
		return nil
	})
}

// Deactivate takes the playlist off air and drops its part instances. A
// locked loop keeps its markers.
func (s *Service) Deactivate(ctx context.Context, id playout.PlaylistID) (*PlayoutState, error) {
	return s.repo.UpdatePlaylist(ctx, id, func(st *PlayoutState) error {
		if !st.Activated {
			return nil
		}
		st.Activated = false
		st.Previous, st.Current, st.Next = nil, nil, nil
		st.Playlist.QueuedSegmentID = ""
		s.refreshQuickLoop(st, st.Graph(), "")
		st.UpdatedAt = s.now()

		s.log.Info("playlist deactivated", slog.String("playlist_id", string(id)))
		return nil
	})
}

// Take puts the next part on air and selects a new next part.
func (s *Service) Take(ctx context.Context, id playout.PlaylistID) (*PlayoutState, TakeResult, error) {
	var res TakeResult
	st, err := s.repo.UpdatePlaylist(ctx, id, func(st *PlayoutState) error {
		if !st.Activated {
			return ErrPlaylistNotActive
		}
		if st.Next == nil {
			return ErrNoNextPart
		}
		now := s.now()
		res = TakeResult{}

		taken := st.Next
		taken.TakeCount++
		taken.PlannedStartedPlayback = now
		res.ConsumedQueue = taken.ConsumesQueuedSegmentID
		st.Previous, st.Current, st.Next = st.Current, taken, nil

		g := st.Graph()
		s.refreshQuickLoop(st, g, "")
		overrides := playout.NewQuickLoopService(g, &st.Playlist, st.Current, nil, s.settings).OverriddenValues(st.Current, now)
		st.Current.Part = overrides.Apply(st.Current.Part)

		next := s.selectNext(st, g)
		res.EndOfRundown = next == nil
		res.LoopWrapped = next != nil && !next.ConsumesQueuedSegmentID && loopRunning(st) &&
			g.PartPosition(next.Part).Compare(g.InstancePosition(st.Current)) <= 0
		st.UpdatedAt = now

		attrs := []any{
			slog.String("playlist_id", string(id)),
			slog.String("part_id", string(st.Current.Part.ID)),
			slog.Int("take_count", st.Current.TakeCount),
			slog.Bool("autonext", st.Current.Part.AutoNext),
		}
		if next != nil {
			attrs = append(attrs, slog.String("next_part_id", string(next.Part.ID)), slog.Int("next_index", next.Index))
		}
		s.log.Info("take", attrs...)
		return nil
	})
	if err != nil {
		return nil, TakeResult{}, err
	}
	return st, res, nil
}

// QueueSegment makes the first playable part of a segment the next part. An
// empty segment id clears the queue and restores natural progression.
func (s *Service) QueueSegment(ctx context.Context, id playout.PlaylistID, segmentID playout.SegmentID) (*PlayoutState, error) {
	return s.repo.UpdatePlaylist(ctx, id, func(st *PlayoutState) error {
		if !st.Activated {
			return ErrPlaylistNotActive
		}
		g := st.Graph()
		if segmentID != "" {
			if _, ok := g.Segment(segmentID); !ok {
				return fmt.Errorf("%w: %s", ErrSegmentNotFound, segmentID)
			}
		}
		st.Playlist.QueuedSegmentID = segmentID
		next := s.selectNext(st, g)
		if segmentID != "" && (next == nil || !next.ConsumesQueuedSegmentID) {
			return fmt.Errorf("%w: %s", ErrNoPlayablePart, segmentID)
		}
		st.UpdatedAt = s.now()

		s.log.Info("segment queued",
			slog.String("playlist_id", string(id)),
			slog.String("segment_id", string(segmentID)))
		return nil
	})
}

// SetQuickLoopMarker places one loop boundary. It fails with
// playout.ErrLoopingLocked when the loop is locked.
func (s *Service) SetQuickLoopMarker(ctx context.Context, id playout.PlaylistID, role playout.MarkerRole, marker playout.QuickLoopMarker) (*PlayoutState, error) {
	return s.updateMarker(ctx, id, role, &marker)
}

// ClearQuickLoopMarker removes one loop boundary.
func (s *Service) ClearQuickLoopMarker(ctx context.Context, id playout.PlaylistID, role playout.MarkerRole) (*PlayoutState, error) {
	return s.updateMarker(ctx, id, role, nil)
}

func (s *Service) updateMarker(ctx context.Context, id playout.PlaylistID, role playout.MarkerRole, marker *playout.QuickLoopMarker) (*PlayoutState, error) {
	return s.repo.UpdatePlaylist(ctx, id, func(st *PlayoutState) error {
		g := st.Graph()
		svc := playout.NewQuickLoopService(g, &st.Playlist, st.Current, st.Next, s.settings)
		props, err := svc.UpdatedPropsBySettingAMarker(role, marker)
		if err != nil {
			return err
		}
		if marker != nil && !svc.DoesMarkerExist(*marker) {
			return fmt.Errorf("%w: %s %q", ErrMarkerNotFound, marker.Type, marker.ID)
		}
		st.Playlist.QuickLoop = props
		s.refreshQuickLoop(st, g, role)
		s.afterLoopChange(st, g)

		s.log.Info("quickloop marker updated",
			slog.String("playlist_id", string(id)),
			slog.String("role", string(role)),
			slog.Bool("running", loopRunning(st)))
		return nil
	})
}

// ClearQuickLoopMarkers removes both loop boundaries. A locked loop is left as is.
func (s *Service) ClearQuickLoopMarkers(ctx context.Context, id playout.PlaylistID) (*PlayoutState, error) {
	return s.repo.UpdatePlaylist(ctx, id, func(st *PlayoutState) error {
		g := st.Graph()
		props := playout.NewQuickLoopService(g, &st.Playlist, st.Current, st.Next, s.settings).UpdatedPropsByClearingMarkers()
		if props == nil {
			return nil
		}
		st.Playlist.QuickLoop = props
		s.afterLoopChange(st, g)

		s.log.Info("quickloop cleared", slog.String("playlist_id", string(id)))
		return nil
	})
}

// InsertAdlibPart creates an ad-lib part right after the current part and
// sets it as next. An end marker sitting on the current part follows the
// ad-lib so the loop still closes after it.
func (s *Service) InsertAdlibPart(ctx context.Context, id playout.PlaylistID, title string, duration time.Duration) (*PlayoutState, error) {
	return s.repo.UpdatePlaylist(ctx, id, func(st *PlayoutState) error {
		if !st.Activated {
			return ErrPlaylistNotActive
		}
		if st.Current == nil {
			return ErrNoCurrentPart
		}
		g := st.Graph()
		current := st.Current
		requeue(st, g)

		part := playout.Part{
			ID:                             playout.PartID("adlib-" + uuid.NewString()),
			SegmentID:                      current.Part.SegmentID,
			Rank:                           adlibRank(g, current),
			Title:                          title,
			ExpectedDuration:               duration,
			ExpectedDurationWithTransition: duration,
		}
		st.Next = &playout.PartInstance{
			ID:          playout.PartInstanceID(uuid.NewString()),
			RundownID:   current.RundownID,
			SegmentRank: current.SegmentRank,
			Part:        part,
			Orphaned:    playout.InstanceAdlibPart,
		}

		svc := playout.NewQuickLoopService(g, &st.Playlist, st.Current, st.Next, s.settings)
		if props := svc.PropsForInsertedPart(part.ID); props != nil {
			st.Playlist.QuickLoop = props
		}
		st.UpdatedAt = s.now()

		s.log.Info("adlib part inserted",
			slog.String("playlist_id", string(id)),
			slog.String("part_id", string(part.ID)),
			slog.Duration("duration", duration))
		return nil
	})
}

// refreshQuickLoop writes back the recomputed loop state, if any.
func (s *Service) refreshQuickLoop(st *PlayoutState, g *playout.Graph, justSet playout.MarkerRole) {
	props := playout.NewQuickLoopService(g, &st.Playlist, st.Current, st.Next, s.settings).UpdatedProps(justSet)
	if props != nil {
		st.Playlist.QuickLoop = props
	}
}

// afterLoopChange applies the loop's overrides to the current part and, unless
// an ad-lib is waiting, re-selects next under the new loop.
func (s *Service) afterLoopChange(st *PlayoutState, g *playout.Graph) {
	if !st.Activated {
		return
	}
	if st.Current != nil {
		overrides := playout.NewQuickLoopService(g, &st.Playlist, st.Current, st.Next, s.settings).OverriddenValues(st.Current, s.now())
		st.Current.Part = overrides.Apply(st.Current.Part)
	}
	if st.Next == nil || st.Next.Orphaned != playout.InstanceAdlibPart {
		requeue(st, g)
		s.selectNext(st, g)
	}
}

// requeue puts back the queued segment a next part consumed, so replacing that
// next part keeps the operator's jump. A segment that is gone is not restored.
func requeue(st *PlayoutState, g *playout.Graph) {
	if st.Next == nil || !st.Next.ConsumesQueuedSegmentID || st.Playlist.QueuedSegmentID != "" {
		return
	}
	if _, ok := g.Segment(st.Next.Part.SegmentID); ok {
		st.Playlist.QueuedSegmentID = st.Next.Part.SegmentID
	}
}

// selectNext asks the selector for the next part and stores it as a new
// instance, consuming the queued segment when used.
func (s *Service) selectNext(st *PlayoutState, g *playout.Graph) *playout.NextPartResult {
	res := playout.SelectNextPart(&st.Playlist, st.Previous, st.Current, g, playout.SelectOptions{})
	if res == nil {
		st.Next = nil
		return nil
	}
	seg, _ := g.Segment(res.Part.SegmentID)
	st.Next = &playout.PartInstance{
		ID:                      playout.PartInstanceID(uuid.NewString()),
		RundownID:               seg.RundownID,
		SegmentRank:             seg.Rank,
		Part:                    res.Part,
		ConsumesQueuedSegmentID: res.ConsumesQueuedSegmentID,
	}
	if res.ConsumesQueuedSegmentID {
		st.Playlist.QueuedSegmentID = ""
	}
	return res
}

// markDeleted flags an instance whose source part is gone.
func markDeleted(pi *playout.PartInstance, g *playout.Graph) {
	if pi == nil || pi.IsOrphaned() {
		return
	}
	if _, ok := g.Part(pi.Part.ID); !ok {
		pi.Orphaned = playout.InstanceDeleted
	}
}

func loopRunning(st *PlayoutState) bool {
	return st.Playlist.QuickLoop != nil && st.Playlist.QuickLoop.Running
}

// adlibRank places an ad-lib between the current part and whatever follows it
// in the same segment.
func adlibRank(g *playout.Graph, current *playout.PartInstance) float64 {
	rank := current.Part.Rank
	for _, p := range g.OrderedParts() {
		if p.SegmentID == current.Part.SegmentID && p.Rank > rank {
			return (rank + p.Rank) / 2
		}
	}
	return rank + 1
}
