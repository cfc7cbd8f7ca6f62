package orchestrator

import (
	"slices"
	"time"

	"rundown-orchestrator/internal/playout"
)

// PlayoutState is the persisted document for one playlist: the ingested
// rundown data plus the runtime part instances.
type PlayoutState struct {
	Playlist playout.Playlist  `json:"playlist"`
	Rundowns []playout.Rundown `json:"rundowns"`
	Segments []playout.Segment `json:"segments"`
	Parts    []playout.Part    `json:"parts"`

	Previous *playout.PartInstance `json:"previous_part_instance,omitempty"`
	Current  *playout.PartInstance `json:"current_part_instance,omitempty"`
	Next     *playout.PartInstance `json:"next_part_instance,omitempty"`

	Activated bool      `json:"activated"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the state.
func (s *PlayoutState) Clone() *PlayoutState {
	out := *s
	out.Playlist = s.Playlist.Clone()
	out.Rundowns = slices.Clone(s.Rundowns)
	out.Segments = slices.Clone(s.Segments)
	out.Parts = slices.Clone(s.Parts)
	out.Previous = cloneInstance(s.Previous)
	out.Current = cloneInstance(s.Current)
	out.Next = cloneInstance(s.Next)
	return &out
}

// Graph builds the ordered view of the playlist's rundown data.
func (s *PlayoutState) Graph() *playout.Graph {
	return playout.NewGraph(s.Playlist.RundownIDs, s.Segments, s.Parts)
}

func cloneInstance(pi *playout.PartInstance) *playout.PartInstance {
	if pi == nil {
		return nil
	}
	out := *pi
	return &out
}
