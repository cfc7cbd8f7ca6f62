// Package playout holds the rundown navigation core: the ordered rundown graph,
// QuickLoop region bookkeeping and the next-part selector. Everything here is a
// pure function over an in-memory snapshot; callers own persistence, locking and
// the clock.
package playout

import (
	"fmt"
	"time"
)

// PlaylistID uniquely identifies a rundown playlist.
type PlaylistID string

// RundownID identifies a rundown. It is stable across re-ingest.
type RundownID string

// SegmentID identifies a segment within a rundown.
type SegmentID string

// PartID identifies a part within a segment.
type PartID string

// PartInstanceID identifies a runtime instance of a part.
type PartInstanceID string

// Rundown is an ordered group of segments. Its position inside a playlist is
// given by Playlist.RundownIDs.
type Rundown struct {
	ID   RundownID `json:"id" yaml:"id"`
	Name string    `json:"name" yaml:"name"`
}

// SegmentOrphanedReason explains why a segment is no longer backed by ingest data.
type SegmentOrphanedReason string

const (
	SegmentNotOrphaned          SegmentOrphanedReason = ""
	SegmentOrphanedDeleted      SegmentOrphanedReason = "deleted"
	SegmentOrphanedAdlibTesting SegmentOrphanedReason = "adlib-testing"
)

// Segment is an ordered group of parts.
type Segment struct {
	ID        SegmentID             `json:"id" yaml:"id"`
	RundownID RundownID             `json:"rundown_id" yaml:"rundown_id"`
	Rank      float64               `json:"rank" yaml:"rank"`
	Name      string                `json:"name" yaml:"name"`
	Orphaned  SegmentOrphanedReason `json:"orphaned,omitempty" yaml:"orphaned,omitempty"`
}

// IsOrphaned reports whether the segment is excluded from forward navigation.
func (s Segment) IsOrphaned() bool {
	return s.Orphaned != SegmentNotOrphaned
}

// Part is the smallest schedulable unit of a rundown.
type Part struct {
	ID        PartID    `json:"id" yaml:"id"`
	SegmentID SegmentID `json:"segment_id" yaml:"segment_id"`
	Rank      float64   `json:"rank" yaml:"rank"`
	Title     string    `json:"title" yaml:"title"`

	// Invalid parts are never playable; floated parts are temporarily excluded.
	Invalid bool `json:"invalid,omitempty" yaml:"invalid,omitempty"`
	Floated bool `json:"floated,omitempty" yaml:"floated,omitempty"`

	ExpectedDuration               time.Duration `json:"expected_duration,omitempty" yaml:"expected_duration,omitempty"`
	ExpectedDurationWithTransition time.Duration `json:"expected_duration_with_transition,omitempty" yaml:"expected_duration_with_transition,omitempty"`
	AutoNext                       bool          `json:"autonext,omitempty" yaml:"autonext,omitempty"`
	AutoNextOverlap                time.Duration `json:"autonext_overlap,omitempty" yaml:"autonext_overlap,omitempty"`
}

// IsPlayable reports whether the part may be selected for playback.
func (p Part) IsPlayable() bool {
	return !p.Invalid && !p.Floated
}

// HasValidDuration reports whether the part declares a positive expected duration.
func (p Part) HasValidDuration() bool {
	return p.ExpectedDuration > 0
}

// PartInstanceOrphaned marks an instance whose source part is gone.
type PartInstanceOrphaned string

const (
	InstanceNotOrphaned PartInstanceOrphaned = ""
	InstanceDeleted     PartInstanceOrphaned = "deleted"
	InstanceAdlibPart   PartInstanceOrphaned = "adlib-part"
)

// PartInstance is a runtime snapshot of a part chosen for playback. The embedded
// Part, RundownID and SegmentRank are captured at creation time and do not follow
// later reordering of the source part.
type PartInstance struct {
	ID          PartInstanceID       `json:"id"`
	RundownID   RundownID            `json:"rundown_id"`
	SegmentRank float64              `json:"segment_rank"`
	Part        Part                 `json:"part"`
	Orphaned    PartInstanceOrphaned `json:"orphaned,omitempty"`
	TakeCount   int                  `json:"take_count"`

	// PlannedStartedPlayback is zero until the instance is taken.
	PlannedStartedPlayback time.Time `json:"planned_started_playback,omitempty"`

	ConsumesQueuedSegmentID bool `json:"consumes_queued_segment_id,omitempty"`
}

// IsOrphaned reports whether the instance no longer maps onto a live part.
func (pi *PartInstance) IsOrphaned() bool {
	return pi.Orphaned != InstanceNotOrphaned
}

// Playlist aggregates an ordered list of rundowns and is the unit of scheduling.
type Playlist struct {
	ID         PlaylistID  `json:"id"`
	Name       string      `json:"name"`
	RundownIDs []RundownID `json:"rundown_ids"`

	// QueuedSegmentID is the operator's pending segment jump, if any.
	QueuedSegmentID SegmentID       `json:"queued_segment_id,omitempty"`
	QuickLoop       *QuickLoopProps `json:"quick_loop,omitempty"`
}

// Clone returns a deep copy of the playlist.
func (p Playlist) Clone() Playlist {
	out := p
	out.RundownIDs = append([]RundownID(nil), p.RundownIDs...)
	out.QuickLoop = p.QuickLoop.Clone()
	return out
}

// ForceAutoNext is the QuickLoop auto-advance policy.
type ForceAutoNext string

const (
	ForceAutoNextDisabled           ForceAutoNext = "disabled"
	ForceAutoNextWhenValidDuration  ForceAutoNext = "enabled_when_valid_duration"
	ForceAutoNextForcingMinDuration ForceAutoNext = "enabled_forcing_min_duration"
)

// ParseForceAutoNext converts a configuration value into a policy. Unknown values
// and the empty string map to ForceAutoNextDisabled.
func ParseForceAutoNext(s string) ForceAutoNext {
	switch ForceAutoNext(s) {
	case ForceAutoNextWhenValidDuration, ForceAutoNextForcingMinDuration:
		return ForceAutoNext(s)
	}
	return ForceAutoNextDisabled
}

// QuickLoopProps is the persisted QuickLoop state of a playlist. Running is only
// true while both markers resolve, are in order and the current part sits
// between them.
type QuickLoopProps struct {
	Start         *QuickLoopMarker `json:"start,omitempty"`
	End           *QuickLoopMarker `json:"end,omitempty"`
	Running       bool             `json:"running"`
	Locked        bool             `json:"locked"`
	ForceAutoNext ForceAutoNext    `json:"force_autonext"`
}

// Clone returns a deep copy; a nil receiver yields nil.
func (q *QuickLoopProps) Clone() *QuickLoopProps {
	if q == nil {
		return nil
	}
	out := *q
	if q.Start != nil {
		start := *q.Start
		out.Start = &start
	}
	if q.End != nil {
		end := *q.End
		out.End = &end
	}
	return &out
}

// MarkerRole says which end of the loop a marker anchors.
type MarkerRole string

const (
	RoleStart MarkerRole = "start"
	RoleEnd   MarkerRole = "end"
)

// ParseMarkerRole converts "start" or "end".
func ParseMarkerRole(s string) (MarkerRole, error) {
	switch MarkerRole(s) {
	case RoleStart, RoleEnd:
		return MarkerRole(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMarkerRole, s)
}

// QuickLoopMarker is a typed reference used as a loop boundary. Playlist markers
// carry no id. OverridenID holds the original id while the marker is temporarily
// glued to an inserted ad-lib part.
type QuickLoopMarker struct {
	Type        MarkerType `json:"type"`
	ID          string     `json:"id,omitempty"`
	OverridenID string     `json:"overriden_id,omitempty"`
}

// PartMarker returns a marker anchored on a part.
func PartMarker(id PartID) *QuickLoopMarker {
	return &QuickLoopMarker{Type: MarkerPart, ID: string(id)}
}

// SegmentMarker returns a marker anchored on a segment.
func SegmentMarker(id SegmentID) *QuickLoopMarker {
	return &QuickLoopMarker{Type: MarkerSegment, ID: string(id)}
}

// RundownMarker returns a marker anchored on a rundown.
func RundownMarker(id RundownID) *QuickLoopMarker {
	return &QuickLoopMarker{Type: MarkerRundown, ID: string(id)}
}

// PlaylistMarker returns a marker meaning the start or end of the whole playlist.
func PlaylistMarker() *QuickLoopMarker {
	return &QuickLoopMarker{Type: MarkerPlaylist}
}

// StudioSettings are the studio-level inputs of the QuickLoop service.
type StudioSettings struct {
	FallbackPartDuration   time.Duration
	ForceQuickLoopAutoNext ForceAutoNext
}

// DefaultFallbackPartDuration is used when the studio does not configure one.
const DefaultFallbackPartDuration = 3 * time.Second

// fallbackPartDuration returns the configured minimum or the default.
func (s StudioSettings) fallbackPartDuration() time.Duration {
	if s.FallbackPartDuration > 0 {
		return s.FallbackPartDuration
	}
	return DefaultFallbackPartDuration
}

// LoopMembership is the three-valued answer to "is this part inside the loop".
type LoopMembership int

const (
	LoopOutside LoopMembership = iota
	LoopInside
	// LoopInvalidRegion means the end marker resolves before the start marker.
	LoopInvalidRegion
)

func (m LoopMembership) String() string {
	switch m {
	case LoopInside:
		return "inside"
	case LoopInvalidRegion:
		return "invalid-region"
	default:
		return "outside"
	}
}
