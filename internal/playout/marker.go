package playout

import "fmt"

// MarkerType is the kind of entity a QuickLoop marker references.
type MarkerType int

const (
	MarkerPart MarkerType = iota + 1
	MarkerSegment
	MarkerRundown
	MarkerPlaylist

	markerTypeEnd
)

// markerKind is implemented once per MarkerType. Every marker-type dependent
// decision goes through it, so a type without a kind cannot be half-supported.
type markerKind interface {
	// exists probes the graph for the referenced entity.
	exists(id string, g *Graph) bool
	// position resolves the boundary; ok is false when the referent is missing.
	position(id string, role MarkerRole, g *Graph) (pos MarkerPosition, ok bool)
	containsSegment(id string, seg Segment, g *Graph) bool
	containsPart(id string, p Part, g *Graph) bool
}

var markerKinds = [markerTypeEnd]markerKind{
	MarkerPart:     partKind{},
	MarkerSegment:  segmentKind{},
	MarkerRundown:  rundownKind{},
	MarkerPlaylist: playlistKind{},
}

// Fails to compile when a MarkerType is added: give it a markerKind above, then
// bump the constant.
var _ = [1]struct{}{}[markerTypeEnd-5]

var markerTypeNames = [markerTypeEnd]string{
	MarkerPart:     "part",
	MarkerSegment:  "segment",
	MarkerRundown:  "rundown",
	MarkerPlaylist: "playlist",
}

func (t MarkerType) valid() bool {
	return t > 0 && t < markerTypeEnd
}

func (t MarkerType) String() string {
	if !t.valid() {
		return fmt.Sprintf("MarkerType(%d)", int(t))
	}
	return markerTypeNames[t]
}

// ParseMarkerType converts "part", "segment", "rundown" or "playlist".
func ParseMarkerType(s string) (MarkerType, error) {
	for t := MarkerPart; t < markerTypeEnd; t++ {
		if markerTypeNames[t] == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMarkerType, s)
}

// MarshalText implements encoding.TextMarshaler.
func (t MarkerType) MarshalText() ([]byte, error) {
	if !t.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMarkerType, int(t))
	}
	return []byte(markerTypeNames[t]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *MarkerType) UnmarshalText(b []byte) error {
	parsed, err := ParseMarkerType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// kindOf never returns nil; unknown types behave like a dangling reference.
func kindOf(t MarkerType) markerKind {
	if !t.valid() {
		return danglingKind{}
	}
	return markerKinds[t]
}

type partKind struct{}

func (partKind) exists(id string, g *Graph) bool {
	_, ok := g.Part(PartID(id))
	return ok
}

func (partKind) position(id string, _ MarkerRole, g *Graph) (MarkerPosition, bool) {
	p, ok := g.Part(PartID(id))
	if !ok {
		return MarkerPosition{}, false
	}
	return g.PartPosition(p), true
}

func (partKind) containsSegment(id string, seg Segment, g *Graph) bool {
	p, ok := g.Part(PartID(id))
	return ok && p.SegmentID == seg.ID
}

func (partKind) containsPart(id string, p Part, _ *Graph) bool {
	return p.ID == PartID(id)
}

type segmentKind struct{}

func (segmentKind) exists(id string, g *Graph) bool {
	_, ok := g.Segment(SegmentID(id))
	return ok
}

func (segmentKind) position(id string, role MarkerRole, g *Graph) (MarkerPosition, bool) {
	seg, ok := g.Segment(SegmentID(id))
	if !ok {
		return MarkerPosition{}, false
	}
	rank, _ := g.RundownRank(seg.RundownID)
	return MarkerPosition{
		RundownRank: float64(rank),
		SegmentRank: seg.Rank,
		PartRank:    sentinel(role),
	}, true
}

func (segmentKind) containsSegment(id string, seg Segment, _ *Graph) bool {
	return seg.ID == SegmentID(id)
}

func (segmentKind) containsPart(id string, p Part, _ *Graph) bool {
	return p.SegmentID == SegmentID(id)
}

type rundownKind struct{}

func (rundownKind) exists(id string, g *Graph) bool {
	return g.HasRundown(RundownID(id))
}

func (rundownKind) position(id string, role MarkerRole, g *Graph) (MarkerPosition, bool) {
	rank, ok := g.RundownRank(RundownID(id))
	if !ok {
		return MarkerPosition{}, false
	}
	return MarkerPosition{
		RundownRank: float64(rank),
		SegmentRank: sentinel(role),
		PartRank:    sentinel(role),
	}, true
}

func (rundownKind) containsSegment(id string, seg Segment, _ *Graph) bool {
	return seg.RundownID == RundownID(id)
}

func (rundownKind) containsPart(id string, p Part, g *Graph) bool {
	rid, ok := g.rundownOfPart(p)
	return ok && rid == RundownID(id)
}

type playlistKind struct{}

func (playlistKind) exists(string, *Graph) bool { return true }

func (playlistKind) position(_ string, role MarkerRole, _ *Graph) (MarkerPosition, bool) {
	return sentinelPosition(role), true
}

func (playlistKind) containsSegment(string, Segment, *Graph) bool { return true }

func (playlistKind) containsPart(string, Part, *Graph) bool { return true }

type danglingKind struct{}

func (danglingKind) exists(string, *Graph) bool { return false }

func (danglingKind) position(string, MarkerRole, *Graph) (MarkerPosition, bool) {
	return MarkerPosition{}, false
}

func (danglingKind) containsSegment(string, Segment, *Graph) bool { return false }

func (danglingKind) containsPart(string, Part, *Graph) bool { return false }
