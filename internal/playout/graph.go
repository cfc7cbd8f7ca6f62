package playout

import (
	"slices"
	"sort"
)

// Graph is a read-only, ordered view over one playlist's rundowns, segments and
// parts. Entities are held in arena slices and addressed by id, so a reorder is
// just a different rank, never a pointer rewrite.
type Graph struct {
	rundownIDs   []RundownID
	rundownRanks map[RundownID]int

	segments   []Segment
	segmentIdx map[SegmentID]int

	parts     []Part
	partIdx   map[PartID]int
	positions []MarkerPosition

	// navigable indexes into parts, skipping parts of orphaned segments.
	navigable []int
	navIdx    map[PartID]int
}

// NewGraph copies and orders the snapshot. Segments of rundowns outside the
// playlist and parts of unknown segments cannot be placed and are left out.
// Equal ranks are ordered by id.
func NewGraph(rundownIDs []RundownID, segments []Segment, parts []Part) *Graph {
	g := &Graph{
		rundownRanks: make(map[RundownID]int, len(rundownIDs)),
		segmentIdx:   make(map[SegmentID]int, len(segments)),
		partIdx:      make(map[PartID]int, len(parts)),
		navIdx:       make(map[PartID]int, len(parts)),
	}
	for _, id := range rundownIDs {
		if _, dup := g.rundownRanks[id]; dup {
			continue
		}
		g.rundownRanks[id] = len(g.rundownIDs)
		g.rundownIDs = append(g.rundownIDs, id)
	}

	for _, seg := range segments {
		if _, ok := g.rundownRanks[seg.RundownID]; ok {
			g.segments = append(g.segments, seg)
		}
	}
	sort.SliceStable(g.segments, func(i, j int) bool {
		a, b := g.segments[i], g.segments[j]
		if ra, rb := g.rundownRanks[a.RundownID], g.rundownRanks[b.RundownID]; ra != rb {
			return ra < rb
		}
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		return a.ID < b.ID
	})
	for i, seg := range g.segments {
		g.segmentIdx[seg.ID] = i
	}

	for _, p := range parts {
		if _, ok := g.segmentIdx[p.SegmentID]; ok {
			g.parts = append(g.parts, p)
		}
	}
	sort.SliceStable(g.parts, func(i, j int) bool {
		a, b := g.parts[i], g.parts[j]
		if sa, sb := g.segmentIdx[a.SegmentID], g.segmentIdx[b.SegmentID]; sa != sb {
			return sa < sb
		}
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		return a.ID < b.ID
	})

	g.positions = make([]MarkerPosition, len(g.parts))
	for i, p := range g.parts {
		g.partIdx[p.ID] = i
		seg := g.segments[g.segmentIdx[p.SegmentID]]
		g.positions[i] = MarkerPosition{
			RundownRank: float64(g.rundownRanks[seg.RundownID]),
			SegmentRank: seg.Rank,
			PartRank:    p.Rank,
		}
		if !seg.IsOrphaned() {
			g.navIdx[p.ID] = len(g.navigable)
			g.navigable = append(g.navigable, i)
		}
	}
	return g
}

// RundownIDs returns the rundown ids in playlist order.
func (g *Graph) RundownIDs() []RundownID {
	return slices.Clone(g.rundownIDs)
}

// HasRundown reports whether the rundown belongs to the playlist.
func (g *Graph) HasRundown(id RundownID) bool {
	_, ok := g.rundownRanks[id]
	return ok
}

// RundownRank returns the 0-based position of the rundown in the playlist.
func (g *Graph) RundownRank(id RundownID) (int, bool) {
	rank, ok := g.rundownRanks[id]
	return rank, ok
}

// Segment looks up a segment by id.
func (g *Graph) Segment(id SegmentID) (Segment, bool) {
	i, ok := g.segmentIdx[id]
	if !ok {
		return Segment{}, false
	}
	return g.segments[i], true
}

// Part looks up a part by id.
func (g *Graph) Part(id PartID) (Part, bool) {
	i, ok := g.partIdx[id]
	if !ok {
		return Part{}, false
	}
	return g.parts[i], true
}

// OrderedSegments returns every segment, orphaned ones included, in playout order.
func (g *Graph) OrderedSegments() []Segment {
	return slices.Clone(g.segments)
}

// OrderedParts returns every part in playout order.
func (g *Graph) OrderedParts() []Part {
	return slices.Clone(g.parts)
}

// NavigableParts returns the parts forward navigation may land on: OrderedParts
// without the parts of orphaned segments. Selection indexes refer to this list.
func (g *Graph) NavigableParts() []Part {
	out := make([]Part, len(g.navigable))
	for i, idx := range g.navigable {
		out[i] = g.parts[idx]
	}
	return out
}

// PartPosition returns the rank tuple of a part. Parts whose segment is not in
// the graph sort before everything.
func (g *Graph) PartPosition(p Part) MarkerPosition {
	if i, ok := g.partIdx[p.ID]; ok {
		return g.positions[i]
	}
	seg, ok := g.Segment(p.SegmentID)
	if !ok {
		return MarkerPosition{RundownRank: -1, PartRank: p.Rank}
	}
	return MarkerPosition{
		RundownRank: float64(g.rundownRanks[seg.RundownID]),
		SegmentRank: seg.Rank,
		PartRank:    p.Rank,
	}
}

// InstancePosition places a part instance in the graph using the ranks it
// recorded when it was created. The live segment rank wins when the segment
// still exists; a rundown no longer in the playlist sorts before everything.
func (g *Graph) InstancePosition(pi *PartInstance) MarkerPosition {
	rundownID := pi.RundownID
	segmentRank := pi.SegmentRank
	if seg, ok := g.Segment(pi.Part.SegmentID); ok {
		rundownID = seg.RundownID
		segmentRank = seg.Rank
	}
	rundownRank := -1
	if rank, ok := g.rundownRanks[rundownID]; ok {
		rundownRank = rank
	}
	return MarkerPosition{
		RundownRank: float64(rundownRank),
		SegmentRank: segmentRank,
		PartRank:    pi.Part.Rank,
	}
}

func (g *Graph) rundownOfPart(p Part) (RundownID, bool) {
	seg, ok := g.Segment(p.SegmentID)
	if !ok {
		return "", false
	}
	return seg.RundownID, true
}

func (g *Graph) navigableLen() int {
	return len(g.navigable)
}

// navigableAt returns the part at a navigable index together with its position.
func (g *Graph) navigableAt(i int) (Part, MarkerPosition) {
	idx := g.navigable[i]
	return g.parts[idx], g.positions[idx]
}

// orderedIndex maps a navigable index to the part's index in OrderedParts.
func (g *Graph) orderedIndex(i int) int {
	return g.navigable[i]
}

func (g *Graph) navigableIndex(id PartID) (int, bool) {
	i, ok := g.navIdx[id]
	return i, ok
}
