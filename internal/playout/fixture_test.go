package playout

import (
	"fmt"
	"time"
)

// newFixture builds one rundown of three segments with three parts each.
// Parts are named part1..part9 in playout order; part4 and part8 are invalid.
func newFixture() (*Playlist, *Graph) {
	var segments []Segment
	var parts []Part
	for s := 1; s <= 3; s++ {
		segID := SegmentID(fmt.Sprintf("seg%d", s))
		segments = append(segments, Segment{ID: segID, RundownID: "rd1", Rank: float64(s), Name: fmt.Sprintf("Segment %d", s)})
		for p := 1; p <= 3; p++ {
			n := (s-1)*3 + p
			parts = append(parts, Part{
				ID:               PartID(fmt.Sprintf("part%d", n)),
				SegmentID:        segID,
				Rank:             float64(p),
				Title:            fmt.Sprintf("Part %d", n),
				Invalid:          n == 4 || n == 8,
				ExpectedDuration: 5 * time.Second,
			})
		}
	}
	playlist := &Playlist{ID: "pl1", Name: "Evening News", RundownIDs: []RundownID{"rd1"}}
	return playlist, NewGraph(playlist.RundownIDs, segments, parts)
}

// instanceOf creates a live instance of a part in the graph.
func instanceOf(g *Graph, id PartID) *PartInstance {
	p, ok := g.Part(id)
	if !ok {
		panic("unknown part " + string(id))
	}
	seg, _ := g.Segment(p.SegmentID)
	return &PartInstance{
		ID:          PartInstanceID("pi-" + string(id)),
		RundownID:   seg.RundownID,
		SegmentRank: seg.Rank,
		Part:        p,
	}
}

func runningLoopProps(start, end *QuickLoopMarker) *QuickLoopProps {
	return &QuickLoopProps{Start: start, End: end, Running: true, ForceAutoNext: ForceAutoNextDisabled}
}
