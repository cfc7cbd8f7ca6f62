package playout

import (
	"cmp"
	"math"
)

// MarkerPosition is a derived, totally ordered (rundown, segment, part) rank
// tuple. It is never persisted.
type MarkerPosition struct {
	RundownRank float64
	SegmentRank float64
	PartRank    float64
}

// Compare orders positions lexicographically and returns -1, 0 or +1.
func (p MarkerPosition) Compare(o MarkerPosition) int {
	if c := cmp.Compare(p.RundownRank, o.RundownRank); c != 0 {
		return c
	}
	if c := cmp.Compare(p.SegmentRank, o.SegmentRank); c != 0 {
		return c
	}
	return cmp.Compare(p.PartRank, o.PartRank)
}

// sentinel is -Inf for a start boundary and +Inf for an end boundary.
func sentinel(role MarkerRole) float64 {
	if role == RoleEnd {
		return math.Inf(1)
	}
	return math.Inf(-1)
}

func sentinelPosition(role MarkerRole) MarkerPosition {
	s := sentinel(role)
	return MarkerPosition{RundownRank: s, SegmentRank: s, PartRank: s}
}

// ResolvePosition converts a marker into a comparable position. A marker whose
// referent is missing resolves to the edge of the playlist for its role.
func ResolvePosition(m QuickLoopMarker, role MarkerRole, g *Graph) MarkerPosition {
	if pos, ok := kindOf(m.Type).position(m.ID, role, g); ok {
		return pos
	}
	return sentinelPosition(role)
}
