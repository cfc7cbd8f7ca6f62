package playout

// LoopRange lists the parts and segments between two markers, inclusive.
type LoopRange struct {
	Parts    []PartID
	Segments []SegmentID
}

// Contains reports whether the part is in the range.
func (r LoopRange) Contains(id PartID) bool {
	for _, p := range r.Parts {
		if p == id {
			return true
		}
	}
	return false
}

// SegmentsBetweenMarkers walks the ordered segments once and returns those from
// the start marker's container through the end marker's container. The result
// is empty when the end container is passed before the start is found.
func (s *QuickLoopService) SegmentsBetweenMarkers(start, end QuickLoopMarker) []SegmentID {
	end = s.rangeEnd(end)
	g := s.graph
	sk, ek := kindOf(start.Type), kindOf(end.Type)
	return collectBetween(g.segments,
		func(seg Segment) SegmentID { return seg.ID },
		func(seg Segment) bool { return sk.containsSegment(start.ID, seg, g) },
		func(seg Segment) bool { return ek.containsSegment(end.ID, seg, g) },
	)
}

// PartsBetweenMarkers is SegmentsBetweenMarkers at part granularity, returning
// the segment list alongside.
func (s *QuickLoopService) PartsBetweenMarkers(start, end QuickLoopMarker) LoopRange {
	segments := s.SegmentsBetweenMarkers(start, end)
	end = s.rangeEnd(end)
	g := s.graph
	sk, ek := kindOf(start.Type), kindOf(end.Type)
	parts := collectBetween(g.parts,
		func(p Part) PartID { return p.ID },
		func(p Part) bool { return sk.containsPart(start.ID, p, g) },
		func(p Part) bool { return ek.containsPart(end.ID, p, g) },
	)
	return LoopRange{Parts: parts, Segments: segments}
}

// rangeEnd swaps an end marker glued to an ad-lib instance back to the part it
// was glued from, since the ad-lib part is not in the graph.
func (s *QuickLoopService) rangeEnd(end QuickLoopMarker) QuickLoopMarker {
	if end.Type != MarkerPart || end.OverridenID == "" {
		return end
	}
	if _, ok := s.graph.Part(PartID(end.ID)); ok {
		return end
	}
	end.ID = end.OverridenID
	end.OverridenID = ""
	return end
}

// collectBetween is the single-pass walk shared by the segment and part ranges.
// Collection starts at the first item inside the start container. Many
// consecutive items can sit in the end container (every segment of a rundown,
// every part of a segment), so the walk stops on the first item after the end
// container has been seen, not on the first match.
func collectBetween[T any, ID any](items []T, idOf func(T) ID, inStart, inEnd func(T) bool) []ID {
	var out []ID
	started, endSeen := false, false
	for _, item := range items {
		atEnd := inEnd(item)
		if endSeen && !atEnd {
			break
		}
		if !started && inStart(item) {
			started = true
		}
		if atEnd {
			endSeen = true
		}
		if started {
			out = append(out, idOf(item))
		}
	}
	return out
}
