package playout

// SelectOptions tunes SelectNextPart. The zero value is the normal playout
// behaviour: unplayable parts are skipped and a running QuickLoop is honoured.
type SelectOptions struct {
	IncludeUnplayable bool
	IgnoreQuickLoop   bool
}

// NextPartResult is the part chosen to be next. Index is the part's position in
// Graph.OrderedParts, orphaned segments included, and is informational only.
type NextPartResult struct {
	Index                   int
	Part                    Part
	ConsumesQueuedSegmentID bool
}

// loopRegion is a running QuickLoop resolved against the graph.
type loopRegion struct {
	start, end       MarkerPosition
	requiresDuration bool
}

func (r *loopRegion) contains(pos MarkerPosition) bool {
	return r.start.Compare(pos) <= 0 && pos.Compare(r.end) <= 0
}

// SelectNextPart picks the part to set as next. In order: a queued segment wins
// outright; otherwise the scan continues forward from current (or previous);
// when a running QuickLoop would be left, selection wraps to the loop start.
// It returns nil when nothing is left to play. A queued segment that is not in
// the graph is ignored.
func SelectNextPart(playlist *Playlist, previous, current *PartInstance, g *Graph, opts SelectOptions) *NextPartResult {
	if playlist == nil || g == nil {
		return nil
	}

	if playlist.QueuedSegmentID != "" {
		if res := firstPlayableInSegment(g, playlist.QueuedSegmentID, opts); res != nil {
			res.ConsumesQueuedSegmentID = true
			return res
		}
	}

	anchor := current
	if anchor == nil {
		anchor = previous
	}

	var loop *loopRegion
	if !opts.IgnoreQuickLoop {
		loop = runningLoop(playlist, current, previous, g)
	}

	eligible := func(p Part, pos MarkerPosition) bool {
		if !opts.IncludeUnplayable && !p.IsPlayable() {
			return false
		}
		if loop != nil && loop.requiresDuration && !p.HasValidDuration() && loop.contains(pos) {
			return false
		}
		return true
	}

	next := -1
	for i := searchFrom(g, anchor); i < g.navigableLen(); i++ {
		if p, pos := g.navigableAt(i); eligible(p, pos) {
			next = i
			break
		}
	}

	if loop != nil && anchor != nil {
		leaving := next < 0
		if !leaving {
			_, pos := g.navigableAt(next)
			leaving = !loop.contains(pos)
		}
		if leaving {
			if wrapped := firstInLoop(g, loop, eligible); wrapped >= 0 {
				next = wrapped
			}
		}
	}

	if next < 0 {
		return nil
	}
	p, _ := g.navigableAt(next)
	return &NextPartResult{Index: g.orderedIndex(next), Part: p}
}

func firstPlayableInSegment(g *Graph, id SegmentID, opts SelectOptions) *NextPartResult {
	if _, ok := g.Segment(id); !ok {
		return nil
	}
	for i := 0; i < g.navigableLen(); i++ {
		p, _ := g.navigableAt(i)
		if p.SegmentID != id {
			continue
		}
		if opts.IncludeUnplayable || p.IsPlayable() {
			return &NextPartResult{Index: g.orderedIndex(i), Part: p}
		}
	}
	return nil
}

// runningLoop returns the loop region when the playlist's QuickLoop is running
// with both markers set and in order.
func runningLoop(playlist *Playlist, current, previous *PartInstance, g *Graph) *loopRegion {
	props := playlist.QuickLoop
	if props == nil || !props.Running || props.Start == nil || props.End == nil {
		return nil
	}
	svc := NewQuickLoopService(g, playlist, current, previous, StudioSettings{})
	start := svc.resolve(props.Start, RoleStart)
	end := svc.resolve(props.End, RoleEnd)
	if end.Compare(start) < 0 {
		return nil
	}
	return &loopRegion{
		start:            start,
		end:              end,
		requiresDuration: ParseForceAutoNext(string(props.ForceAutoNext)) == ForceAutoNextWhenValidDuration,
	}
}

// searchFrom is the first navigable index after the anchor. An anchor that is
// orphaned or no longer navigable is placed by its recorded ranks.
func searchFrom(g *Graph, anchor *PartInstance) int {
	if anchor == nil {
		return 0
	}
	if !anchor.IsOrphaned() {
		if i, ok := g.navigableIndex(anchor.Part.ID); ok {
			return i + 1
		}
	}
	at := g.InstancePosition(anchor)
	for i := 0; i < g.navigableLen(); i++ {
		if _, pos := g.navigableAt(i); pos.Compare(at) > 0 {
			return i
		}
	}
	return g.navigableLen()
}

func firstInLoop(g *Graph, loop *loopRegion, eligible func(Part, MarkerPosition) bool) int {
	for i := 0; i < g.navigableLen(); i++ {
		p, pos := g.navigableAt(i)
		if pos.Compare(loop.start) < 0 {
			continue
		}
		if pos.Compare(loop.end) > 0 {
			break
		}
		if eligible(p, pos) {
			return i
		}
	}
	return -1
}
