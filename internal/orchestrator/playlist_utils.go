package orchestrator

import (
	"fmt"
	"strings"
	"time"

	"rundown-orchestrator/internal/playout"
)

// RenderRundown prints the playlist as an operator-readable running order.
// Each part line carries flags: '*' on air, '>' next, '~' inside the loop,
// 'x' unplayable. An ad-lib that is current or next is printed after the part
// it follows.
func RenderRundown(st *PlayoutState) string {
	var b strings.Builder
	g := st.Graph()

	state := "inactive"
	if st.Activated {
		state = "active"
	}
	fmt.Fprintf(&b, "PLAYLIST %s %q [%s]\n", st.Playlist.ID, st.Playlist.Name, state)
	if q := st.Playlist.QueuedSegmentID; q != "" {
		fmt.Fprintf(&b, "QUEUED %s\n", q)
	}

	var loop playout.LoopRange
	if ql := st.Playlist.QuickLoop; ql != nil && ql.Start != nil && ql.End != nil {
		svc := playout.NewQuickLoopService(g, &st.Playlist, st.Current, st.Next, playout.StudioSettings{})
		loop = svc.PartsBetweenMarkers(*ql.Start, *ql.End)
		fmt.Fprintf(&b, "QUICKLOOP %s -> %s running=%t locked=%t autonext=%s\n",
			FormatMarker(*ql.Start), FormatMarker(*ql.End), ql.Running, ql.Locked, ql.ForceAutoNext)
	}

	names := make(map[playout.RundownID]string, len(st.Rundowns))
	for _, rd := range st.Rundowns {
		names[rd.ID] = rd.Name
	}
	adlibs := liveAdlibs(st)

	var lastRundown playout.RundownID
	for _, seg := range g.OrderedSegments() {
		if seg.RundownID != lastRundown {
			fmt.Fprintf(&b, "\n== %s %s\n", seg.RundownID, names[seg.RundownID])
			lastRundown = seg.RundownID
		}
		line := fmt.Sprintf("  -- %s %s", seg.ID, seg.Name)
		if seg.IsOrphaned() {
			line += fmt.Sprintf(" (orphaned: %s)", seg.Orphaned)
		}
		b.WriteString(line + "\n")

		for _, p := range g.OrderedParts() {
			if p.SegmentID != seg.ID {
				continue
			}
			writePartLine(&b, st, p, loop.Contains(p.ID))
			for _, pi := range adlibs {
				if pi.Part.SegmentID == seg.ID && pi.Part.Rank > p.Rank && !hasPartBetween(g, seg.ID, p.Rank, pi.Part.Rank) {
					writePartLine(&b, st, pi.Part, loop.Contains(p.ID) && endGluedTo(st, pi.Part.ID))
				}
			}
		}
	}
	return b.String()
}

// FormatMarker renders a marker as "type:id", or "playlist".
func FormatMarker(m playout.QuickLoopMarker) string {
	if m.Type == playout.MarkerPlaylist {
		return m.Type.String()
	}
	return m.Type.String() + ":" + m.ID
}

func writePartLine(b *strings.Builder, st *PlayoutState, p playout.Part, inLoop bool) {
	flags := []byte("    ")
	if st.Current != nil && st.Current.Part.ID == p.ID {
		flags[0] = '*'
	}
	if st.Next != nil && st.Next.Part.ID == p.ID {
		flags[1] = '>'
	}
	if inLoop {
		flags[2] = '~'
	}
	if !p.IsPlayable() {
		flags[3] = 'x'
	}
	fmt.Fprintf(b, "     %s %-12s %-24s %s\n", flags, p.ID, p.Title, formatDuration(p.ExpectedDuration))
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.String()
}

func liveAdlibs(st *PlayoutState) []*playout.PartInstance {
	var out []*playout.PartInstance
	for _, pi := range []*playout.PartInstance{st.Current, st.Next} {
		if pi != nil && pi.Orphaned == playout.InstanceAdlibPart {
			out = append(out, pi)
		}
	}
	return out
}

func hasPartBetween(g *playout.Graph, seg playout.SegmentID, lo, hi float64) bool {
	for _, p := range g.OrderedParts() {
		if p.SegmentID == seg && p.Rank > lo && p.Rank < hi {
			return true
		}
	}
	return false
}

func endGluedTo(st *PlayoutState, id playout.PartID) bool {
	ql := st.Playlist.QuickLoop
	return ql != nil && ql.End != nil && ql.End.Type == playout.MarkerPart && playout.PartID(ql.End.ID) == id
}
