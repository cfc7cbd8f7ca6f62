package cli

import (
	"fmt"
	"strings"

	"rundown-orchestrator/internal/playout"
)

// ParseMarker reads a QuickLoop marker written as "type:id" ("part:p3",
// "segment:seg2", "rundown:rd1") or "playlist".
func ParseMarker(s string) (playout.QuickLoopMarker, error) {
	typ, id, _ := strings.Cut(strings.TrimSpace(s), ":")
	t, err := playout.ParseMarkerType(typ)
	if err != nil {
		return playout.QuickLoopMarker{}, err
	}
	if t == playout.MarkerPlaylist {
		if id != "" {
			return playout.QuickLoopMarker{}, fmt.Errorf("playlist marker takes no id: %q", s)
		}
		return *playout.PlaylistMarker(), nil
	}
	if id == "" {
		return playout.QuickLoopMarker{}, fmt.Errorf("%s marker needs an id: %q", t, s)
	}
	return playout.QuickLoopMarker{Type: t, ID: id}, nil
}
