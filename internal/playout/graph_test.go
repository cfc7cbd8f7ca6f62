package playout

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewGraph_ordering(t *testing.T) {
	segments := []Segment{
		{ID: "s-b", RundownID: "rd2", Rank: 0},
		{ID: "s-a2", RundownID: "rd1", Rank: 2},
		{ID: "s-a1", RundownID: "rd1", Rank: 1},
		{ID: "s-x", RundownID: "rd-unknown", Rank: 0},
	}
	parts := []Part{
		{ID: "b1", SegmentID: "s-b", Rank: 1},
		{ID: "a2-y", SegmentID: "s-a2", Rank: 1},
		{ID: "a2-x", SegmentID: "s-a2", Rank: 1},
		{ID: "a1", SegmentID: "s-a1", Rank: 5},
		{ID: "lost", SegmentID: "s-gone", Rank: 1},
	}
	g := NewGraph([]RundownID{"rd1", "rd2", "rd1"}, segments, parts)

	require.Equal(t, []RundownID{"rd1", "rd2"}, g.RundownIDs())

	var segIDs []SegmentID
	for _, s := range g.OrderedSegments() {
		segIDs = append(segIDs, s.ID)
	}
	require.Equal(t, []SegmentID{"s-a1", "s-a2", "s-b"}, segIDs)

	var partIDs []PartID
	for _, p := range g.OrderedParts() {
		partIDs = append(partIDs, p.ID)
	}
	require.Equal(t, []PartID{"a1", "a2-x", "a2-y", "b1"}, partIDs)

	_, ok := g.Part("lost")
	require.False(t, ok)
	_, ok = g.Segment("s-x")
	require.False(t, ok)
}

func TestGraph_positions(t *testing.T) {
	_, g := newFixture()

	p, ok := g.Part("part5")
	require.True(t, ok)
	require.Equal(t, MarkerPosition{RundownRank: 0, SegmentRank: 2, PartRank: 2}, g.PartPosition(p))

	require.Equal(t, -1.0, g.PartPosition(Part{ID: "x", SegmentID: "nowhere"}).RundownRank)

	pi := &PartInstance{RundownID: "rd-gone", SegmentRank: 7, Part: Part{ID: "x", SegmentID: "nowhere", Rank: 3}}
	require.Equal(t, MarkerPosition{RundownRank: -1, SegmentRank: 7, PartRank: 3}, g.InstancePosition(pi))
}

func TestGraph_InstancePosition_uses_live_segment_rank(t *testing.T) {
	playlist, base := newFixture()
	pi := instanceOf(base, "part5")

	segments := base.OrderedSegments()
	segments[1].Rank = 10
	g := NewGraph(playlist.RundownIDs, segments, base.OrderedParts())

	require.Equal(t, 10.0, g.InstancePosition(pi).SegmentRank)
}

func TestMarkerPosition_Compare(t *testing.T) {
	a := MarkerPosition{RundownRank: 0, SegmentRank: 1, PartRank: 2}
	require.Equal(t, 0, a.Compare(a))
	require.Equal(t, -1, a.Compare(MarkerPosition{RundownRank: 1}))
	require.Equal(t, 1, a.Compare(MarkerPosition{RundownRank: 0, SegmentRank: 1, PartRank: 1}))
	require.Equal(t, -1, sentinelPosition(RoleStart).Compare(a))
	require.Equal(t, 1, sentinelPosition(RoleEnd).Compare(a))
}

func TestResolvePosition(t *testing.T) {
	_, g := newFixture()
	inf := math.Inf(1)

	cases := []struct {
		name   string
		marker *QuickLoopMarker
		role   MarkerRole
		want   MarkerPosition
	}{
		{"part", PartMarker("part6"), RoleStart, MarkerPosition{0, 2, 3}},
		{"segment_start", SegmentMarker("seg2"), RoleStart, MarkerPosition{0, 2, -inf}},
		{"segment_end", SegmentMarker("seg2"), RoleEnd, MarkerPosition{0, 2, inf}},
		{"rundown_end", RundownMarker("rd1"), RoleEnd, MarkerPosition{0, inf, inf}},
		{"playlist_start", PlaylistMarker(), RoleStart, MarkerPosition{-inf, -inf, -inf}},
		{"dangling_part_end", PartMarker("gone"), RoleEnd, MarkerPosition{inf, inf, inf}},
		{"dangling_rundown_start", RundownMarker("gone"), RoleStart, MarkerPosition{-inf, -inf, -inf}},
		{"invalid_type", &QuickLoopMarker{Type: 42, ID: "part1"}, RoleStart, MarkerPosition{-inf, -inf, -inf}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ResolvePosition(*tc.marker, tc.role, g))
		})
	}
}

func TestMarkerType_text(t *testing.T) {
	for mt := MarkerPart; mt < markerTypeEnd; mt++ {
		require.NotNil(t, markerKinds[mt], "missing kind for %d", mt)
		require.NotEmpty(t, markerTypeNames[mt], "missing name for %d", mt)

		b, err := mt.MarshalText()
		require.NoError(t, err)
		var back MarkerType
		require.NoError(t, back.UnmarshalText(b))
		require.Equal(t, mt, back)
	}

	_, err := ParseMarkerType("show")
	require.ErrorIs(t, err, ErrUnknownMarkerType)
	_, err = MarkerType(0).MarshalText()
	require.ErrorIs(t, err, ErrUnknownMarkerType)

	_, err = ParseMarkerRole("middle")
	require.ErrorIs(t, err, ErrUnknownMarkerRole)
}
