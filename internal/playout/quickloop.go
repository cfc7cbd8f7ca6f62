package playout

import (
	"fmt"
	"time"
)

// QuickLoopService answers QuickLoop questions for one playlist snapshot and
// computes replacement QuickLoopProps. It never mutates the playlist; callers
// write the returned props back themselves.
type QuickLoopService struct {
	graph    *Graph
	playlist *Playlist
	current  *PartInstance
	next     *PartInstance
	settings StudioSettings
}

// NewQuickLoopService binds the service to a snapshot. current and next are the
// live part instances and may be nil.
func NewQuickLoopService(g *Graph, playlist *Playlist, current, next *PartInstance, settings StudioSettings) *QuickLoopService {
	return &QuickLoopService{
		graph:    g,
		playlist: playlist,
		current:  current,
		next:     next,
		settings: settings,
	}
}

// PartOverrides is a partial update for a part instance's part. Nil fields are
// left as they are.
type PartOverrides struct {
	AutoNext                       *bool
	ExpectedDuration               *time.Duration
	ExpectedDurationWithTransition *time.Duration
}

// IsEmpty reports whether nothing is overridden.
func (o PartOverrides) IsEmpty() bool {
	return o.AutoNext == nil && o.ExpectedDuration == nil && o.ExpectedDurationWithTransition == nil
}

// Apply returns p with the overrides applied.
func (o PartOverrides) Apply(p Part) Part {
	if o.AutoNext != nil {
		p.AutoNext = *o.AutoNext
	}
	if o.ExpectedDuration != nil {
		p.ExpectedDuration = *o.ExpectedDuration
	}
	if o.ExpectedDurationWithTransition != nil {
		p.ExpectedDurationWithTransition = *o.ExpectedDurationWithTransition
	}
	return p
}

func (s *QuickLoopService) props() *QuickLoopProps {
	if s.playlist == nil {
		return nil
	}
	return s.playlist.QuickLoop
}

// liveInstance returns the current or next instance playing the given part.
func (s *QuickLoopService) liveInstance(id PartID) *PartInstance {
	for _, pi := range []*PartInstance{s.current, s.next} {
		if pi != nil && pi.Part.ID == id {
			return pi
		}
	}
	return nil
}

// resolve is ResolvePosition plus live instances: a part marker glued to an
// ad-lib part that only exists as an instance resolves to that instance.
func (s *QuickLoopService) resolve(m *QuickLoopMarker, role MarkerRole) MarkerPosition {
	if m.Type == MarkerPart {
		if _, ok := s.graph.Part(PartID(m.ID)); !ok {
			if pi := s.liveInstance(PartID(m.ID)); pi != nil {
				return s.graph.InstancePosition(pi)
			}
		}
	}
	return ResolvePosition(*m, role, s.graph)
}

// DoesMarkerExist reports whether the marker's referent is present. Playlist
// markers always exist.
func (s *QuickLoopService) DoesMarkerExist(m QuickLoopMarker) bool {
	if kindOf(m.Type).exists(m.ID, s.graph) {
		return true
	}
	return m.Type == MarkerPart && s.liveInstance(PartID(m.ID)) != nil
}

// IsPartWithinQuickLoop reports whether the instance lies between the markers,
// inclusive. LoopInvalidRegion means the markers are flipped.
func (s *QuickLoopService) IsPartWithinQuickLoop(pi *PartInstance) LoopMembership {
	return s.membership(s.props(), pi)
}

func (s *QuickLoopService) membership(props *QuickLoopProps, pi *PartInstance) LoopMembership {
	if props == nil || props.Start == nil || props.End == nil {
		return LoopOutside
	}
	start := s.resolve(props.Start, RoleStart)
	end := s.resolve(props.End, RoleEnd)
	if end.Compare(start) < 0 {
		return LoopInvalidRegion
	}
	if pi == nil {
		return LoopOutside
	}
	pos := s.graph.InstancePosition(pi)
	if start.Compare(pos) <= 0 && pos.Compare(end) <= 0 {
		return LoopInside
	}
	return LoopOutside
}

// UpdatedProps re-derives the loop state after a take, an ingest change or a
// marker edit. justSet names the marker the operator just placed ("" for
// none); when the markers end up flipped the other one is dropped. A loop that
// stops running forgets its markers unless it is locked. Returns nil when the
// playlist has no QuickLoop state.
func (s *QuickLoopService) UpdatedProps(justSet MarkerRole) *QuickLoopProps {
	props := s.props().Clone()
	if props == nil {
		return nil
	}
	wasRunning := props.Running

	s.resetDynamicallyInsertedPartOverrideIfNoLongerNeeded(props)

	if props.Start != nil && !s.DoesMarkerExist(*props.Start) {
		props.Start = nil
	}
	if props.End != nil && !s.DoesMarkerExist(*props.End) {
		props.End = nil
	}

	membership := s.membership(props, s.current)
	if membership == LoopInvalidRegion {
		switch justSet {
		case RoleStart:
			props.End = nil
		case RoleEnd:
			props.Start = nil
		}
		membership = s.membership(props, s.current)
	}
	props.Running = membership == LoopInside

	if wasRunning && !props.Running && !props.Locked {
		props.Start = nil
		props.End = nil
	}
	return props
}

// UpdatedPropsBySettingAMarker places (or, with a nil marker, removes) one
// boundary and applies the studio's default auto-next policy. Running is left
// for UpdatedProps to recompute.
func (s *QuickLoopService) UpdatedPropsBySettingAMarker(role MarkerRole, marker *QuickLoopMarker) (*QuickLoopProps, error) {
	current := s.props()
	if current != nil && current.Locked {
		return nil, ErrLoopingLocked
	}

	props := current.Clone()
	if props == nil {
		props = &QuickLoopProps{}
	}
	props.ForceAutoNext = ParseForceAutoNext(string(s.settings.ForceQuickLoopAutoNext))

	var m *QuickLoopMarker
	if marker != nil {
		copied := *marker
		m = &copied
	}
	switch role {
	case RoleStart:
		props.Start = m
	case RoleEnd:
		props.End = m
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMarkerRole, role)
	}
	return props, nil
}

// UpdatedPropsByClearingMarkers drops both markers. It returns nil, meaning no
// change, when there is no loop state or the loop is locked.
func (s *QuickLoopService) UpdatedPropsByClearingMarkers() *QuickLoopProps {
	current := s.props()
	if current == nil || current.Locked {
		return nil
	}
	props := current.Clone()
	props.Start = nil
	props.End = nil
	props.Running = false
	return props
}

// OverriddenValues computes the auto-next and duration overrides the running
// loop imposes on pi. Under ForceAutoNextForcingMinDuration a duration below the
// studio fallback is raised to it. AutoNext is forced whenever the effective
// duration is positive, unless pi has already played past that duration at now.
func (s *QuickLoopService) OverriddenValues(pi *PartInstance, now time.Time) PartOverrides {
	var out PartOverrides
	props := s.props()
	if pi == nil || props == nil || !props.Running {
		return out
	}
	policy := ParseForceAutoNext(string(props.ForceAutoNext))
	if policy == ForceAutoNextDisabled || s.membership(props, pi) != LoopInside {
		return out
	}

	duration := pi.Part.ExpectedDuration
	if fallback := s.settings.fallbackPartDuration(); policy == ForceAutoNextForcingMinDuration && duration < fallback {
		duration = fallback
		expected, withTransition := fallback, fallback
		out.ExpectedDuration = &expected
		out.ExpectedDurationWithTransition = &withTransition
	}
	if duration <= 0 {
		return out
	}
	if !pi.PlannedStartedPlayback.IsZero() && now.Sub(pi.PlannedStartedPlayback) >= duration {
		return out
	}
	autoNext := true
	out.AutoNext = &autoNext
	return out
}

// PropsForInsertedPart glues a part-typed end marker that sits on the current
// part to a freshly inserted ad-lib part, remembering the original id in
// OverridenID. Returns nil when the end marker is not on the current part.
func (s *QuickLoopService) PropsForInsertedPart(inserted PartID) *QuickLoopProps {
	props := s.props()
	if props == nil || props.End == nil || props.End.Type != MarkerPart || s.current == nil {
		return nil
	}
	if PartID(props.End.ID) != s.current.Part.ID {
		return nil
	}
	out := props.Clone()
	if out.End.OverridenID == "" {
		out.End.OverridenID = out.End.ID
	}
	out.End.ID = string(inserted)
	return out
}

// resetDynamicallyInsertedPartOverrideIfNoLongerNeeded restores an end marker
// glued to an ad-lib part once that part is neither current nor next.
func (s *QuickLoopService) resetDynamicallyInsertedPartOverrideIfNoLongerNeeded(props *QuickLoopProps) {
	end := props.End
	if end == nil || end.Type != MarkerPart || end.OverridenID == "" {
		return
	}
	if s.liveInstance(PartID(end.ID)) != nil {
		return
	}
	end.ID = end.OverridenID
	end.OverridenID = ""
}
