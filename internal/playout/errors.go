package playout

import "errors"

var (
	// ErrLoopingLocked is returned when an operator edits QuickLoop markers while
	// the loop is locked. No state changes.
	ErrLoopingLocked = errors.New("looping is locked")

	// ErrUnknownMarkerType is returned when decoding a marker type fails.
	ErrUnknownMarkerType = errors.New("unknown quickloop marker type")

	// ErrUnknownMarkerRole is returned for a role other than start or end.
	ErrUnknownMarkerRole = errors.New("unknown quickloop marker role")
)

