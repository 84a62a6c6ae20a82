package domain

import "errors"

var (
	// ErrInvalidPlacement rejects a tile placement: cell occupied, no
	// neighboring tile, or an edge profile mismatch.
	ErrInvalidPlacement = errors.New("invalid placement")

	// ErrOccupiedGroup rejects a meeple on a group that already has one.
	ErrOccupiedGroup = errors.New("group already occupied")

	// ErrNoMeeplesAvailable rejects a meeple when the player's supply is empty.
	ErrNoMeeplesAvailable = errors.New("no meeples available")

	// ErrInvalidSegment rejects a meeple on a segment that does not exist,
	// sits on a closed group, or is barred by the active ruleset.
	ErrInvalidSegment = errors.New("segment not eligible for a meeple")

	// ErrIllegalAction rejects an action that is not legal in the current phase.
	ErrIllegalAction = errors.New("action not legal in current phase")

	// ErrNothingToUndo rejects an undo with no reversible placement on record.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrDeckExhausted signals that the draw pile is empty and the game is over.
	ErrDeckExhausted = errors.New("deck exhausted")

	// ErrUnknownDebugConfig rejects a debug configuration name that is not registered.
	ErrUnknownDebugConfig = errors.New("unknown debug configuration")

	// ErrCorruptSnapshot rejects a snapshot that does not describe a reachable game.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)
