package protocol

import (
	"errors"

	"carcassonne/internal/app"
	"carcassonne/internal/domain"
)

// CodeFor maps app and domain errors to wire rejection codes.
func CodeFor(err error) string {
	switch {
	case errors.Is(err, app.ErrNotYourTurn):
		return CodeNotYourTurn
	case errors.Is(err, app.ErrGameFull):
		return CodeGameFull
	case errors.Is(err, app.ErrAlreadyStarted):
		return CodeAlreadyStarted
	case errors.Is(err, domain.ErrInvalidPlacement):
		return CodeInvalidPlacement
	case errors.Is(err, domain.ErrOccupiedGroup):
		return CodeOccupiedGroup
	case errors.Is(err, domain.ErrNoMeeplesAvailable):
		return CodeNoMeeples
	case errors.Is(err, domain.ErrInvalidSegment):
		return CodeInvalidSegment
	case errors.Is(err, domain.ErrIllegalAction), errors.Is(err, domain.ErrNothingToUndo):
		return CodeIllegalAction
	case errors.Is(err, domain.ErrUnknownDebugConfig):
		return CodeUnknownDebugConfig
	default:
		return CodeInternal
	}
}
