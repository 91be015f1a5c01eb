package engine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidState       = errors.New("invalid match state")
	ErrPlacementRejected  = errors.New("invalid ship placement")
	ErrFleetLimitExceeded = errors.New("fleet limit exceeded")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrInvalidShot        = errors.New("invalid shot")
	ErrUnknownSide        = errors.New("side not found")
	ErrInvalidConfig      = errors.New("invalid match configuration")
	ErrInvalidRecord      = errors.New("invalid match record")

	// ErrFleetIncomplete is returned when readiness is confirmed before the whole fleet is placed
	ErrFleetIncomplete = fmt.Errorf("%w: fleet incomplete", ErrInvalidState)

	ErrOutOfBounds   = fmt.Errorf("%w: coordinate out of bounds", ErrInvalidShot)
	ErrDuplicateShot = fmt.Errorf("%w: cell already fired at", ErrInvalidShot)
)

func unknownSide(side string) error {
	return fmt.Errorf("%w: %q", ErrUnknownSide, side)
}

func rejectPlacement(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPlacementRejected, fmt.Sprintf(format, args...))
}
