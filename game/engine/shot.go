package engine

import "fmt"

// Fire resolves a shot at (x, y) on the board. Out of bounds and repeated
// shots return an error wrapping ErrInvalidShot and leave the board as is.
func Fire(b *Board, x, y int) (ShotResult, error) {
	if !b.InBounds(x, y) {
		return ShotResult{}, fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, x, y)
	}

	idx := b.index(x, y)
	cell := b.Cells[idx]
	result := ShotResult{X: x, Y: y, ShipIndex: NoShip}

	switch cell.State {
	case Hit, Miss:
		return ShotResult{}, fmt.Errorf("%w: (%d,%d)", ErrDuplicateShot, x, y)
	case ShipCell:
		b.Cells[idx].State = Hit
		ship := &b.Ships[cell.Ship]
		result.ShipIndex = cell.Ship
		if ship.hit() {
			result.Outcome = OutcomeSunk
			result.ShipSize = ship.Size
		} else {
			result.Outcome = OutcomeHit
		}
	default:
		b.Cells[idx].State = Miss
		result.Outcome = OutcomeMiss
	}

	return result, nil
}
