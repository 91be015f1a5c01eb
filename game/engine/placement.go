package engine

// ValidatePlacement checks that a ship fits on the board and keeps at least
// one empty cell, diagonals included, between itself and every other ship.
// It does not check the fleet quota; Match does that.
func ValidatePlacement(b *Board, ship Ship) error {
	if ship.Size < MinShipSize || ship.Size > MaxShipSize {
		return rejectPlacement("ship size %d not in %d..%d", ship.Size, MinShipSize, MaxShipSize)
	}
	if ship.X < 0 || ship.Y < 0 {
		return rejectPlacement("start (%d,%d) is off the board", ship.X, ship.Y)
	}

	endX, endY := ship.X, ship.Y
	if ship.Horizontal {
		endX += ship.Size - 1
	} else {
		endY += ship.Size - 1
	}
	if !b.InBounds(ship.X, ship.Y) || !b.InBounds(endX, endY) {
		return rejectPlacement("ship of size %d at (%d,%d) does not fit", ship.Size, ship.X, ship.Y)
	}

	// Scan the footprint grown by one cell in every direction, clipped to the board
	for y := max(ship.Y-1, 0); y <= min(endY+1, b.Size-1); y++ {
		for x := max(ship.X-1, 0); x <= min(endX+1, b.Size-1); x++ {
			if b.Cell(x, y).HasShip() {
				return rejectPlacement("ship at (%d,%d) touches another ship at (%d,%d)", ship.X, ship.Y, x, y)
			}
		}
	}
	return nil
}

// CanPlace reports whether ValidatePlacement would accept the ship
func CanPlace(b *Board, ship Ship) bool {
	return ValidatePlacement(b, ship) == nil
}
