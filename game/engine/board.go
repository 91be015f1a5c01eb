package engine

// Board is one side's grid together with the ships placed on it
type Board struct {
	Size  int    `json:"size"`
	Cells []Cell `json:"cells"` // row-major, index y*Size+x
	Ships []Ship `json:"ships"`
}

// NewBoard creates an empty BoardSize x BoardSize board
func NewBoard() *Board {
	cells := make([]Cell, BoardSize*BoardSize)
	for i := range cells {
		cells[i] = Cell{State: Empty, Ship: NoShip}
	}
	return &Board{
		Size:  BoardSize,
		Cells: cells,
		Ships: []Ship{},
	}
}

// InBounds reports whether (x, y) lies on the board
func (b *Board) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.Size && y < b.Size
}

func (b *Board) index(x, y int) int {
	return y*b.Size + x
}

// Cell returns the cell at (x, y). The caller must check bounds first.
func (b *Board) Cell(x, y int) Cell {
	return b.Cells[b.index(x, y)]
}

// ShipAt returns the ship occupying (x, y), if any
func (b *Board) ShipAt(x, y int) (Ship, bool) {
	if !b.InBounds(x, y) {
		return Ship{}, false
	}
	cell := b.Cell(x, y)
	if !cell.HasShip() {
		return Ship{}, false
	}
	return b.Ships[cell.Ship], true
}

// PlaceShip validates and places a ship. On error the board is unchanged.
func (b *Board) PlaceShip(ship Ship) error {
	if err := ValidatePlacement(b, ship); err != nil {
		return err
	}

	ship.Hits = 0
	ship.Sunk = false
	idx := len(b.Ships)
	b.Ships = append(b.Ships, ship)
	for _, p := range ship.Cells() {
		b.Cells[b.index(p.X, p.Y)] = Cell{State: ShipCell, Ship: idx}
	}
	return nil
}

// CountShipsOfSize returns how many ships of the given size are on the board
func (b *Board) CountShipsOfSize(size int) int {
	count := 0
	for _, s := range b.Ships {
		if s.Size == size {
			count++
		}
	}
	return count
}

// RemainingQuota returns how many more ships of the given size may be placed
func (b *Board) RemainingQuota(size int) int {
	remaining := ShipQuota(size) - b.CountShipsOfSize(size)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RemainingSizes lists the sizes still missing from the fleet, largest first
func (b *Board) RemainingSizes() []int {
	var sizes []int
	for size := MaxShipSize; size >= MinShipSize; size-- {
		for i := 0; i < b.RemainingQuota(size); i++ {
			sizes = append(sizes, size)
		}
	}
	return sizes
}

// AllShipsPlaced reports whether the full fleet is on the board
func (b *Board) AllShipsPlaced() bool {
	return len(b.Ships) == FleetSize
}

// AllShipsSunk reports whether every ship is sunk. An empty board has
// nothing to sink and returns false.
func (b *Board) AllShipsSunk() bool {
	if len(b.Ships) == 0 {
		return false
	}
	for _, s := range b.Ships {
		if !s.Sunk {
			return false
		}
	}
	return true
}

// ShipsAfloat returns the number of ships not yet sunk
func (b *Board) ShipsAfloat() int {
	afloat := 0
	for _, s := range b.Ships {
		if !s.Sunk {
			afloat++
		}
	}
	return afloat
}

// ResolveShotAt fires at (x, y) on this board
func (b *Board) ResolveShotAt(x, y int) (ShotResult, error) {
	return Fire(b, x, y)
}

// SinkAll marks every ship sunk without touching the cells
func (b *Board) SinkAll() {
	for i := range b.Ships {
		b.Ships[i].Sunk = true
	}
}

// Clone returns a deep copy of the board
func (b *Board) Clone() *Board {
	clone := &Board{
		Size:  b.Size,
		Cells: make([]Cell, len(b.Cells)),
		Ships: make([]Ship, len(b.Ships)),
	}
	copy(clone.Cells, b.Cells)
	copy(clone.Ships, b.Ships)
	return clone
}
