package engine

// CellState represents what is known about a single grid cell
type CellState string

const (
	Empty    CellState = "empty"
	ShipCell CellState = "ship"
	Hit      CellState = "hit"
	Miss     CellState = "miss"

	// Board and fleet constants
	BoardSize   = 10
	FleetSize   = 10
	MinShipSize = 1
	MaxShipSize = 4

	// NoShip marks a cell that no ship occupies
	NoShip = -1
)

// fleetQuota is the number of ships allowed for each size.
var fleetQuota = map[int]int{
	1: 4,
	2: 3,
	3: 2,
	4: 1,
}

// ShipQuota returns how many ships of the given size a fleet holds.
// Sizes outside 1..4 have a quota of zero.
func ShipQuota(size int) int {
	return fleetQuota[size]
}

// FleetSizes returns the ship sizes of a full fleet in descending order.
func FleetSizes() []int {
	sizes := make([]int, 0, FleetSize)
	for size := MaxShipSize; size >= MinShipSize; size-- {
		for i := 0; i < fleetQuota[size]; i++ {
			sizes = append(sizes, size)
		}
	}
	return sizes
}

// Cell represents a single grid cell
type Cell struct {
	State CellState `json:"state"`
	Ship  int       `json:"ship"` // index into Board.Ships, NoShip when empty
}

// HasShip reports whether a ship occupies the cell, hit or not
func (c Cell) HasShip() bool {
	return c.Ship != NoShip
}

// Resolved reports whether the cell has already been fired at
func (c Cell) Resolved() bool {
	return c.State == Hit || c.State == Miss
}

// Position represents x,y coordinates
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Neighbors returns the four orthogonal neighbours: up, down, left, right.
// The result is not clipped to the board.
func (p Position) Neighbors() []Position {
	return []Position{
		{X: p.X, Y: p.Y - 1},
		{X: p.X, Y: p.Y + 1},
		{X: p.X - 1, Y: p.Y},
		{X: p.X + 1, Y: p.Y},
	}
}

// Ship is a ship placed on a board. It extends Size cells from (X, Y) to the
// right when Horizontal and downwards otherwise.
type Ship struct {
	X          int  `json:"x"`
	Y          int  `json:"y"`
	Horizontal bool `json:"horizontal"`
	Size       int  `json:"size"`
	Hits       int  `json:"hits"`
	Sunk       bool `json:"sunk"`
}

// Cells returns the positions the ship occupies
func (s Ship) Cells() []Position {
	cells := make([]Position, 0, s.Size)
	for i := 0; i < s.Size; i++ {
		if s.Horizontal {
			cells = append(cells, Position{X: s.X + i, Y: s.Y})
		} else {
			cells = append(cells, Position{X: s.X, Y: s.Y + i})
		}
	}
	return cells
}

// Covers reports whether the ship occupies (x, y)
func (s Ship) Covers(x, y int) bool {
	if s.Horizontal {
		return y == s.Y && x >= s.X && x < s.X+s.Size
	}
	return x == s.X && y >= s.Y && y < s.Y+s.Size
}

// hit registers a hit and returns true when it sank the ship
func (s *Ship) hit() bool {
	s.Hits++
	if s.Hits >= s.Size {
		s.Sunk = true
	}
	return s.Sunk
}

// Side identifies one of the two players in a match
type Side string

const (
	SidePlayer1 Side = "player1"
	SidePlayer2 Side = "player2"
)

// Sides lists both sides in turn order
var Sides = []Side{SidePlayer1, SidePlayer2}

// Valid reports whether s names a side
func (s Side) Valid() bool {
	return s == SidePlayer1 || s == SidePlayer2
}

// Opponent returns the other side
func (s Side) Opponent() Side {
	if s == SidePlayer1 {
		return SidePlayer2
	}
	return SidePlayer1
}

// ParseSide converts user input to a Side
func ParseSide(raw string) (Side, error) {
	side := Side(raw)
	if !side.Valid() {
		return "", unknownSide(raw)
	}
	return side, nil
}

// MatchType distinguishes games against the computer from two-player games
type MatchType string

const (
	SinglePlayer MatchType = "single_player"
	TwoPlayer    MatchType = "two_player"
)

// Difficulty labels a single-player match. Every difficulty plays the same
// hunt/target strategy.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// MatchStatus is the phase a match is in
type MatchStatus string

const (
	// StatusWaiting belongs to the lobby layer; the engine starts at StatusPlacingShips
	StatusWaiting      MatchStatus = "waiting"
	StatusPlacingShips MatchStatus = "placing_ships"
	StatusInProgress   MatchStatus = "in_progress"
	StatusFinished     MatchStatus = "finished"
)

// ShotOutcome is the result of a resolved shot
type ShotOutcome string

const (
	OutcomeMiss ShotOutcome = "miss"
	OutcomeHit  ShotOutcome = "hit"
	OutcomeSunk ShotOutcome = "sunk"
)

// ShotResult describes a resolved shot
type ShotResult struct {
	X         int         `json:"x"`
	Y         int         `json:"y"`
	Outcome   ShotOutcome `json:"outcome"`
	ShipSize  int         `json:"ship_size,omitempty"` // set when Outcome is sunk
	ShipIndex int         `json:"-"`
}

// IsHit reports whether the shot struck a ship
func (r ShotResult) IsHit() bool {
	return r.Outcome == OutcomeHit || r.Outcome == OutcomeSunk
}

// ShotRecord is an entry in a match's shot history
type ShotRecord struct {
	Side       Side        `json:"side"`
	X          int         `json:"x"`
	Y          int         `json:"y"`
	Outcome    ShotOutcome `json:"outcome"`
	ShipSize   int         `json:"ship_size,omitempty"`
	TurnNumber int         `json:"turn_number"`
}
