package engine

// Engine provides the main interface for match operations
type Engine interface {
	// Placement phase
	PlaceShip(side Side, ship Ship) ([]Event, error)
	ConfirmReady(side Side) ([]Event, error)
	RemainingSizes(side Side) ([]int, error)

	// Play
	Fire(side Side, x, y int) (ShotResult, []Event, error)
	Surrender(side Side) ([]Event, error)

	// State
	Status() MatchStatus
	Turn() Side
	Winner() Side
	TurnNumber() int
	Type() MatchType
	Difficulty() Difficulty
	IsOver() bool
	Ready(side Side) bool

	// Views and persistence
	Snapshot(viewer Side) Snapshot
	Board(side Side) (*Board, error)
	History() []ShotRecord
	Record() MatchRecord
}

var _ Engine = (*Match)(nil)
