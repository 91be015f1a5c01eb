package engine

import (
	"fmt"
	"sync"
)

// Match is the state machine for one game between two sides. All methods are
// safe for concurrent use; a failed call leaves the match unchanged.
type Match struct {
	mu sync.Mutex

	matchType  MatchType
	difficulty Difficulty
	autoReady  bool

	status     MatchStatus
	boards     map[Side]*Board
	ready      map[Side]bool
	turn       Side
	winner     Side
	turnNumber int
	history    []ShotRecord
}

// NewMatch creates a match in the ship placement phase
func NewMatch(cfg *MatchConfig) (*Match, error) {
	if err := ValidateMatchConfig(cfg); err != nil {
		return nil, err
	}

	return &Match{
		matchType:  cfg.Type,
		difficulty: cfg.Difficulty,
		autoReady:  cfg.AutoReady,
		status:     StatusPlacingShips,
		boards: map[Side]*Board{
			SidePlayer1: NewBoard(),
			SidePlayer2: NewBoard(),
		},
		ready:   map[Side]bool{SidePlayer1: false, SidePlayer2: false},
		history: []ShotRecord{},
	}, nil
}

// PlaceShip adds a ship to side's board
func (m *Match) PlaceShip(side Side, ship Ship) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !side.Valid() {
		return nil, unknownSide(string(side))
	}
	if m.status != StatusPlacingShips {
		return nil, fmt.Errorf("%w: cannot place ships while match is %s", ErrInvalidState, m.status)
	}
	if m.ready[side] {
		return nil, fmt.Errorf("%w: %s is already ready", ErrInvalidState, side)
	}
	if ship.Size < MinShipSize || ship.Size > MaxShipSize {
		return nil, rejectPlacement("ship size %d not in %d..%d", ship.Size, MinShipSize, MaxShipSize)
	}

	board := m.boards[side]
	if board.RemainingQuota(ship.Size) == 0 {
		return nil, fmt.Errorf("%w: %s already has %d ships of size %d", ErrFleetLimitExceeded, side, ShipQuota(ship.Size), ship.Size)
	}
	if err := board.PlaceShip(ship); err != nil {
		return nil, err
	}

	events := []Event{{Type: EventShipPlaced, Side: side, ShipSize: ship.Size}}
	if m.autoReady && board.AllShipsPlaced() {
		events = append(events, m.markReady(side)...)
	}
	return events, nil
}

// ConfirmReady marks side as done placing. Confirming twice is a no-op.
func (m *Match) ConfirmReady(side Side) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !side.Valid() {
		return nil, unknownSide(string(side))
	}
	if m.status != StatusPlacingShips {
		return nil, fmt.Errorf("%w: cannot confirm readiness while match is %s", ErrInvalidState, m.status)
	}
	if m.ready[side] {
		return nil, nil
	}
	if !m.boards[side].AllShipsPlaced() {
		return nil, fmt.Errorf("%w: %s has placed %d of %d ships", ErrFleetIncomplete, side, len(m.boards[side].Ships), FleetSize)
	}

	return m.markReady(side), nil
}

func (m *Match) markReady(side Side) []Event {
	m.ready[side] = true
	events := []Event{{Type: EventSideReady, Side: side}}

	if m.ready[SidePlayer1] && m.ready[SidePlayer2] {
		m.status = StatusInProgress
		m.turn = SidePlayer1
		m.turnNumber = 1
		events = append(events, Event{Type: EventMatchStarted, Turn: m.turn, TurnNumber: m.turnNumber})
	}
	return events
}

// Fire resolves side's shot at (x, y) on the opposing board. The turn passes
// to the other side after every resolved shot, hit or miss.
func (m *Match) Fire(side Side, x, y int) (ShotResult, []Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !side.Valid() {
		return ShotResult{}, nil, unknownSide(string(side))
	}
	if m.status != StatusInProgress {
		return ShotResult{}, nil, fmt.Errorf("%w: cannot fire while match is %s", ErrInvalidState, m.status)
	}
	if m.turn != side {
		return ShotResult{}, nil, fmt.Errorf("%w: it is %s's turn", ErrNotYourTurn, m.turn)
	}

	target := m.boards[side.Opponent()]
	result, err := target.ResolveShotAt(x, y)
	if err != nil {
		return ShotResult{}, nil, err
	}

	m.history = append(m.history, ShotRecord{
		Side:       side,
		X:          x,
		Y:          y,
		Outcome:    result.Outcome,
		ShipSize:   result.ShipSize,
		TurnNumber: m.turnNumber,
	})
	shot := shotEvent(side, result)
	shot.TurnNumber = m.turnNumber
	events := []Event{shot}

	if target.AllShipsSunk() {
		events = append(events, m.finish(side, ReasonFleetDestroyed))
		return result, events, nil
	}

	m.turn = side.Opponent()
	m.turnNumber++
	events = append(events, Event{Type: EventTurnChanged, Turn: m.turn, TurnNumber: m.turnNumber})
	return result, events, nil
}

// Surrender ends the match in the other side's favour. Every ship of the
// surrendering side is marked sunk.
func (m *Match) Surrender(side Side) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !side.Valid() {
		return nil, unknownSide(string(side))
	}
	if m.status != StatusInProgress {
		return nil, fmt.Errorf("%w: cannot surrender while match is %s", ErrInvalidState, m.status)
	}

	m.boards[side].SinkAll()
	return []Event{m.finish(side.Opponent(), ReasonSurrender)}, nil
}

func (m *Match) finish(winner Side, reason FinishReason) Event {
	m.status = StatusFinished
	m.winner = winner
	m.turn = ""
	return Event{Type: EventMatchFinished, Winner: winner, Reason: reason, TurnNumber: m.turnNumber}
}

// Status returns the current phase
func (m *Match) Status() MatchStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Turn returns the side allowed to fire, empty outside of play
func (m *Match) Turn() Side {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.turn
}

// Winner returns the winning side once the match is finished
func (m *Match) Winner() Side {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.winner
}

// TurnNumber returns the 1-based number of the current turn
func (m *Match) TurnNumber() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.turnNumber
}

func (m *Match) Type() MatchType {
	return m.matchType
}

func (m *Match) Difficulty() Difficulty {
	return m.difficulty
}

// IsOver reports whether the match is finished
func (m *Match) IsOver() bool {
	return m.Status() == StatusFinished
}

// Ready reports whether side has confirmed its fleet
func (m *Match) Ready(side Side) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready[side]
}

// RemainingSizes lists the ship sizes side still has to place
func (m *Match) RemainingSizes(side Side) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !side.Valid() {
		return nil, unknownSide(string(side))
	}
	return m.boards[side].RemainingSizes(), nil
}

// Board returns a copy of side's board with ships revealed
func (m *Match) Board(side Side) (*Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !side.Valid() {
		return nil, unknownSide(string(side))
	}
	return m.boards[side].Clone(), nil
}

// History returns a copy of the shot log in firing order
func (m *Match) History() []ShotRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := make([]ShotRecord, len(m.history))
	copy(history, m.history)
	return history
}
