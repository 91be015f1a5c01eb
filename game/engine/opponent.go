package engine

import (
	"errors"
	"fmt"
)

// maxPlacementAttempts bounds the random draws spent on a single ship
const maxPlacementAttempts = 10000

// OpponentMode is the computer opponent's current search phase
type OpponentMode string

const (
	ModeHunting   OpponentMode = "hunting"
	ModeTargeting OpponentMode = "targeting"
)

// Feedback is what the opponent learns about one of its shots
type Feedback struct {
	X    int  `json:"x"`
	Y    int  `json:"y"`
	Hit  bool `json:"hit"`
	Sunk bool `json:"sunk"`
}

// FeedbackFrom converts a resolved shot into opponent feedback
func FeedbackFrom(result ShotResult) Feedback {
	return Feedback{
		X:    result.X,
		Y:    result.Y,
		Hit:  result.IsHit(),
		Sunk: result.Outcome == OutcomeSunk,
	}
}

// Opponent picks shots for the computer side. It never looks at the enemy
// board; everything it knows comes through Observe.
//
// It hunts until a hit, then targets the orthogonal neighbours of the last
// hit until the ship sinks. Difficulty is carried for display and does not
// change how shots are chosen.
type Opponent struct {
	difficulty Difficulty
	rng        Rand

	mode    OpponentMode
	lastHit *Position

	fired []bool
	hits  []bool
	tried int
}

// NewOpponent creates an opponent in hunting mode
func NewOpponent(difficulty Difficulty, rng Rand) *Opponent {
	n := BoardSize * BoardSize
	return &Opponent{
		difficulty: difficulty,
		rng:        rng,
		mode:       ModeHunting,
		fired:      make([]bool, n),
		hits:       make([]bool, n),
	}
}

// Mode returns the current search phase
func (o *Opponent) Mode() OpponentMode {
	return o.mode
}

// LastHit returns the coordinate targeting is anchored on
func (o *Opponent) LastHit() (Position, bool) {
	if o.lastHit == nil {
		return Position{}, false
	}
	return *o.lastHit, true
}

func (o *Opponent) Difficulty() Difficulty {
	return o.difficulty
}

func inBoard(x, y int) bool {
	return x >= 0 && y >= 0 && x < BoardSize && y < BoardSize
}

func (o *Opponent) available(x, y int) bool {
	return inBoard(x, y) && !o.fired[y*BoardSize+x]
}

// NextShot returns the coordinate to fire at next
func (o *Opponent) NextShot() (Position, error) {
	if o.tried >= BoardSize*BoardSize {
		return Position{}, fmt.Errorf("%w: no cells left to fire at", ErrInvalidState)
	}

	if o.mode == ModeTargeting && o.lastHit != nil {
		var candidates []Position
		for _, p := range o.lastHit.Neighbors() {
			if o.available(p.X, p.Y) {
				candidates = append(candidates, p)
			}
		}
		if len(candidates) > 0 {
			return candidates[o.rng.IntN(len(candidates))], nil
		}
		// Nothing left around the anchor; stay in hunting until the next hit
		o.mode = ModeHunting
		o.lastHit = nil
	}

	for {
		x, y := o.rng.IntN(BoardSize), o.rng.IntN(BoardSize)
		if o.available(x, y) {
			return Position{X: x, Y: y}, nil
		}
	}
}

// Observe records the outcome of the opponent's own shot
func (o *Opponent) Observe(fb Feedback) {
	if !inBoard(fb.X, fb.Y) {
		return
	}
	o.markFired(fb.X, fb.Y)

	switch {
	case fb.Sunk:
		o.hits[fb.Y*BoardSize+fb.X] = true
		o.mode = ModeHunting
		o.lastHit = nil
	case fb.Hit:
		o.hits[fb.Y*BoardSize+fb.X] = true
		o.lastHit = &Position{X: fb.X, Y: fb.Y}
		o.mode = ModeTargeting
	}
}

func (o *Opponent) markFired(x, y int) {
	i := y*BoardSize + x
	if !o.fired[i] {
		o.fired[i] = true
		o.tried++
	}
}

// PlaceFleet places side's missing ships at random and confirms readiness
func (o *Opponent) PlaceFleet(m Engine, side Side) ([]Event, error) {
	events, err := PlaceFleetRandomly(m, side, o.rng)
	if err != nil {
		return events, err
	}
	ready, err := m.ConfirmReady(side)
	if err != nil {
		return events, err
	}
	return append(events, ready...), nil
}

// PlaceFleetRandomly places every ship side still needs, largest first. Each
// ship gets a uniformly random start and orientation until one is accepted.
func PlaceFleetRandomly(m Engine, side Side, rng Rand) ([]Event, error) {
	sizes, err := m.RemainingSizes(side)
	if err != nil {
		return nil, err
	}

	var events []Event
	for _, size := range sizes {
		placed := false
		for attempt := 0; attempt < maxPlacementAttempts; attempt++ {
			ship := Ship{
				X:          rng.IntN(BoardSize),
				Y:          rng.IntN(BoardSize),
				Horizontal: rng.IntN(2) == 0,
				Size:       size,
			}
			placedEvents, err := m.PlaceShip(side, ship)
			if errors.Is(err, ErrPlacementRejected) {
				continue
			}
			if err != nil {
				return events, err
			}
			events = append(events, placedEvents...)
			placed = true
			break
		}
		if !placed {
			return events, fmt.Errorf("%w: no room for a ship of size %d after %d attempts", ErrPlacementRejected, size, maxPlacementAttempts)
		}
	}
	return events, nil
}

// OpponentState is the persisted form of an Opponent
type OpponentState struct {
	Difficulty Difficulty   `json:"difficulty"`
	Mode       OpponentMode `json:"mode"`
	LastHit    *Position    `json:"last_hit,omitempty"`
	Fired      []Position   `json:"fired"`
	Hits       []Position   `json:"hits"`
}

// State returns the opponent's targeting state for persistence
func (o *Opponent) State() OpponentState {
	state := OpponentState{
		Difficulty: o.difficulty,
		Mode:       o.mode,
		Fired:      collect(o.fired),
		Hits:       collect(o.hits),
	}
	if o.lastHit != nil {
		p := *o.lastHit
		state.LastHit = &p
	}
	return state
}

func collect(set []bool) []Position {
	positions := []Position{}
	for i, ok := range set {
		if ok {
			positions = append(positions, Position{X: i % BoardSize, Y: i / BoardSize})
		}
	}
	return positions
}

// RestoreOpponent rebuilds an opponent from its persisted state
func RestoreOpponent(state OpponentState, rng Rand) (*Opponent, error) {
	o := NewOpponent(state.Difficulty, rng)

	switch state.Mode {
	case ModeHunting, "":
	case ModeTargeting:
		if state.LastHit == nil || !inBoard(state.LastHit.X, state.LastHit.Y) {
			return nil, fmt.Errorf("%w: targeting without a valid last hit", ErrInvalidRecord)
		}
		p := *state.LastHit
		o.lastHit = &p
		o.mode = ModeTargeting
	default:
		return nil, fmt.Errorf("%w: unknown opponent mode %q", ErrInvalidRecord, state.Mode)
	}

	for _, p := range state.Fired {
		if !inBoard(p.X, p.Y) {
			return nil, fmt.Errorf("%w: position (%d,%d) off the board", ErrInvalidRecord, p.X, p.Y)
		}
		o.markFired(p.X, p.Y)
	}
	for _, p := range state.Hits {
		if !inBoard(p.X, p.Y) {
			return nil, fmt.Errorf("%w: hit (%d,%d) off the board", ErrInvalidRecord, p.X, p.Y)
		}
		o.hits[p.Y*BoardSize+p.X] = true
	}
	return o, nil
}
