package engine

import (
	"fmt"
	"strings"
)

// BoardView is a board as seen by a particular viewer
type BoardView struct {
	Size        int         `json:"size"`
	Cells       []CellState `json:"cells"` // row-major, index y*Size+x
	Ships       []Ship      `json:"ships"`
	ShipsAfloat int         `json:"ships_afloat"`
}

// Rows renders the view one string per row: '.' empty, '#' ship, 'X' hit, 'o' miss
func (v BoardView) Rows() []string {
	rows := make([]string, 0, v.Size)
	for y := 0; y < v.Size; y++ {
		var sb strings.Builder
		for x := 0; x < v.Size; x++ {
			switch v.Cells[y*v.Size+x] {
			case ShipCell:
				sb.WriteByte('#')
			case Hit:
				sb.WriteByte('X')
			case Miss:
				sb.WriteByte('o')
			default:
				sb.WriteByte('.')
			}
		}
		rows = append(rows, sb.String())
	}
	return rows
}

// Snapshot is a perspective-filtered projection of a match
type Snapshot struct {
	Viewer     Side               `json:"viewer,omitempty"`
	Type       MatchType          `json:"type"`
	Difficulty Difficulty         `json:"difficulty,omitempty"`
	Status     MatchStatus        `json:"status"`
	Turn       Side               `json:"turn,omitempty"`
	Winner     Side               `json:"winner,omitempty"`
	TurnNumber int                `json:"turn_number"`
	Ready      map[Side]bool      `json:"ready"`
	Boards     map[Side]BoardView `json:"boards"`
}

// Snapshot returns the match as seen by viewer. The viewer's own board is
// shown in full; on any other board ship cells that were not hit read as
// empty and only ships sunk by fire are listed, so a surrendered fleet stays
// hidden. An invalid viewer sees both boards masked.
func (m *Match) Snapshot(viewer Side) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Type:       m.matchType,
		Difficulty: m.difficulty,
		Status:     m.status,
		Turn:       m.turn,
		Winner:     m.winner,
		TurnNumber: m.turnNumber,
		Ready:      map[Side]bool{},
		Boards:     map[Side]BoardView{},
	}
	if viewer.Valid() {
		snap.Viewer = viewer
	}

	for _, side := range Sides {
		snap.Ready[side] = m.ready[side]
		snap.Boards[side] = viewBoard(m.boards[side], side == viewer)
	}
	return snap
}

func viewBoard(b *Board, owner bool) BoardView {
	view := BoardView{
		Size:        b.Size,
		Cells:       make([]CellState, len(b.Cells)),
		Ships:       []Ship{},
		ShipsAfloat: b.ShipsAfloat(),
	}
	for i, cell := range b.Cells {
		if !owner && cell.State == ShipCell {
			view.Cells[i] = Empty
			continue
		}
		view.Cells[i] = cell.State
	}
	for _, s := range b.Ships {
		if owner || s.Hits >= s.Size {
			view.Ships = append(view.Ships, s)
		}
	}
	return view
}

// MatchRecord is the persisted form of a match
type MatchRecord struct {
	Type       MatchType       `json:"type"`
	Difficulty Difficulty      `json:"difficulty,omitempty"`
	AutoReady  bool            `json:"auto_ready"`
	Status     MatchStatus     `json:"status"`
	Turn       Side            `json:"turn,omitempty"`
	Winner     Side            `json:"winner,omitempty"`
	TurnNumber int             `json:"turn_number"`
	Ready      map[Side]bool   `json:"ready"`
	Boards     map[Side]*Board `json:"boards"`
	History    []ShotRecord    `json:"history"`
}

// Record returns a deep copy of the full match state for persistence
func (m *Match) Record() MatchRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := MatchRecord{
		Type:       m.matchType,
		Difficulty: m.difficulty,
		AutoReady:  m.autoReady,
		Status:     m.status,
		Turn:       m.turn,
		Winner:     m.winner,
		TurnNumber: m.turnNumber,
		Ready:      map[Side]bool{},
		Boards:     map[Side]*Board{},
		History:    make([]ShotRecord, len(m.history)),
	}
	copy(rec.History, m.history)
	for _, side := range Sides {
		rec.Ready[side] = m.ready[side]
		rec.Boards[side] = m.boards[side].Clone()
	}
	return rec
}

// RestoreMatch rebuilds a match from a record after checking it is consistent
func RestoreMatch(rec MatchRecord) (*Match, error) {
	switch rec.Status {
	case StatusPlacingShips, StatusFinished:
	case StatusInProgress:
		if !rec.Turn.Valid() {
			return nil, fmt.Errorf("%w: match in progress without a valid turn", ErrInvalidRecord)
		}
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidRecord, rec.Status)
	}
	if rec.Status == StatusFinished && !rec.Winner.Valid() {
		return nil, fmt.Errorf("%w: finished match without a winner", ErrInvalidRecord)
	}

	m := &Match{
		matchType:  rec.Type,
		difficulty: rec.Difficulty,
		autoReady:  rec.AutoReady,
		status:     rec.Status,
		turn:       rec.Turn,
		winner:     rec.Winner,
		turnNumber: rec.TurnNumber,
		boards:     map[Side]*Board{},
		ready:      map[Side]bool{},
		history:    make([]ShotRecord, len(rec.History)),
	}
	copy(m.history, rec.History)

	for _, side := range Sides {
		b, ok := rec.Boards[side]
		if !ok || b == nil {
			return nil, fmt.Errorf("%w: missing board for %s", ErrInvalidRecord, side)
		}
		if err := checkBoard(b, rec.Status == StatusFinished); err != nil {
			return nil, fmt.Errorf("%w: %s board: %v", ErrInvalidRecord, side, err)
		}
		m.boards[side] = b.Clone()
		m.ready[side] = rec.Ready[side]
	}
	return m, nil
}

// checkBoard verifies that cells and ships agree in both directions. A ship
// may be sunk short of its size only in a finished match, after a surrender.
func checkBoard(b *Board, finished bool) error {
	if b.Size != BoardSize {
		return fmt.Errorf("size %d, want %d", b.Size, BoardSize)
	}
	if len(b.Cells) != b.Size*b.Size {
		return fmt.Errorf("%d cells, want %d", len(b.Cells), b.Size*b.Size)
	}
	if len(b.Ships) > FleetSize {
		return fmt.Errorf("%d ships, fleet holds %d", len(b.Ships), FleetSize)
	}

	hits := make([]int, len(b.Ships))
	for i, cell := range b.Cells {
		switch cell.State {
		case Empty, Miss:
			if cell.Ship != NoShip {
				return fmt.Errorf("cell %d is %s but references ship %d", i, cell.State, cell.Ship)
			}
		case ShipCell, Hit:
			if cell.Ship < 0 || cell.Ship >= len(b.Ships) {
				return fmt.Errorf("cell %d references unknown ship %d", i, cell.Ship)
			}
			if !b.Ships[cell.Ship].Covers(i%b.Size, i/b.Size) {
				return fmt.Errorf("cell %d is not covered by ship %d", i, cell.Ship)
			}
			if cell.State == Hit {
				hits[cell.Ship]++
			}
		default:
			return fmt.Errorf("cell %d has unknown state %q", i, cell.State)
		}
	}
	placed := map[int]int{}
	for i, s := range b.Ships {
		placed[s.Size]++
		if placed[s.Size] > ShipQuota(s.Size) {
			return fmt.Errorf("ship %d: too many ships of size %d", i, s.Size)
		}
		for _, p := range s.Cells() {
			if !b.InBounds(p.X, p.Y) {
				return fmt.Errorf("ship %d runs off the board at (%d,%d)", i, p.X, p.Y)
			}
			if b.Cell(p.X, p.Y).Ship != i {
				return fmt.Errorf("ship %d covers (%d,%d) but the cell does not reference it", i, p.X, p.Y)
			}
		}
		if s.Hits != hits[i] {
			return fmt.Errorf("ship %d has %d hits but %d hit cells", i, s.Hits, hits[i])
		}
		if s.Hits == s.Size && !s.Sunk {
			return fmt.Errorf("ship %d is fully hit but not sunk", i)
		}
		if s.Sunk && s.Hits < s.Size && !finished {
			return fmt.Errorf("ship %d is sunk with %d of %d hits", i, s.Hits, s.Size)
		}
	}
	return nil
}
