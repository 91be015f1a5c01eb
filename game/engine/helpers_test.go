package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// testFleet is a legal full fleet that leaves rows 6..9 empty
func testFleet() []Ship {
	return []Ship{
		{X: 0, Y: 0, Horizontal: true, Size: 4},
		{X: 5, Y: 0, Horizontal: true, Size: 3},
		{X: 0, Y: 2, Horizontal: true, Size: 3},
		{X: 4, Y: 2, Horizontal: true, Size: 2},
		{X: 7, Y: 2, Horizontal: true, Size: 2},
		{X: 0, Y: 4, Horizontal: true, Size: 2},
		{X: 3, Y: 4, Size: 1},
		{X: 5, Y: 4, Size: 1},
		{X: 7, Y: 4, Size: 1},
		{X: 9, Y: 4, Size: 1},
	}
}

func twoPlayerConfig() *MatchConfig {
	return &MatchConfig{
		Name:        "Two Player Test",
		Description: "match used by engine tests",
		Type:        TwoPlayer,
	}
}

func placeFleet(t *testing.T, m *Match, side Side) {
	t.Helper()
	for _, ship := range testFleet() {
		_, err := m.PlaceShip(side, ship)
		require.NoError(t, err)
	}
}

// startedMatch returns a two-player match in progress with player1 to move
func startedMatch(t *testing.T) *Match {
	t.Helper()
	m, err := NewMatch(twoPlayerConfig())
	require.NoError(t, err)
	for _, side := range Sides {
		placeFleet(t, m, side)
		_, err := m.ConfirmReady(side)
		require.NoError(t, err)
	}
	require.Equal(t, StatusInProgress, m.Status())
	return m
}

// missCells yields empty cells of testFleet boards, row by row from y=6
func missCells() []Position {
	var cells []Position
	for y := 6; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			cells = append(cells, Position{X: x, Y: y})
		}
	}
	return cells
}

// scriptedRand returns queued values and falls back to 0 when empty
type scriptedRand struct {
	values []int
}

func (r *scriptedRand) IntN(n int) int {
	if len(r.values) == 0 {
		return 0
	}
	v := r.values[0]
	r.values = r.values[1:]
	return v % n
}
