package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotHidesOpponentShips(t *testing.T) {
	m := startedMatch(t)

	// player1 sinks the size-1 ship at (3,4) and hits the size-4 ship at (0,0)
	_, _, err := m.Fire(SidePlayer1, 3, 4)
	require.NoError(t, err)
	_, _, err = m.Fire(SidePlayer2, 9, 9)
	require.NoError(t, err)
	_, _, err = m.Fire(SidePlayer1, 0, 0)
	require.NoError(t, err)

	snap := m.Snapshot(SidePlayer1)
	assert.Equal(t, SidePlayer1, snap.Viewer)
	assert.Equal(t, StatusInProgress, snap.Status)
	assert.Equal(t, SidePlayer2, snap.Turn)
	assert.True(t, snap.Ready[SidePlayer2])

	own := snap.Boards[SidePlayer1]
	assert.Len(t, own.Ships, FleetSize)
	assert.Equal(t, ShipCell, own.Cells[0])
	assert.Equal(t, Miss, own.Cells[9*BoardSize+9])

	enemy := snap.Boards[SidePlayer2]
	require.Len(t, enemy.Ships, 1, "only sunk ships are revealed")
	assert.Equal(t, 1, enemy.Ships[0].Size)
	assert.Equal(t, FleetSize-1, enemy.ShipsAfloat)
	assert.Equal(t, Hit, enemy.Cells[0])
	assert.Equal(t, Empty, enemy.Cells[1], "unhit ship cell reads as empty")
	for _, c := range enemy.Cells {
		assert.NotEqual(t, ShipCell, c)
	}
	assert.Equal(t, "X.........", enemy.Rows()[0])
	assert.Equal(t, "...X......", enemy.Rows()[4])
	assert.Equal(t, "####.###..", own.Rows()[0])
}

func TestSnapshotForSpectatorMasksBoth(t *testing.T) {
	m := startedMatch(t)

	snap := m.Snapshot("")
	assert.Empty(t, snap.Viewer)
	for _, side := range Sides {
		assert.Empty(t, snap.Boards[side].Ships)
		for _, c := range snap.Boards[side].Cells {
			assert.Equal(t, Empty, c)
		}
	}
}

func TestSnapshotAfterSurrenderKeepsFleetHidden(t *testing.T) {
	m := startedMatch(t)

	// player1 sinks the size-1 ship at (3,4) before player2 gives up
	_, _, err := m.Fire(SidePlayer1, 3, 4)
	require.NoError(t, err)
	_, _, err = m.Fire(SidePlayer2, 9, 9)
	require.NoError(t, err)
	_, err = m.Surrender(SidePlayer2)
	require.NoError(t, err)

	for _, viewer := range []Side{SidePlayer1, ""} {
		enemy := m.Snapshot(viewer).Boards[SidePlayer2]
		require.Len(t, enemy.Ships, 1, "viewer %q sees only the ship sunk by fire", viewer)
		assert.Equal(t, Ship{X: 3, Y: 4, Size: 1, Hits: 1, Sunk: true}, enemy.Ships[0])
		assert.Equal(t, 0, enemy.ShipsAfloat)
		assert.Equal(t, Empty, enemy.Cells[0])
		for _, c := range enemy.Cells {
			assert.NotEqual(t, ShipCell, c)
		}
	}

	own := m.Snapshot(SidePlayer2).Boards[SidePlayer2]
	assert.Len(t, own.Ships, FleetSize)

	restored, err := RestoreMatch(m.Record())
	require.NoError(t, err, "a surrendered fleet is a consistent record")
	assert.Equal(t, m.Record(), restored.Record())
}

func TestRecordRoundTrip(t *testing.T) {
	m := startedMatch(t)
	for _, shot := range []struct {
		side Side
		x, y int
	}{
		{SidePlayer1, 0, 0},
		{SidePlayer2, 5, 5},
		{SidePlayer1, 3, 4},
		{SidePlayer2, 0, 0},
		{SidePlayer1, 9, 9},
	} {
		_, _, err := m.Fire(shot.side, shot.x, shot.y)
		require.NoError(t, err)
	}

	data, err := json.Marshal(m.Record())
	require.NoError(t, err)
	var rec MatchRecord
	require.NoError(t, json.Unmarshal(data, &rec))

	restored, err := RestoreMatch(rec)
	require.NoError(t, err)

	assert.Equal(t, m.Record(), restored.Record())
	assert.Equal(t, m.Status(), restored.Status())
	assert.Equal(t, m.Turn(), restored.Turn())
	assert.Equal(t, m.TurnNumber(), restored.TurnNumber())
	for _, side := range Sides {
		want, err := m.Board(side)
		require.NoError(t, err)
		got, err := restored.Board(side)
		require.NoError(t, err)
		assert.Equal(t, want.Cells, got.Cells)
		assert.Equal(t, want.Ships, got.Ships)
	}

	// The restored match keeps playing from where it stopped
	_, _, err = restored.Fire(SidePlayer2, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, SidePlayer1, restored.Turn())
}

func TestRestoreMatchRejectsInconsistentRecords(t *testing.T) {
	good := startedMatch(t).Record()

	tests := []struct {
		name   string
		mutate func(rec *MatchRecord)
	}{
		{"unknown status", func(rec *MatchRecord) { rec.Status = "paused" }},
		{"in progress without turn", func(rec *MatchRecord) { rec.Turn = "" }},
		{"finished without winner", func(rec *MatchRecord) { rec.Status = StatusFinished }},
		{"missing board", func(rec *MatchRecord) { delete(rec.Boards, SidePlayer2) }},
		{"short cells", func(rec *MatchRecord) { rec.Boards[SidePlayer1].Cells = rec.Boards[SidePlayer1].Cells[:10] }},
		{"dangling ship index", func(rec *MatchRecord) { rec.Boards[SidePlayer1].Cells[0].Ship = 42 }},
		{"hit counter mismatch", func(rec *MatchRecord) { rec.Boards[SidePlayer1].Ships[0].Hits = 3 }},
		{"unknown cell state", func(rec *MatchRecord) { rec.Boards[SidePlayer1].Cells[99].State = "fog" }},
		{"ship cell not referenced", func(rec *MatchRecord) { rec.Boards[SidePlayer1].Cells[1] = Cell{State: Empty, Ship: NoShip} }},
		{"ship without cells", func(rec *MatchRecord) { rec.Boards[SidePlayer1].Ships[9].Size = 0 }},
		{"sunk without hits", func(rec *MatchRecord) { rec.Boards[SidePlayer1].Ships[0].Sunk = true }},
		{"fully hit but afloat", func(rec *MatchRecord) {
			b := rec.Boards[SidePlayer1]
			b.Cells[4*BoardSize+3].State = Hit
			b.Ships[6].Hits = 1
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := cloneRecord(t, good)
			tt.mutate(&rec)
			_, err := RestoreMatch(rec)
			assert.ErrorIs(t, err, ErrInvalidRecord)
		})
	}
}

func cloneRecord(t *testing.T, rec MatchRecord) MatchRecord {
	t.Helper()
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	var out MatchRecord
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}
