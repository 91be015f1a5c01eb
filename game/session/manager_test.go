package session

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/seabattle/game/engine"
)

func singlePlayerConfig() *engine.MatchConfig {
	return engine.DefaultMatchConfig()
}

func twoPlayerConfig() *engine.MatchConfig {
	return &engine.MatchConfig{Name: "Duel", Type: engine.TwoPlayer}
}

func seededRand() engine.Rand {
	return engine.NewRand(42)
}

func TestManager_Create(t *testing.T) {
	manager := NewManager(WithRandSource(seededRand))

	t.Run("generated id", func(t *testing.T) {
		session, err := manager.Create("", "classic", singlePlayerConfig())
		require.NoError(t, err)
		assert.Len(t, session.ID, 4)
		assert.Equal(t, "classic", session.ConfigName)
		assert.Equal(t, engine.StatusPlacingShips, session.Match.Status())
	})

	t.Run("computer fleet is ready", func(t *testing.T) {
		session, err := manager.Create("", "classic", singlePlayerConfig())
		require.NoError(t, err)
		require.NotNil(t, session.Opponent)
		assert.True(t, session.Match.Ready(engine.SidePlayer2))
		assert.False(t, session.Match.Ready(engine.SidePlayer1))

		board, err := session.Match.Board(engine.SidePlayer2)
		require.NoError(t, err)
		assert.True(t, board.AllShipsPlaced())
	})

	t.Run("two player has no opponent", func(t *testing.T) {
		session, err := manager.Create("duel", "duel", twoPlayerConfig())
		require.NoError(t, err)
		assert.Nil(t, session.Opponent)
		assert.False(t, session.Match.Ready(engine.SidePlayer2))
	})

	t.Run("duplicate id is case-insensitive", func(t *testing.T) {
		_, err := manager.Create("DUEL", "duel", twoPlayerConfig())
		assert.ErrorIs(t, err, ErrSessionAlreadyExists)
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := manager.Create("", "bad", &engine.MatchConfig{Name: "Bad", Type: "solo"})
		assert.ErrorIs(t, err, engine.ErrInvalidConfig)
	})
}

func TestManager_Get(t *testing.T) {
	manager := NewManager()
	created, err := manager.Create("AbCd", "duel", twoPlayerConfig())
	require.NoError(t, err)

	for _, id := range []string{"AbCd", "abcd", "ABCD"} {
		got, err := manager.Get(id)
		require.NoError(t, err, id)
		assert.Same(t, created, got)
	}

	_, err = manager.Get("zzzz")
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestManager_GetOrCreate(t *testing.T) {
	manager := NewManager()

	created, err := manager.GetOrCreate("lobby", "duel", twoPlayerConfig())
	require.NoError(t, err)
	assert.Equal(t, "lobby", created.ID)

	again, err := manager.GetOrCreate("LOBBY", "classic", singlePlayerConfig())
	require.NoError(t, err)
	assert.Same(t, created, again, "existing match is returned, config ignored")
	assert.Equal(t, 1, manager.Count())
}

func TestManager_Delete(t *testing.T) {
	manager := NewManager()
	_, err := manager.Create("gone", "duel", twoPlayerConfig())
	require.NoError(t, err)

	require.NoError(t, manager.Delete("GONE"))
	_, err = manager.Get("gone")
	assert.ErrorIs(t, err, ErrMatchNotFound)
	assert.ErrorIs(t, manager.Delete("gone"), ErrMatchNotFound)
	assert.ErrorIs(t, manager.DeleteFromMemory("gone"), ErrMatchNotFound)
}

func TestManager_List(t *testing.T) {
	manager := NewManager()
	assert.Empty(t, manager.List())

	for _, id := range []string{"a1", "b2", "c3"} {
		_, err := manager.Create(id, "duel", twoPlayerConfig())
		require.NoError(t, err)
	}
	assert.Len(t, manager.List(), 3)
	assert.Equal(t, 3, manager.Count())
}

func TestManager_CleanupExpired(t *testing.T) {
	ctx := context.Background()
	clock := quartz.NewMock(t)
	manager := NewManager(WithClock(clock))

	_, err := manager.Create("old", "duel", twoPlayerConfig())
	require.NoError(t, err)

	clock.Advance(30 * time.Minute).MustWait(ctx)
	_, err = manager.Create("new", "duel", twoPlayerConfig())
	require.NoError(t, err)

	clock.Advance(45 * time.Minute).MustWait(ctx)
	assert.Equal(t, 1, manager.CleanupExpiredSessions(time.Hour))

	_, err = manager.Get("old")
	assert.ErrorIs(t, err, ErrMatchNotFound)
	_, err = manager.Get("new")
	assert.NoError(t, err)
}

func TestManager_UpdateLastAccessed(t *testing.T) {
	ctx := context.Background()
	clock := quartz.NewMock(t)
	manager := NewManager(WithClock(clock))

	session, err := manager.Create("seen", "duel", twoPlayerConfig())
	require.NoError(t, err)
	created := session.LastAccessed()

	clock.Advance(50 * time.Minute).MustWait(ctx)
	require.NoError(t, manager.UpdateLastAccessed("SEEN"))
	assert.Equal(t, created.Add(50*time.Minute), session.LastAccessed())
	assert.Equal(t, created, session.CreatedAt)

	clock.Advance(30 * time.Minute).MustWait(ctx)
	assert.Zero(t, manager.CleanupExpiredSessions(time.Hour), "recently accessed match survives")

	assert.ErrorIs(t, manager.UpdateLastAccessed("nope"), ErrMatchNotFound)
}

func TestManager_ConcurrentAccess(t *testing.T) {
	manager := NewManager()

	var wg sync.WaitGroup
	ids := make(chan string, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session, err := manager.Create("", "classic", singlePlayerConfig())
			if err != nil {
				t.Errorf("create: %v", err)
				return
			}
			ids <- session.ID
			manager.UpdateLastAccessed(session.ID)
			manager.List()
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
		assert.Equal(t, strings.ToLower(id), id)
	}
	assert.Equal(t, 20, manager.Count())
}

func TestManager_SessionIsolation(t *testing.T) {
	manager := NewManager()
	first, err := manager.Create("one", "duel", twoPlayerConfig())
	require.NoError(t, err)
	second, err := manager.Create("two", "duel", twoPlayerConfig())
	require.NoError(t, err)

	_, err = first.Match.PlaceShip(engine.SidePlayer1, engine.Ship{X: 0, Y: 0, Size: 4, Horizontal: true})
	require.NoError(t, err)

	remaining, err := second.Match.RemainingSizes(engine.SidePlayer1)
	require.NoError(t, err)
	assert.Len(t, remaining, engine.FleetSize)
}
