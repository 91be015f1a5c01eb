package service

import (
	"context"
	"sync"
	"time"

	"github.com/wricardo/seabattle/game/engine"
)

// GameService defines all match-related operations
type GameService interface {
	// Match Management
	CreateMatch(ctx context.Context, configName string) (*MatchInfo, error)
	GetMatch(ctx context.Context, matchID string, viewer engine.Side) (*MatchInfo, error)
	ListMatches(ctx context.Context) ([]*MatchInfo, error)
	DeleteMatch(ctx context.Context, matchID string) error

	// Placement
	PlaceShip(ctx context.Context, matchID string, side engine.Side, req ShipRequest) (*ActionResult, error)
	PlaceShips(ctx context.Context, matchID string, side engine.Side, reqs []ShipRequest) (*ActionResult, error)
	AutoPlaceFleet(ctx context.Context, matchID string, side engine.Side) (*ActionResult, error)
	ConfirmReady(ctx context.Context, matchID string, side engine.Side) (*ActionResult, error)

	// Play
	Fire(ctx context.Context, matchID string, side engine.Side, x, y int) (*FireResult, error)
	Surrender(ctx context.Context, matchID string, side engine.Side) (*ActionResult, error)

	// Match State
	GetState(ctx context.Context, matchID string, viewer engine.Side) (*engine.Snapshot, error)
	GetShotHistory(ctx context.Context, matchID string, opts HistoryOptions) (*HistoryResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.MatchConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.MatchConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, configName string, config *engine.MatchConfig) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles match preset loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.MatchConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.MatchConfig
	SaveConfig(name string, config *engine.MatchConfig) error
}

// EventPublisher delivers match events to subscribers
type EventPublisher interface {
	Publish(event GameEvent)
}

// Session represents an active match
type Session struct {
	ID         string
	ConfigName string
	Match      engine.Engine
	// Opponent plays player2 in single-player matches and is nil otherwise
	Opponent       *engine.Opponent
	Config         *engine.MatchConfig
	CreatedAt      time.Time
	// LastAccessedAt is set at construction; afterwards use Touch and LastAccessed
	LastAccessedAt time.Time

	// serializes commands so a human shot and the computer reply stay together
	mu sync.Mutex
	// guards LastAccessedAt, which is touched outside command sequences
	accessMu sync.RWMutex
}

// Touch records t as the last access time
func (s *Session) Touch(t time.Time) {
	s.accessMu.Lock()
	s.LastAccessedAt = t
	s.accessMu.Unlock()
}

// LastAccessed returns the last access time
func (s *Session) LastAccessed() time.Time {
	s.accessMu.RLock()
	defer s.accessMu.RUnlock()
	return s.LastAccessedAt
}
