package service

import (
	"time"

	"github.com/wricardo/seabattle/game/engine"
)

// MatchInfo provides information about a match session
type MatchInfo struct {
	ID             string              `json:"id"`
	ConfigName     string              `json:"config_name"`
	CreatedAt      time.Time           `json:"created_at"`
	LastAccessedAt time.Time           `json:"last_accessed_at"`
	State          engine.Snapshot     `json:"state"`
	MatchConfig    *engine.MatchConfig `json:"match_config"`
}

// ShipRequest describes a ship a player wants to place
type ShipRequest struct {
	X          int  `json:"x"`
	Y          int  `json:"y"`
	Size       int  `json:"size"`
	Horizontal bool `json:"horizontal"`
}

// Ship converts the request to an engine ship
func (r ShipRequest) Ship() engine.Ship {
	return engine.Ship{X: r.X, Y: r.Y, Size: r.Size, Horizontal: r.Horizontal}
}

// ActionResult contains the result of a placement, readiness or surrender call
type ActionResult struct {
	Success        bool            `json:"success"`
	Message        string          `json:"message"`
	Events         []GameEvent     `json:"events"`
	State          engine.Snapshot `json:"state"`
	RemainingShips []int           `json:"remaining_ships,omitempty"`
}

// FireResult contains the result of a shot
type FireResult struct {
	Shot engine.ShotResult `json:"shot"`
	// ComputerShots are the computer's replies in single-player matches
	ComputerShots []engine.ShotResult `json:"computer_shots,omitempty"`
	Message       string              `json:"message"`
	Events        []GameEvent         `json:"events"`
	State         engine.Snapshot     `json:"state"`
	GameOver      bool                `json:"game_over"`
	Winner        engine.Side         `json:"winner,omitempty"`
}

// GameEvent is an engine event stamped with the match and time it happened
type GameEvent struct {
	engine.Event
	MatchID   string    `json:"match_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryOptions configures shot history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated shot history
type HistoryResponse struct {
	Shots       []engine.ShotRecord `json:"shots"`
	TotalShots  int                 `json:"total_shots"`
	Page        int                 `json:"page"`
	PageSize    int                 `json:"page_size"`
	TotalPages  int                 `json:"total_pages"`
	HasNext     bool                `json:"has_next"`
	HasPrevious bool                `json:"has_previous"`
}

// ConfigInfo provides information about a match preset
type ConfigInfo struct {
	Filename    string            `json:"filename"`
	ConfigID    string            `json:"config_id"` // The identifier to use for match creation
	Name        string            `json:"name"`      // Display name
	Description string            `json:"description"`
	Type        engine.MatchType  `json:"type"`
	Difficulty  engine.Difficulty `json:"difficulty,omitempty"`
	AutoReady   bool              `json:"auto_ready"`
}
