package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/wricardo/seabattle/game/engine"
	"github.com/wricardo/seabattle/game/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData is the stored form of a session. The preset is kept
// inline so a match survives edits to or removal of its preset file.
type PersistedSessionData struct {
	ID             string                `json:"id"`
	ConfigName     string                `json:"config_name"`
	Config         *engine.MatchConfig   `json:"config"`
	CreatedAt      time.Time             `json:"created_at"`
	LastAccessedAt time.Time             `json:"last_accessed_at"`
	Match          engine.MatchRecord    `json:"match"`
	Opponent       *engine.OpponentState `json:"opponent,omitempty"`
}

func encodeSession(session *service.Session) ([]byte, error) {
	if session == nil {
		return nil, fmt.Errorf("session cannot be nil")
	}
	data := PersistedSessionData{
		ID:             session.ID,
		ConfigName:     session.ConfigName,
		Config:         session.Config,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessed(),
		Match:          session.Match.Record(),
	}
	if session.Opponent != nil {
		state := session.Opponent.State()
		data.Opponent = &state
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session data: %w", err)
	}
	return jsonData, nil
}

func decodeSession(jsonData []byte, newRand func() engine.Rand) (*service.Session, error) {
	var data PersistedSessionData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	if data.Config == nil {
		return nil, fmt.Errorf("session %s has no config", data.ID)
	}

	match, err := engine.RestoreMatch(data.Match)
	if err != nil {
		return nil, fmt.Errorf("failed to restore match: %w", err)
	}

	session := &service.Session{
		ID:             data.ID,
		ConfigName:     data.ConfigName,
		Match:          match,
		Config:         data.Config,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
	}

	if data.Opponent != nil {
		opponent, err := engine.RestoreOpponent(*data.Opponent, newRand())
		if err != nil {
			return nil, fmt.Errorf("failed to restore opponent: %w", err)
		}
		session.Opponent = opponent
	} else if data.Config.Type == engine.SinglePlayer {
		return nil, fmt.Errorf("single-player session %s has no opponent state", data.ID)
	}

	return session, nil
}

func defaultRand() engine.Rand {
	return engine.NewRand(time.Now().UnixNano())
}
