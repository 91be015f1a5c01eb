package engine

// EventType names an outbound match event
type EventType string

const (
	EventMatchCreated  EventType = "match_created"
	EventShipPlaced    EventType = "ship_placed"
	EventSideReady     EventType = "side_ready"
	EventMatchStarted  EventType = "match_started"
	EventShotResult    EventType = "shot_result"
	EventTurnChanged   EventType = "turn_changed"
	EventMatchFinished EventType = "match_finished"
)

// FinishReason explains why a match ended
type FinishReason string

const (
	ReasonFleetDestroyed FinishReason = "fleet_destroyed"
	ReasonSurrender      FinishReason = "surrender"
)

// Event is a state change produced by Match. Events carry only public
// information: ship_placed never reveals a position.
type Event struct {
	Type       EventType    `json:"type"`
	Side       Side         `json:"side,omitempty"`
	Position   *Position    `json:"position,omitempty"`
	Outcome    ShotOutcome  `json:"outcome,omitempty"`
	ShipSize   int          `json:"ship_size,omitempty"`
	Turn       Side         `json:"turn,omitempty"`
	TurnNumber int          `json:"turn_number,omitempty"`
	Winner     Side         `json:"winner,omitempty"`
	Reason     FinishReason `json:"reason,omitempty"`
}

func shotEvent(side Side, result ShotResult) Event {
	e := Event{
		Type:     EventShotResult,
		Side:     side,
		Position: &Position{X: result.X, Y: result.Y},
		Outcome:  result.Outcome,
	}
	if result.Outcome == OutcomeSunk {
		e.ShipSize = result.ShipSize
	}
	return e
}
