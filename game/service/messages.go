package service

import (
	"fmt"

	"github.com/wricardo/seabattle/game/engine"
)

func describeEvent(cfg *engine.MatchConfig, ev engine.Event) string {
	switch ev.Type {
	case engine.EventMatchCreated:
		if cfg != nil && cfg.Messages.Welcome != "" {
			return cfg.Messages.Welcome
		}
		return "Match created. Place your fleet."
	case engine.EventShipPlaced:
		return fmt.Sprintf("%s placed a ship of size %d", ev.Side, ev.ShipSize)
	case engine.EventSideReady:
		return fmt.Sprintf("%s is ready", ev.Side)
	case engine.EventMatchStarted:
		return fmt.Sprintf("All fleets in position. %s fires first.", ev.Turn)
	case engine.EventShotResult:
		if ev.Position == nil {
			return fmt.Sprintf("%s fired: %s", ev.Side, ev.Outcome)
		}
		return describeShot(ev.Side, engine.ShotResult{
			X:        ev.Position.X,
			Y:        ev.Position.Y,
			Outcome:  ev.Outcome,
			ShipSize: ev.ShipSize,
		})
	case engine.EventTurnChanged:
		return fmt.Sprintf("Turn %d: %s to fire", ev.TurnNumber, ev.Turn)
	case engine.EventMatchFinished:
		return finishMessage(cfg, ev.Winner, ev.Reason)
	}
	return string(ev.Type)
}

func describeShot(side engine.Side, shot engine.ShotResult) string {
	switch shot.Outcome {
	case engine.OutcomeSunk:
		return fmt.Sprintf("%s fired at (%d,%d) and sank a ship of size %d!", side, shot.X, shot.Y, shot.ShipSize)
	case engine.OutcomeHit:
		return fmt.Sprintf("%s fired at (%d,%d): hit!", side, shot.X, shot.Y)
	default:
		return fmt.Sprintf("%s fired at (%d,%d): miss.", side, shot.X, shot.Y)
	}
}

func finishMessage(cfg *engine.MatchConfig, winner engine.Side, reason engine.FinishReason) string {
	if reason == engine.ReasonSurrender {
		if cfg != nil && cfg.Messages.Surrender != "" {
			return fmt.Sprintf(cfg.Messages.Surrender, winner.Opponent())
		}
		return fmt.Sprintf("%s surrendered. %s wins.", winner.Opponent(), winner)
	}
	if cfg != nil && cfg.Messages.Victory != "" {
		return fmt.Sprintf(cfg.Messages.Victory, winner)
	}
	return fmt.Sprintf("%s wins! The enemy fleet is destroyed.", winner)
}
