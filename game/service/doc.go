// Package service provides the business logic layer for Sea Battle.
//
// The service package implements:
//   - Multi-match management
//   - Preset lookup and loading
//   - Ship placement, readiness and firing on behalf of players
//   - Computer replies in single-player matches
//   - Event stamping, publishing and metrics
//   - Shot history pagination
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level match operations.
// SessionManager handles match session creation, retrieval, and lifecycle.
// ConfigManager manages preset loading and validation.
// EventPublisher receives every stamped match event, typically the websocket hub.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Each session owns its own engine.Match and, for matches
// against the computer, an engine.Opponent playing player2. Commands on a
// session are serialized so that a human shot and the computer's answer are
// applied and persisted together.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr,
//		service.WithLogger(logger),
//		service.WithPublisher(hub),
//	)
//
//	info, err := gameService.CreateMatch(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	_, err = gameService.AutoPlaceFleet(ctx, info.ID, engine.SidePlayer1)
//	_, err = gameService.ConfirmReady(ctx, info.ID, engine.SidePlayer1)
//	result, err := gameService.Fire(ctx, info.ID, engine.SidePlayer1, 4, 7)
package service
