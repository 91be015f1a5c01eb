// Package engine provides the core game logic for Sea Battle.
//
// The engine package implements the game mechanics including:
//   - A 10x10 board of cells and the ships placed on it
//   - Ship placement validation with a mandatory one-cell buffer
//   - Shot resolution and sinking
//   - The match state machine (placing ships, in progress, finished)
//   - A hunt/target computer opponent
//
// Core Types:
//
// Board owns a flat slice of cells and the ships placed on it. Cells refer to
// ships by index, never by pointer, so a board serializes as-is. Match holds
// one board per side and drives every state transition; its methods are safe
// for concurrent use. Opponent selects shots for the computer side using only
// the shot outcomes it is told about.
//
// Usage:
//
//	match, err := engine.NewMatch(engine.DefaultMatchConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	_, err = match.PlaceShip(engine.SidePlayer1, engine.Ship{X: 2, Y: 2, Horizontal: true, Size: 3})
//	if errors.Is(err, engine.ErrPlacementRejected) {
//		// ask the player for another position
//	}
//
//	result, _, err := match.Fire(engine.SidePlayer1, 4, 7)
//
// Game Rules:
//
// Each side places the classic fleet (one 4-cell ship, two 3-cell, three
// 2-cell and four 1-cell ships). Ships may not touch, not even at a corner.
// Once both sides are ready, player1 fires first and the turn alternates after
// every shot. A side loses when every one of its ships is sunk or it
// surrenders.
//
// The engine performs no I/O and never logs. Randomness is always injected
// through the Rand interface.
package engine
