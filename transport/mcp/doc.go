// Package mcp exposes Sea Battle to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool call becomes a request to the REST
// API and the JSON response is rendered as text, boards included.
//
// MCP Tools:
//   - create_match: Create a match from a preset
//   - list_matches: List active matches, optionally by status
//   - match_state: Both boards from one side's point of view
//   - place_ship: Place one ship or a "ships" list
//   - auto_place: Place the rest of the fleet at random
//   - ready: Confirm the fleet
//   - fire: Fire at (x, y); the computer's reply is included
//   - surrender: Give up the match
//   - shot_history: Shots fired so far with pagination
//   - list_configs: Available presets
//   - game_instructions: Rules and strategy
//
// Commands take an optional side argument that defaults to player1.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
