// Package api provides HTTP REST API handlers for Sea Battle.
//
// Endpoints:
//
// Match Management:
//   - POST /api/matches - Create a match from a preset ({"config_id": "classic"})
//   - GET /api/matches - List matches (sort=created|accessed, order, limit, status)
//   - GET /api/matches/{id}?viewer=player1 - Match details as seen by viewer
//   - DELETE /api/matches/{id} - Delete a match
//
// Match Commands:
//   - POST /api/matches/{id}/ships - Place one ship or a "ships" list
//   - POST /api/matches/{id}/ships/auto - Place the rest of the fleet at random
//   - POST /api/matches/{id}/ready - Confirm the fleet
//   - POST /api/matches/{id}/fire - Fire at {"x", "y"}
//   - POST /api/matches/{id}/surrender - Give up
//   - GET /api/matches/{id}/state?viewer=player2 - Current snapshot
//   - GET /api/matches/{id}/history - Shot history with pagination
//
// Commands take an optional "side" field which defaults to player1. In
// single-player matches player2 belongs to the computer and commands for it
// are refused.
//
// Configuration:
//   - GET /api/configs - List presets
//   - GET /api/configs/{name} - Get a preset
//   - POST /api/configs - Save a preset ({"config_id": "...", "name": "...", ...})
//
// Other:
//   - GET /ws?match={id} - WebSocket event stream for a match
//   - GET /health - Liveness
//   - GET /metrics - Prometheus metrics
//
// Error Handling:
//
// Errors are returned as JSON with the HTTP status code repeated in the body:
//
//	{
//	  "error": "invalid shot: (3,4) already fired at",
//	  "code": 409
//	}
//
// 404 unknown match or preset, 400 malformed request or unknown side,
// 403 computer-controlled side, 409 command not allowed in the current state
// (wrong phase, not your turn, repeated shot), 422 rejected placement or
// target (overlap, adjacency, fleet limit, off the board, incomplete fleet).
package api
