// Package websocket provides WebSocket push notifications for Sea Battle.
//
// Clients subscribe to one match by connecting to /ws?match=<id>. Every event
// the game service publishes for that match is forwarded as a JSON message:
//
//	{"match_id": "ab12", "event": "shot_result", "data": {...}}
//
// Events carry no board contents; clients fetch their own view of the match
// from the REST API when they need it. The socket is receive-only: commands
// go through the REST API or MCP tools.
//
// The Hub owns all subscriptions. Registration, unregistration and broadcasts
// are serialized through its Run loop; each connection has a read pump that
// answers pongs and detects disconnects, and a write pump that sends queued
// messages and periodic pings.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//
//	svc := service.NewGameService(sessions, configs, service.WithPublisher(hub))
package websocket
