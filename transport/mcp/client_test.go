package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wricardo/seabattle/api"
	"github.com/wricardo/seabattle/game/config"
	"github.com/wricardo/seabattle/game/engine"
	"github.com/wricardo/seabattle/game/service"
	"github.com/wricardo/seabattle/game/session"
	"github.com/wricardo/seabattle/transport/websocket"
)

// newAPIServer starts the real REST API over an in-memory store
func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()

	configs, err := config.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("config manager: %v", err)
	}
	if err := configs.SaveConfig("classic", engine.DefaultMatchConfig()); err != nil {
		t.Fatalf("save classic: %v", err)
	}
	if err := configs.SaveConfig("duel", &engine.MatchConfig{Name: "Duel", Type: engine.TwoPlayer}); err != nil {
		t.Fatalf("save duel: %v", err)
	}
	if err := configs.RefreshCache(); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	seeded := func() engine.Rand { return engine.NewRand(5) }
	sessions := session.NewManager(session.WithRandSource(seeded))
	hub := websocket.NewHub(nil)
	svc := service.NewGameService(sessions, configs,
		service.WithPublisher(hub),
		service.WithRandSource(seeded),
	)

	srv := httptest.NewServer(api.NewServer(svc, hub))
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), name string, args map[string]interface{}) (string, bool) {
	t.Helper()
	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}

	result, err := handler(context.Background(), request)
	if err != nil {
		t.Fatalf("%s failed: %v", name, err)
	}
	if result == nil || len(result.Content) == 0 {
		t.Fatalf("%s returned no content", name)
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("%s: expected text content in result", name)
	}
	return text.Text, result.IsError
}

func createMatch(t *testing.T, client *Client, configID string) string {
	t.Helper()
	text, isErr := call(t, client.handleCreateMatch, "create_match", map[string]interface{}{"config_id": configID})
	if isErr {
		t.Fatalf("create_match: %s", text)
	}
	first := strings.SplitN(text, "\n", 2)[0]
	return strings.TrimPrefix(first, "Created match: ")
}

// fleetArgs is a legal fleet as it arrives from an MCP client
func fleetArgs() []interface{} {
	ships := []struct {
		x, y, size float64
		horizontal bool
	}{
		{0, 0, 4, true}, {5, 0, 3, true}, {0, 2, 3, true},
		{4, 2, 2, true}, {7, 2, 2, true}, {0, 4, 2, true},
		{3, 4, 1, false}, {5, 4, 1, false}, {7, 4, 1, false}, {9, 4, 1, false},
	}
	out := make([]interface{}, 0, len(ships))
	for _, s := range ships {
		out = append(out, map[string]interface{}{
			"x": s.x, "y": s.y, "size": s.size, "horizontal": s.horizontal,
		})
	}
	return out
}

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8080"
	client := NewClient(baseURL + "/")

	if client == nil {
		t.Fatal("Expected client to be created")
	}

	if client.baseURL != baseURL {
		t.Errorf("Expected baseURL %s, got %s", baseURL, client.baseURL)
	}

	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}

	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/matches/ab12/state" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(engine.Snapshot{Status: engine.StatusInProgress, TurnNumber: 7})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var state engine.Snapshot
	if err := client.apiCall("GET", "/api/matches/ab12/state", nil, &state); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if state.TurnNumber != 7 || state.Status != engine.StatusInProgress {
		t.Errorf("unexpected state %+v", state)
	}
}

func TestClient_apiCall_Error(t *testing.T) {
	client := NewClient("http://invalid-url-that-does-not-exist:9999")

	err := client.apiCall("GET", "/api", nil, nil)
	if err == nil {
		t.Error("Expected error for invalid URL")
	}
}

func TestClient_apiCall_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
	}))
	defer server.Close()

	client := NewClient(server.URL)

	err := client.apiCall("GET", "/api", nil, nil)
	if err == nil {
		t.Fatal("Expected error for HTTP 500 response")
	}

	if !strings.Contains(err.Error(), "API error") {
		t.Errorf("Expected 'API error' in error message, got: %v", err)
	}
}

func TestClient_apiCall_ErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]interface{}{"error": "not your turn", "code": 409})
	}))
	defer server.Close()

	err := NewClient(server.URL).apiCall("POST", "/api/matches/ab12/fire", map[string]int{"x": 1}, nil)
	if err == nil || err.Error() != "not your turn" {
		t.Errorf("Expected the API error message, got: %v", err)
	}
}

func TestClient_createMatch(t *testing.T) {
	client := NewClient(newAPIServer(t).URL)

	text, isErr := call(t, client.handleCreateMatch, "create_match", map[string]interface{}{"config_id": "classic"})
	if isErr {
		t.Fatalf("create_match failed: %s", text)
	}

	for _, want := range []string{"Created match: ", "Config: classic", "Place your fleet", "Status: placing_ships", "Board player1 (yours)"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got: %s", want, text)
		}
	}

	text, isErr = call(t, client.handleCreateMatch, "create_match", map[string]interface{}{"config_id": "missing"})
	if !isErr {
		t.Errorf("Expected an error for an unknown preset, got: %s", text)
	}
}

func TestClient_singlePlayerFlow(t *testing.T) {
	client := NewClient(newAPIServer(t).URL)
	matchID := createMatch(t, client, "classic")

	text, isErr := call(t, client.handleAutoPlace, "auto_place", map[string]interface{}{"match_id": matchID})
	if isErr {
		t.Fatalf("auto_place failed: %s", text)
	}

	text, isErr = call(t, client.handleReady, "ready", map[string]interface{}{"match_id": matchID})
	if isErr {
		t.Fatalf("ready failed: %s", text)
	}
	if !strings.Contains(text, "Status: in_progress") {
		t.Errorf("Expected the match to start, got: %s", text)
	}

	text, isErr = call(t, client.handleFire, "fire", map[string]interface{}{"match_id": matchID, "x": float64(4), "y": float64(4)})
	if isErr {
		t.Fatalf("fire failed: %s", text)
	}
	if !strings.Contains(text, "player1 fired at (4,4)") {
		t.Errorf("Expected the shot in result, got: %s", text)
	}
	if !strings.Contains(text, "player2 fired at") {
		t.Errorf("Expected the computer's reply in result, got: %s", text)
	}

	text, isErr = call(t, client.handleAutoPlace, "auto_place", map[string]interface{}{"match_id": matchID, "side": "player2"})
	if !isErr {
		t.Errorf("Expected the computer side to be refused, got: %s", text)
	}
}

func TestClient_twoPlayerFlow(t *testing.T) {
	client := NewClient(newAPIServer(t).URL)
	matchID := createMatch(t, client, "duel")

	text, isErr := call(t, client.handlePlaceShip, "place_ship", map[string]interface{}{
		"match_id": matchID,
		"ships":    fleetArgs(),
	})
	if isErr {
		t.Fatalf("place_ship failed: %s", text)
	}

	text, isErr = call(t, client.handleAutoPlace, "auto_place", map[string]interface{}{"match_id": matchID, "side": "player2"})
	if isErr {
		t.Fatalf("auto_place failed: %s", text)
	}

	for _, side := range []string{"player1", "player2"} {
		text, isErr = call(t, client.handleReady, "ready", map[string]interface{}{"match_id": matchID, "side": side})
		if isErr {
			t.Fatalf("ready %s failed: %s", side, text)
		}
	}

	text, isErr = call(t, client.handleFire, "fire", map[string]interface{}{"match_id": matchID, "x": float64(0), "y": float64(0)})
	if isErr {
		t.Fatalf("fire failed: %s", text)
	}
	if !strings.Contains(text, "player1 fired at (0,0)") {
		t.Errorf("Expected the shot in result, got: %s", text)
	}

	text, isErr = call(t, client.handleFire, "fire", map[string]interface{}{"match_id": matchID, "x": float64(1), "y": float64(1)})
	if !isErr {
		t.Errorf("Expected player1 to wait for player2, got: %s", text)
	}

	text, isErr = call(t, client.handleMatchState, "match_state", map[string]interface{}{"match_id": matchID, "side": "player2"})
	if isErr {
		t.Fatalf("match_state failed: %s", text)
	}
	if !strings.Contains(text, "Turn 2: player2 to fire") || !strings.Contains(text, "Board player2 (yours)") {
		t.Errorf("Unexpected state: %s", text)
	}

	text, isErr = call(t, client.handleShotHistory, "shot_history", map[string]interface{}{"match_id": matchID, "order": "asc"})
	if isErr {
		t.Fatalf("shot_history failed: %s", text)
	}
	if !strings.Contains(text, "Total: 1") || !strings.Contains(text, "1. player1 fired at (0,0)") {
		t.Errorf("Unexpected history: %s", text)
	}

	text, isErr = call(t, client.handleSurrender, "surrender", map[string]interface{}{"match_id": matchID, "side": "player2"})
	if isErr {
		t.Fatalf("surrender failed: %s", text)
	}
	if !strings.Contains(text, "Winner: player1") {
		t.Errorf("Expected player1 to win, got: %s", text)
	}

	text, _ = call(t, client.handleListMatches, "list_matches", map[string]interface{}{"status": "finished"})
	if !strings.Contains(text, matchID) {
		t.Errorf("Expected %s among finished matches, got: %s", matchID, text)
	}
}

func TestClient_argumentValidation(t *testing.T) {
	client := NewClient(newAPIServer(t).URL)
	matchID := createMatch(t, client, "duel")

	tests := []struct {
		name    string
		handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args    map[string]interface{}
		want    string
	}{
		{"state without match", client.handleMatchState, map[string]interface{}{}, "match_id is required"},
		{"fire without target", client.handleFire, map[string]interface{}{"match_id": matchID}, "x and y are required"},
		{"ship without size", client.handlePlaceShip, map[string]interface{}{"match_id": matchID, "x": float64(1), "y": float64(1)}, "x, y and size are required"},
		{"bad ship in list", client.handlePlaceShip, map[string]interface{}{"match_id": matchID, "ships": []interface{}{"a4"}}, "ship 1: expected an object"},
		{"unknown match", client.handleMatchState, map[string]interface{}{"match_id": "zzzz"}, "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, isErr := call(t, tt.handler, tt.name, tt.args)
			if !isErr {
				t.Fatalf("Expected an error result, got: %s", text)
			}
			if !strings.Contains(text, tt.want) {
				t.Errorf("Expected %q, got: %s", tt.want, text)
			}
		})
	}
}

func TestClient_listConfigs(t *testing.T) {
	client := NewClient(newAPIServer(t).URL)

	text, isErr := call(t, client.handleListConfigs, "list_configs", map[string]interface{}{})
	if isErr {
		t.Fatalf("list_configs failed: %s", text)
	}
	if !strings.Contains(text, "- classic: Classic (single_player, medium)") {
		t.Errorf("Expected classic preset, got: %s", text)
	}
	if !strings.Contains(text, "- duel: Duel (two_player)") {
		t.Errorf("Expected duel preset, got: %s", text)
	}
}

func TestFormatSnapshot(t *testing.T) {
	match, err := engine.NewMatch(&engine.MatchConfig{Name: "Duel", Type: engine.TwoPlayer})
	if err != nil {
		t.Fatalf("NewMatch: %v", err)
	}
	if _, err := match.PlaceShip(engine.SidePlayer1, engine.Ship{X: 0, Y: 0, Size: 2, Horizontal: true}); err != nil {
		t.Fatalf("PlaceShip: %v", err)
	}

	snap := match.Snapshot(engine.SidePlayer1)
	result := formatSnapshot(&snap)

	for _, want := range []string{
		"Match: two_player",
		"Status: placing_ships",
		"Board player1 (yours)",
		"Board player2 (enemy)",
		"   0123456789",
		" 0 ##........",
	} {
		if !strings.Contains(result, want) {
			t.Errorf("Expected %q in result, got:\n%s", want, result)
		}
	}

	if formatSnapshot(nil) != "State: unavailable" {
		t.Error("Expected placeholder for a missing state")
	}
}

func TestFormatHistory_Empty(t *testing.T) {
	result := formatHistory(&service.HistoryResponse{Page: 1, TotalPages: 0})
	if !strings.Contains(result, "(no shots fired)") {
		t.Errorf("Expected empty marker, got: %s", result)
	}
}

func TestFormatFireResult_GameOver(t *testing.T) {
	result := formatFireResult(&service.FireResult{
		Shot:     engine.ShotResult{X: 2, Y: 3, Outcome: engine.OutcomeSunk, ShipSize: 1},
		State:    engine.Snapshot{Viewer: engine.SidePlayer1, Status: engine.StatusFinished, Winner: engine.SidePlayer1},
		GameOver: true,
		Winner:   engine.SidePlayer1,
	})

	if !strings.Contains(result, "player1 fired at (2,3): sunk (size 1)") {
		t.Errorf("Expected the sinking shot, got: %s", result)
	}
	if !strings.Contains(result, "GAME OVER - winner: player1") {
		t.Errorf("Expected game over line, got: %s", result)
	}
}

func TestClient_handleGameInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")

	text, isErr := call(t, client.handleGameInstructions, "game_instructions", map[string]interface{}{})
	if isErr {
		t.Fatal("game_instructions should not fail")
	}

	expectedContent := []string{
		"Sea Battle - Complete Instructions",
		"GAME OBJECTIVE:",
		"THE FLEET (10 ships):",
		"PLACEMENT RULES:",
		"BOARD LEGEND:",
		"TURNS:",
		"STRATEGY:",
		"VICTORY CONDITIONS:",
	}

	for _, content := range expectedContent {
		if !strings.Contains(text, content) {
			t.Errorf("Expected '%s' in instructions", content)
		}
	}
}
