package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/seabattle/game/engine"
	"github.com/wricardo/seabattle/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Sea Battle",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Sea Battle - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Sink every ship of the opposing fleet before yours is sunk.

AVAILABLE TOOLS:
- create_match: Start a match from a preset
- list_matches: List active matches
- match_state: Show both boards from one side's point of view
- place_ship: Place one or more ships
- auto_place: Place the rest of the fleet at random
- ready: Confirm the fleet and wait for the opponent
- fire: Fire at a cell of the opposing board
- surrender: Give up the match
- shot_history: View past shots
- list_configs: List available presets
- game_instructions: Full rules

Call game_instructions before your first match.`),
	)

	c.registerTools()
}

func sideProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        []string{"player1", "player2"},
		"description": "Acting side. Defaults to player1, the human side in single-player matches.",
	}
}

func matchIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Match ID returned by create_match",
	}
}

func shipProperties() map[string]interface{} {
	return map[string]interface{}{
		"x": map[string]interface{}{
			"type":        "integer",
			"description": "Column of the bow, 0-9",
		},
		"y": map[string]interface{}{
			"type":        "integer",
			"description": "Row of the bow, 0-9",
		},
		"size": map[string]interface{}{
			"type":        "integer",
			"description": "Ship length, 1-4",
		},
		"horizontal": map[string]interface{}{
			"type":        "boolean",
			"description": "true extends the ship to the right, false extends it down",
		},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_match",
		Description: "Create a new match from a preset",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Preset to use (see list_configs). Uses the server default when omitted.",
				},
			},
		},
	}, c.handleCreateMatch)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_matches",
		Description: "List active matches",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"status": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"placing_ships", "in_progress", "finished"},
					"description": "Only list matches in this status",
				},
			},
		},
	}, c.handleListMatches)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "match_state",
		Description: "Show the match from one side's point of view. Your own ships are visible, enemy ships only once sunk.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"match_id": matchIDProperty(),
				"side":     sideProperty(),
			},
			Required: []string{"match_id"},
		},
	}, c.handleMatchState)

	placeProps := shipProperties()
	placeProps["match_id"] = matchIDProperty()
	placeProps["side"] = sideProperty()
	placeProps["ships"] = map[string]interface{}{
		"type":        "array",
		"description": "Several ships at once. Overrides x, y, size and horizontal.",
		"items": map[string]interface{}{
			"type":       "object",
			"properties": shipProperties(),
			"required":   []string{"x", "y", "size"},
		},
	}
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "place_ship",
		Description: "Place one ship, or a list of ships, on your board. Ships may not overlap or touch, even diagonally.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: placeProps,
			Required:   []string{"match_id"},
		},
	}, c.handlePlaceShip)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "auto_place",
		Description: "Place the rest of your fleet at random",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"match_id": matchIDProperty(),
				"side":     sideProperty(),
			},
			Required: []string{"match_id"},
		},
	}, c.handleAutoPlace)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "ready",
		Description: "Confirm your fleet. The match starts once both sides are ready.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"match_id": matchIDProperty(),
				"side":     sideProperty(),
			},
			Required: []string{"match_id"},
		},
	}, c.handleReady)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "fire",
		Description: "Fire at a cell of the opposing board. Against the computer its reply is included.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"match_id": matchIDProperty(),
				"side":     sideProperty(),
				"x": map[string]interface{}{
					"type":        "integer",
					"description": "Target column, 0-9",
				},
				"y": map[string]interface{}{
					"type":        "integer",
					"description": "Target row, 0-9",
				},
			},
			Required: []string{"match_id", "x", "y"},
		},
	}, c.handleFire)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "surrender",
		Description: "Give up the match",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"match_id": matchIDProperty(),
				"side":     sideProperty(),
			},
			Required: []string{"match_id"},
		},
	}, c.handleSurrender)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "shot_history",
		Description: "View shots fired so far with pagination",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"match_id": matchIDProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Shots per page (default 20, max 100)",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "desc shows the latest shots first (default)",
				},
			},
			Required: []string{"match_id"},
		},
	}, c.handleShotHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available match presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Full rules and a suggested strategy",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

// intArg reads an integer argument; JSON numbers arrive as float64
func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

func sideArg(args map[string]interface{}) string {
	if side := stringArg(args, "side"); side != "" {
		return side
	}
	return string(engine.SidePlayer1)
}

func shipArg(args map[string]interface{}) (service.ShipRequest, error) {
	x, okX := intArg(args, "x")
	y, okY := intArg(args, "y")
	size, okSize := intArg(args, "size")
	if !okX || !okY || !okSize {
		return service.ShipRequest{}, fmt.Errorf("x, y and size are required")
	}
	horizontal, _ := args["horizontal"].(bool)
	return service.ShipRequest{X: x, Y: y, Size: size, Horizontal: horizontal}, nil
}

func matchPath(matchID, suffix string) string {
	return "/api/matches/" + url.PathEscape(matchID) + suffix
}

// Tool handlers

func (c *Client) handleCreateMatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	body := map[string]string{}
	if configID := stringArg(args, "config_id"); configID != "" {
		body["config_id"] = configID
	}

	var info service.MatchInfo
	if err := c.apiCall("POST", "/api/matches", body, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created match: %s\nConfig: %s\n\n", info.ID, info.ConfigName)
	if info.MatchConfig != nil && info.MatchConfig.Messages.Welcome != "" {
		result += info.MatchConfig.Messages.Welcome + "\n\n"
	}
	result += formatSnapshot(&info.State)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListMatches(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	path := "/api/matches"
	if status := stringArg(args, "status"); status != "" {
		path += "?status=" + url.QueryEscape(status)
	}

	var response struct {
		Matches []*service.MatchInfo `json:"matches"`
		Count   int                  `json:"count"`
		Total   int                  `json:"total"`
	}
	if err := c.apiCall("GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(response.Matches) == 0 {
		return mcp.NewToolResultText("No active matches"), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active matches (%d of %d):\n", response.Count, response.Total)
	for _, m := range response.Matches {
		fmt.Fprintf(&b, "- %s [%s] %s, %s, turn %d\n",
			m.ID, m.ConfigName, m.State.Type, m.State.Status, m.State.TurnNumber)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleMatchState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	matchID := stringArg(args, "match_id")
	if matchID == "" {
		return mcp.NewToolResultError("match_id is required"), nil
	}

	var state engine.Snapshot
	path := matchPath(matchID, "/state") + "?viewer=" + url.QueryEscape(sideArg(args))
	if err := c.apiCall("GET", path, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSnapshot(&state)), nil
}

func (c *Client) handlePlaceShip(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	matchID := stringArg(args, "match_id")
	if matchID == "" {
		return mcp.NewToolResultError("match_id is required"), nil
	}

	var ships []service.ShipRequest
	if raw, ok := args["ships"].([]interface{}); ok && len(raw) > 0 {
		for i, item := range raw {
			shipArgs, ok := item.(map[string]interface{})
			if !ok {
				return mcp.NewToolResultError(fmt.Sprintf("ship %d: expected an object", i+1)), nil
			}
			ship, err := shipArg(shipArgs)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("ship %d: %v", i+1, err)), nil
			}
			ships = append(ships, ship)
		}
	} else {
		ship, err := shipArg(args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		ships = []service.ShipRequest{ship}
	}

	body := map[string]interface{}{
		"side":  sideArg(args),
		"ships": ships,
	}

	var result service.ActionResult
	if err := c.apiCall("POST", matchPath(matchID, "/ships"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) sideCommand(request mcp.CallToolRequest, suffix string) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	matchID := stringArg(args, "match_id")
	if matchID == "" {
		return mcp.NewToolResultError("match_id is required"), nil
	}

	var result service.ActionResult
	body := map[string]string{"side": sideArg(args)}
	if err := c.apiCall("POST", matchPath(matchID, suffix), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleAutoPlace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.sideCommand(request, "/ships/auto")
}

func (c *Client) handleReady(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.sideCommand(request, "/ready")
}

func (c *Client) handleSurrender(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.sideCommand(request, "/surrender")
}

func (c *Client) handleFire(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	matchID := stringArg(args, "match_id")
	if matchID == "" {
		return mcp.NewToolResultError("match_id is required"), nil
	}
	x, okX := intArg(args, "x")
	y, okY := intArg(args, "y")
	if !okX || !okY {
		return mcp.NewToolResultError("x and y are required"), nil
	}

	body := map[string]interface{}{
		"side": sideArg(args),
		"x":    x,
		"y":    y,
	}

	var result service.FireResult
	if err := c.apiCall("POST", matchPath(matchID, "/fire"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatFireResult(&result)), nil
}

func (c *Client) handleShotHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	matchID := stringArg(args, "match_id")
	if matchID == "" {
		return mcp.NewToolResultError("match_id is required"), nil
	}

	query := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		query.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		query.Set("limit", fmt.Sprint(limit))
	}
	if order := stringArg(args, "order"); order != "" {
		query.Set("order", order)
	}

	path := matchPath(matchID, "/history")
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall("GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []*service.ConfigInfo
	if err := c.apiCall("GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(configs) == 0 {
		return mcp.NewToolResultText("No presets available"), nil
	}

	var b strings.Builder
	b.WriteString("Available presets:\n")
	for _, cfg := range configs {
		mode := string(cfg.Type)
		if cfg.Difficulty != "" {
			mode += ", " + string(cfg.Difficulty)
		}
		fmt.Fprintf(&b, "- %s: %s (%s)", cfg.ConfigID, cfg.Name, mode)
		if cfg.Description != "" {
			fmt.Fprintf(&b, " - %s", cfg.Description)
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(gameInstructions), nil
}

const gameInstructions = `Sea Battle - Complete Instructions

GAME OBJECTIVE:
Each side hides a fleet on a 10x10 board. Take turns firing at the opposing
board. The first side to sink every enemy ship wins.

THE FLEET (10 ships):
- 1 ship of size 4
- 2 ships of size 3
- 3 ships of size 2
- 4 ships of size 1

PLACEMENT RULES:
- A ship is given by its bow (x, y), its size and its direction.
  horizontal=true extends it to the right, false extends it down.
- Coordinates run 0-9, x is the column and y the row.
- Ships may not overlap and may not touch, not even at a corner.
- Use auto_place to fill the rest of your fleet at random.
- Call ready once all ten ships are on the board.

BOARD LEGEND:
- . = water, or unknown on the enemy board
- # = your ship
- X = hit
- o = miss

TURNS:
- The match starts when both sides are ready. player1 fires first.
- The turn passes after every shot, hit or miss.
- Firing at a cell twice is refused and does not use your turn.
- Against the computer its reply is returned with your shot.

STRATEGY:
- Hunt with a checkerboard pattern; every ship of size 2 or more covers
  a cell of both colours.
- After a hit, try the four neighbours until a second hit shows the
  direction, then follow that line.
- Cells around a sunk ship can never hold another ship. Skip them.

VICTORY CONDITIONS:
- Sink all ten enemy ships, or the opponent surrenders.

Good luck, admiral!`

// Formatting helpers

func formatBoard(b *strings.Builder, title string, view engine.BoardView) {
	fmt.Fprintf(b, "%s (ships afloat: %d)\n", title, view.ShipsAfloat)
	if view.Size == 0 {
		return
	}
	b.WriteString("   ")
	for x := 0; x < view.Size; x++ {
		fmt.Fprintf(b, "%d", x%10)
	}
	b.WriteString("\n")
	for y, row := range view.Rows() {
		fmt.Fprintf(b, "%2d %s\n", y, row)
	}
}

func formatSnapshot(state *engine.Snapshot) string {
	if state == nil {
		return "State: unavailable"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Match: %s", state.Type)
	if state.Difficulty != "" {
		fmt.Fprintf(&b, " (%s)", state.Difficulty)
	}
	fmt.Fprintf(&b, "\nStatus: %s\n", state.Status)

	switch state.Status {
	case engine.StatusInProgress:
		fmt.Fprintf(&b, "Turn %d: %s to fire\n", state.TurnNumber, state.Turn)
	case engine.StatusFinished:
		fmt.Fprintf(&b, "Winner: %s\n", state.Winner)
	default:
		sides := make([]string, 0, len(state.Ready))
		for side, ready := range state.Ready {
			if ready {
				sides = append(sides, string(side))
			}
		}
		sort.Strings(sides)
		if len(sides) > 0 {
			fmt.Fprintf(&b, "Ready: %s\n", strings.Join(sides, ", "))
		}
	}
	b.WriteString("\n")

	for _, side := range engine.Sides {
		view, ok := state.Boards[side]
		if !ok {
			continue
		}
		title := fmt.Sprintf("Board %s", side)
		switch {
		case side == state.Viewer:
			title += " (yours)"
		case state.Viewer != "":
			title += " (enemy)"
		}
		formatBoard(&b, title, view)
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func formatActionResult(result *service.ActionResult) string {
	var b strings.Builder
	if result.Message != "" {
		b.WriteString(result.Message + "\n")
	}
	if len(result.RemainingShips) > 0 {
		sizes := make([]string, len(result.RemainingShips))
		for i, size := range result.RemainingShips {
			sizes[i] = fmt.Sprint(size)
		}
		fmt.Fprintf(&b, "Still to place: %s\n", strings.Join(sizes, ", "))
	}
	b.WriteString("\n")
	b.WriteString(formatSnapshot(&result.State))
	return b.String()
}

func formatShot(side engine.Side, shot engine.ShotResult) string {
	line := fmt.Sprintf("%s fired at (%d,%d): %s", side, shot.X, shot.Y, shot.Outcome)
	if shot.Outcome == engine.OutcomeSunk {
		line += fmt.Sprintf(" (size %d)", shot.ShipSize)
	}
	return line
}

func formatFireResult(result *service.FireResult) string {
	var b strings.Builder
	shooter := result.State.Viewer
	if shooter == "" {
		shooter = engine.SidePlayer1
	}
	b.WriteString(formatShot(shooter, result.Shot) + "\n")
	for _, reply := range result.ComputerShots {
		b.WriteString(formatShot(shooter.Opponent(), reply) + "\n")
	}
	if result.Message != "" {
		b.WriteString(result.Message + "\n")
	}
	if result.GameOver {
		fmt.Fprintf(&b, "GAME OVER - winner: %s\n", result.Winner)
	}
	b.WriteString("\n")
	b.WriteString(formatSnapshot(&result.State))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Shot History (Page %d/%d) - Total: %d\n\n",
		history.Page, history.TotalPages, history.TotalShots)

	if len(history.Shots) == 0 {
		b.WriteString("(no shots fired)")
		return b.String()
	}

	for _, shot := range history.Shots {
		fmt.Fprintf(&b, "%d. %s\n", shot.TurnNumber, formatShot(shot.Side, engine.ShotResult{
			X:        shot.X,
			Y:        shot.Y,
			Outcome:  shot.Outcome,
			ShipSize: shot.ShipSize,
		}))
	}
	return b.String()
}
