package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "preset.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func hasError(result ValidationResult, substr string) bool {
	for _, e := range result.Errors {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

func TestValidateConfig_ValidConfig(t *testing.T) {
	validConfig := `{
		"name": "Classic",
		"description": "Classic match against the computer",
		"type": "single_player",
		"difficulty": "hard",
		"auto_ready": false,
		"messages": {
			"welcome": "Place your fleet.",
			"victory": "Victory for %s!",
			"surrender": "%s surrendered."
		}
	}`

	result := validateConfig(writeConfig(t, validConfig))
	if !result.Valid {
		t.Fatalf("Expected valid config, but got errors: %v", result.Errors)
	}
	if result.File != "preset.json" {
		t.Errorf("Expected file name preset.json, got %s", result.File)
	}
	if !hasError(result, "✓ Type: single_player, hard") {
		t.Errorf("Expected type info, got: %v", result.Errors)
	}
	if !hasError(result, "✓ Dry run: both fleets placed, player1 fires first") {
		t.Errorf("Expected dry run info, got: %v", result.Errors)
	}
}

func TestValidateConfig_AutoReady(t *testing.T) {
	config := `{
		"name": "Quick duel",
		"type": "two_player",
		"auto_ready": true,
		"messages": {"welcome": "Go!", "victory": "%s wins", "surrender": "%s gave up"}
	}`

	result := validateConfig(writeConfig(t, config))
	if !result.Valid {
		t.Fatalf("Expected valid config, but got errors: %v", result.Errors)
	}
	if !hasError(result, "✓ Auto ready: true") {
		t.Errorf("Expected auto ready info, got: %v", result.Errors)
	}
}

func TestValidateConfig_InvalidJSON(t *testing.T) {
	result := validateConfig(writeConfig(t, `{"name": "Broken",`))
	if result.Valid {
		t.Fatal("Expected invalid result for malformed JSON")
	}
	if !hasError(result, "Invalid JSON") {
		t.Errorf("Expected 'Invalid JSON' error, got: %v", result.Errors)
	}
}

func TestValidateConfig_UnknownField(t *testing.T) {
	result := validateConfig(writeConfig(t, `{"name": "Typo", "type": "two_player", "dificulty": "hard"}`))
	if result.Valid {
		t.Fatal("Expected unknown field to be rejected")
	}
	if !hasError(result, "dificulty") {
		t.Errorf("Expected the unknown field to be named, got: %v", result.Errors)
	}
}

func TestValidateConfig_MissingFile(t *testing.T) {
	result := validateConfig(filepath.Join(t.TempDir(), "missing.json"))
	if result.Valid {
		t.Fatal("Expected invalid result for missing file")
	}
	if !hasError(result, "Failed to read file") {
		t.Errorf("Expected read error, got: %v", result.Errors)
	}
}

func TestValidateConfig_Rules(t *testing.T) {
	messages := `"messages": {"welcome": "Hi", "victory": "%s wins", "surrender": "%s gave up"}`

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "missing name",
			content: `{"type": "two_player", ` + messages + `}`,
			want:    "name is required",
		},
		{
			name:    "unknown type",
			content: `{"name": "X", "type": "three_player", ` + messages + `}`,
			want:    "type must be single_player or two_player",
		},
		{
			name:    "single player without difficulty",
			content: `{"name": "X", "type": "single_player", ` + messages + `}`,
			want:    "difficulty must be easy, medium or hard",
		},
		{
			name:    "two player with difficulty",
			content: `{"name": "X", "type": "two_player", "difficulty": "easy", ` + messages + `}`,
			want:    "difficulty only applies to single_player",
		},
		{
			name:    "missing messages",
			content: `{"name": "X", "type": "two_player"}`,
			want:    "Missing required message: welcome",
		},
		{
			name:    "victory without placeholder",
			content: `{"name": "X", "type": "two_player", "messages": {"welcome": "Hi", "victory": "You win", "surrender": "%s gave up"}}`,
			want:    "messages.victory must contain %s",
		},
		{
			name:    "too many verbs",
			content: `{"name": "X", "type": "two_player", "messages": {"welcome": "Hi", "victory": "%s beat %s", "surrender": "%s gave up"}}`,
			want:    "Message victory has 2 format verbs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validateConfig(writeConfig(t, tt.content))
			if result.Valid {
				t.Fatalf("Expected invalid config")
			}
			if !hasError(result, tt.want) {
				t.Errorf("Expected %q, got: %v", tt.want, result.Errors)
			}
		})
	}
}

func TestValidateConfig_ShippedPresets(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "configs", "*.json"))
	if err != nil {
		t.Fatalf("Failed to list presets: %v", err)
	}
	if len(files) == 0 {
		t.Skip("Skipping test - configs directory not found")
	}

	for _, file := range files {
		result := validateConfig(file)
		if !result.Valid {
			t.Errorf("%s: %v", result.File, result.Errors)
		}
	}
}

func TestValidatePlayability(t *testing.T) {
	result := validateConfig(writeConfig(t, `{
		"name": "Easy",
		"type": "single_player",
		"difficulty": "easy",
		"messages": {"welcome": "Hi", "victory": "%s wins", "surrender": "%s gave up"}
	}`))
	if !result.Valid {
		t.Fatalf("Expected valid config, got: %v", result.Errors)
	}

	for _, e := range result.Errors {
		if !strings.HasPrefix(e, "✓") {
			t.Errorf("Expected only informational lines, got %q", e)
		}
	}
}
