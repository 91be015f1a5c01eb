package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MatchConfig represents a match preset
type MatchConfig struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Type        MatchType  `json:"type"`
	Difficulty  Difficulty `json:"difficulty,omitempty"`
	// AutoReady marks a side ready as soon as its fleet is complete
	AutoReady bool `json:"auto_ready"`
	Messages  struct {
		Welcome   string `json:"welcome"`
		Victory   string `json:"victory"`   // %s is the winning side
		Surrender string `json:"surrender"` // %s is the side that gave up
	} `json:"messages"`
}

// DefaultMatchConfig returns the classic single-player preset
func DefaultMatchConfig() *MatchConfig {
	cfg := &MatchConfig{
		Name:        "Classic",
		Description: "Classic 10x10 sea battle against the computer",
		Type:        SinglePlayer,
		Difficulty:  Medium,
		AutoReady:   false,
	}
	cfg.Messages.Welcome = "Place your fleet: one 4-cell ship, two 3-cell, three 2-cell and four 1-cell ships."
	cfg.Messages.Victory = "Victory for %s! The enemy fleet is destroyed."
	cfg.Messages.Surrender = "%s surrendered."
	return cfg
}

// ValidateMatchConfig checks a preset for correctness
func ValidateMatchConfig(config *MatchConfig) error {
	if config == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if config.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}

	switch config.Type {
	case SinglePlayer:
		switch config.Difficulty {
		case Easy, Medium, Hard:
		default:
			return fmt.Errorf("%w: difficulty must be easy, medium or hard, got %q", ErrInvalidConfig, config.Difficulty)
		}
	case TwoPlayer:
		if config.Difficulty != "" {
			return fmt.Errorf("%w: difficulty only applies to single_player matches", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: type must be single_player or two_player, got %q", ErrInvalidConfig, config.Type)
	}

	if config.Messages.Victory != "" && !strings.Contains(config.Messages.Victory, "%s") {
		return fmt.Errorf("%w: messages.victory must contain %%s for the winner", ErrInvalidConfig)
	}
	if config.Messages.Surrender != "" && !strings.Contains(config.Messages.Surrender, "%s") {
		return fmt.Errorf("%w: messages.surrender must contain %%s for the side", ErrInvalidConfig)
	}

	return nil
}

// LoadMatchConfig loads a preset from a JSON file
func LoadMatchConfig(filename string) (*MatchConfig, error) {
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config MatchConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := ValidateMatchConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
