// Command validate checks the match preset JSON files in a directory
// (../configs by default). For each file it checks:
//   - JSON structure, rejecting unknown fields
//   - Required fields, match type and difficulty
//   - Required message keys and their %s placeholders
//   - Playability: both fleets can be placed and the match starts
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/seabattle/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single preset file
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config engine.MatchConfig
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := engine.ValidateMatchConfig(&config); err != nil {
		result.fail("%v", err)
	}

	required := map[string]string{
		"welcome":   config.Messages.Welcome,
		"victory":   config.Messages.Victory,
		"surrender": config.Messages.Surrender,
	}
	for _, key := range []string{"welcome", "victory", "surrender"} {
		if strings.TrimSpace(required[key]) == "" {
			result.fail("Missing required message: %s", key)
		}
	}
	for _, key := range []string{"victory", "surrender"} {
		if n := strings.Count(required[key], "%"); n > 1 {
			result.fail("Message %s has %d format verbs, expected one %%s", key, n)
		}
	}

	if result.Valid {
		dryRun := validatePlayability(&config)
		if !dryRun.Valid {
			result.Valid = false
		}
		result.Errors = append(result.Errors, dryRun.Errors...)
	}

	if result.Valid {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", config.Name))
		mode := string(config.Type)
		if config.Difficulty != "" {
			mode += ", " + string(config.Difficulty)
		}
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Type: %s", mode))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Auto ready: %t", config.AutoReady))
	}

	return result
}

// validatePlayability places a random fleet for both sides and checks that
// the match starts once both are ready
func validatePlayability(config *engine.MatchConfig) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	match, err := engine.NewMatch(config)
	if err != nil {
		result.fail("Cannot create match: %v", err)
		return result
	}

	rng := engine.NewRand(1)
	for _, side := range engine.Sides {
		if _, err := engine.PlaceFleetRandomly(match, side, rng); err != nil {
			result.fail("Cannot place %s fleet: %v", side, err)
			return result
		}
		if config.AutoReady {
			if !match.Ready(side) {
				result.fail("%s not ready after placing a full fleet with auto_ready", side)
				return result
			}
			continue
		}
		if _, err := match.ConfirmReady(side); err != nil {
			result.fail("Cannot confirm %s: %v", side, err)
			return result
		}
	}

	if match.Status() != engine.StatusInProgress {
		result.fail("Match did not start, status %s", match.Status())
		return result
	}

	result.Errors = append(result.Errors, fmt.Sprintf("✓ Dry run: both fleets placed, %s fires first", match.Turn()))
	return result
}

// main validates every *.json file in the directory given as the first
// argument, exiting with non-zero status if any are invalid
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No presets found in %s\n", configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All presets are valid!")
	} else {
		fmt.Println("❌ Some presets have errors")
		os.Exit(1)
	}
}
