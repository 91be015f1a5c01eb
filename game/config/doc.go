// Package config provides configuration management for Sea Battle.
//
// The config package handles two kinds of configuration:
//   - Match presets: JSON files in the configs directory, loaded, validated
//     and cached by Manager
//   - Server settings: an optional HCL file read by LoadServerConfig
//
// Preset Format:
//
// Each preset names the match type (single_player or two_player), the
// computer difficulty for single-player matches, whether a side becomes
// ready as soon as its fleet is complete, and optional message templates.
//
//	{
//	  "name": "Classic",
//	  "type": "single_player",
//	  "difficulty": "medium",
//	  "auto_ready": false,
//	  "messages": {"victory": "Victory for %s!"}
//	}
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	preset, err := manager.LoadConfig("vs-computer")
//	defaultPreset := manager.GetDefault()
//	presets, err := manager.ListConfigs()
//
// Server settings:
//
//	server {
//	  host      = "0.0.0.0"
//	  port      = 8080
//	  log_level = "debug"
//	}
//
//	storage {
//	  backend   = "redis"
//	  redis_url = "redis://localhost:6379/0"
//	  ttl       = "24h"
//	}
//
//	cleanup {
//	  max_age  = "24h"
//	  interval = "1h"
//	}
package config
