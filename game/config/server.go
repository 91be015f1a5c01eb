package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Storage backends
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// ServerConfig represents the settings file
type ServerConfig struct {
	Server  ServerSettings  `hcl:"server,block"`
	Storage StorageSettings `hcl:"storage,block"`
	Cleanup CleanupSettings `hcl:"cleanup,block"`
}

// ServerSettings contains listener and logging settings
type ServerSettings struct {
	Host     string `hcl:"host,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// StorageSettings selects where match sessions are persisted
type StorageSettings struct {
	Backend     string `hcl:"backend,optional"`
	SessionsDir string `hcl:"sessions_dir,optional"`
	RedisURL    string `hcl:"redis_url,optional"`
	TTL         string `hcl:"ttl,optional"`
}

// CleanupSettings controls expiry of idle matches
type CleanupSettings struct {
	MaxAge   string `hcl:"max_age,optional"`
	Interval string `hcl:"interval,optional"`
}

// DefaultServerConfig returns default server settings
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Server: ServerSettings{
			Host:     "",
			Port:     8080,
			LogLevel: "info",
		},
		Storage: StorageSettings{
			Backend:     BackendFile,
			SessionsDir: "sessions",
		},
		Cleanup: CleanupSettings{
			MaxAge:   "24h",
			Interval: "1h",
		},
	}
}

// LoadServerConfig loads settings from an HCL file. A missing file yields the defaults.
func LoadServerConfig(filename string) (*ServerConfig, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var raw struct {
		Server  *ServerSettings  `hcl:"server,block"`
		Storage *StorageSettings `hcl:"storage,block"`
		Cleanup *CleanupSettings `hcl:"cleanup,block"`
	}
	diags = gohcl.DecodeBody(file.Body, nil, &raw)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config := DefaultServerConfig()
	if raw.Server != nil {
		config.Server = *raw.Server
	}
	if raw.Storage != nil {
		config.Storage = *raw.Storage
	}
	if raw.Cleanup != nil {
		config.Cleanup = *raw.Cleanup
	}

	// Apply defaults for missing values
	defaults := DefaultServerConfig()
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Server.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Storage.Backend == "" {
		config.Storage.Backend = defaults.Storage.Backend
	}
	if config.Storage.SessionsDir == "" {
		config.Storage.SessionsDir = defaults.Storage.SessionsDir
	}
	if config.Cleanup.MaxAge == "" {
		config.Cleanup.MaxAge = defaults.Cleanup.MaxAge
	}
	if config.Cleanup.Interval == "" {
		config.Cleanup.Interval = defaults.Cleanup.Interval
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate validates the settings
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	switch c.Storage.Backend {
	case BackendFile:
	case BackendRedis:
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("storage backend redis requires redis_url")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	for name, value := range map[string]string{
		"storage.ttl":      c.Storage.TTL,
		"cleanup.max_age":  c.Cleanup.MaxAge,
		"cleanup.interval": c.Cleanup.Interval,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}

// StorageTTL returns the expiry applied to persisted sessions, zero for none
func (c *ServerConfig) StorageTTL() time.Duration {
	return parseDuration(c.Storage.TTL)
}

// MaxAge returns how long an idle match is kept
func (c *ServerConfig) MaxAge() time.Duration {
	return parseDuration(c.Cleanup.MaxAge)
}

// CleanupInterval returns how often idle matches are swept
func (c *ServerConfig) CleanupInterval() time.Duration {
	return parseDuration(c.Cleanup.Interval)
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

// Address returns the listen address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
