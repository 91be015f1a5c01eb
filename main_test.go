package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/seabattle/game/config"
	"github.com/wricardo/seabattle/game/engine"
	"github.com/wricardo/seabattle/game/session"
)

func TestConstants(t *testing.T) {
	assert.Equal(t, "1.0.0", Version)
	assert.Equal(t, "Sea Battle Server", AppName)
}

// settingsFor runs the command with args and returns the resolved settings
func settingsFor(t *testing.T, args ...string) (*config.ServerConfig, error) {
	t.Helper()
	var settings *config.ServerConfig
	cmd := newCommand()
	cmd.Commands = nil
	cmd.Action = func(ctx context.Context, c *cli.Command) error {
		var err error
		settings, err = loadSettings(c)
		return err
	}
	err := cmd.Run(context.Background(), append([]string{"seabattle"}, args...))
	return settings, err
}

func TestLoadSettings_Defaults(t *testing.T) {
	settings, err := settingsFor(t, "--config", filepath.Join(t.TempDir(), "missing.hcl"))
	require.NoError(t, err)

	assert.Equal(t, 8080, settings.Server.Port)
	assert.Equal(t, "info", settings.Server.LogLevel)
	assert.Equal(t, config.BackendFile, settings.Storage.Backend)
	assert.Equal(t, 24*time.Hour, settings.MaxAge())
}

func TestLoadSettings_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seabattle.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
server {
  host      = "0.0.0.0"
  port      = 9000
  log_level = "debug"
}

storage {
  backend      = "file"
  sessions_dir = "/var/lib/seabattle"
}

cleanup {
  max_age  = "2h"
  interval = "10m"
}
`), 0644))

	settings, err := settingsFor(t, "--config", path, "--port", "9191", "--sessions-dir", "data")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", settings.Server.Host, "file value kept")
	assert.Equal(t, 9191, settings.Server.Port, "flag wins")
	assert.Equal(t, "debug", settings.Server.LogLevel)
	assert.Equal(t, "data", settings.Storage.SessionsDir)
	assert.Equal(t, 2*time.Hour, settings.MaxAge())
	assert.Equal(t, 10*time.Minute, settings.CleanupInterval())
	assert.Equal(t, "http://localhost:9191", localURL(settings))
}

func TestLoadSettings_Environment(t *testing.T) {
	t.Setenv("SEABATTLE_STORE", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/2")

	settings, err := settingsFor(t, "--config", filepath.Join(t.TempDir(), "missing.hcl"))
	require.NoError(t, err)

	assert.Equal(t, config.BackendRedis, settings.Storage.Backend)
	assert.Equal(t, "redis://localhost:6379/2", settings.Storage.RedisURL)
}

func TestLoadSettings_Invalid(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.hcl")

	_, err := settingsFor(t, "--config", missing, "--store", "redis", "--redis-url", "")
	assert.Error(t, err, "redis requires a url")

	_, err = settingsFor(t, "--config", missing, "--store", "postgres")
	assert.Error(t, err)

	_, err = settingsFor(t, "--config", missing, "--port", "70000")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "warn")
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "match", "ab12")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "match=ab12")

	_, err = newLogger(io.Discard, "loud")
	assert.Error(t, err)
}

func testSettings(t *testing.T) *config.ServerConfig {
	t.Helper()
	settings := config.DefaultServerConfig()
	settings.Storage.SessionsDir = filepath.Join(t.TempDir(), "sessions")
	return settings
}

func quietLogger(t *testing.T) *log.Logger {
	t.Helper()
	logger, err := newLogger(io.Discard, "error")
	require.NoError(t, err)
	return logger
}

func TestInitializeServices(t *testing.T) {
	if _, err := os.Stat("configs"); os.IsNotExist(err) {
		t.Skip("Skipping test - configs directory not found")
	}

	a, err := initializeServices(context.Background(), testSettings(t), "configs", quietLogger(t))
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "Classic", a.configs.GetDefault().Name)
	assert.NotNil(t, a.service)
	assert.NotNil(t, a.hub)
}

func TestInitializeServices_InvalidConfigDir(t *testing.T) {
	_, err := initializeServices(context.Background(), testSettings(t), "/non/existent/path", quietLogger(t))
	assert.Error(t, err)
}

func TestInitializeServices_RedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	settings := testSettings(t)
	settings.Storage.Backend = config.BackendRedis
	settings.Storage.RedisURL = "redis://" + mr.Addr()

	a, err := initializeServices(context.Background(), settings, t.TempDir(), quietLogger(t))
	require.NoError(t, err)

	info, err := a.service.CreateMatch(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, mr.Exists("seabattle:session:"+strings.ToLower(info.ID)))

	a.Close()
}

func TestInitializeServices_RedisUnavailable(t *testing.T) {
	settings := testSettings(t)
	settings.Storage.Backend = config.BackendRedis
	settings.Storage.RedisURL = "redis://127.0.0.1:1"

	_, err := initializeServices(context.Background(), settings, t.TempDir(), quietLogger(t))
	assert.Error(t, err)
}

func TestHandler(t *testing.T) {
	a, err := initializeServices(context.Background(), testSettings(t), t.TempDir(), quietLogger(t))
	require.NoError(t, err)
	defer a.Close()

	srv := httptest.NewServer(a.handler("http://127.0.0.1:1"))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, apiAvailable(srv.URL))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "go_goroutines")

	resp, err = http.Get(srv.URL + "/mcp")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/mcp", "application/json",
		strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"result"`)
}

func TestApiAvailable_NoServer(t *testing.T) {
	assert.False(t, apiAvailable("http://127.0.0.1:1"))
}

func TestCleanupRoutine(t *testing.T) {
	mock := quartz.NewMock(t)
	manager := session.NewManager(session.WithClock(mock))
	_, err := manager.Create("", "duel", &engine.MatchConfig{Name: "Duel", Type: engine.TwoPlayer})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cleanupRoutine(ctx, mock, manager, 30*time.Minute, time.Hour)
		close(done)
	}()

	require.Eventually(t, func() bool {
		mock.Advance(time.Hour)
		return manager.Count() == 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup routine did not stop")
	}
}

func TestCleanupRoutine_Disabled(t *testing.T) {
	done := make(chan struct{})
	go func() {
		cleanupRoutine(context.Background(), quartz.NewMock(t), session.NewManager(), 0, time.Hour)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup routine should return when disabled")
	}
}
