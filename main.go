// Command seabattle starts the Sea Battle server.
//
// It supports two commands:
//  1. "server" (default) runs the HTTP server exposing the REST API, WebSocket
//     events, Prometheus metrics and an /mcp endpoint
//  2. "stdio-mcp" runs an MCP stdio server and starts an internal HTTP API if
//     none is reachable
//
// Settings come from an optional HCL file (seabattle.hcl). Flags and their
// environment variables override it, and a .env file is loaded when present.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/seabattle/api"
	"github.com/wricardo/seabattle/game/config"
	"github.com/wricardo/seabattle/game/service"
	"github.com/wricardo/seabattle/game/session"
	"github.com/wricardo/seabattle/transport/mcp"
	"github.com/wricardo/seabattle/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Sea Battle Server"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", err)
	}

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal("seabattle failed", "err", err)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "seabattle",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "seabattle.hcl",
				Usage:   "HCL settings file (optional)",
				Sources: cli.EnvVars("SEABATTLE_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "host",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("SEABATTLE_HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("SEABATTLE_PORT"),
			},
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "Directory containing match presets",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:    "sessions-dir",
				Value:   "sessions",
				Usage:   "Directory for the file session store",
				Sources: cli.EnvVars("SESSIONS_DIR"),
			},
			&cli.StringFlag{
				Name:    "store",
				Value:   config.BackendFile,
				Usage:   "Session store: file or redis",
				Sources: cli.EnvVars("SEABATTLE_STORE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the redis session store",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "debug, info, warn or error",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "Enable ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "Ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "Custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Action: runServer,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, metrics and MCP endpoint",
				Action:  runServer,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server, with an internal HTTP API if needed",
				Action:  runStdioMCP,
			},
		},
	}
}

// loadSettings reads the settings file and applies explicitly set flags on top
func loadSettings(cmd *cli.Command) (*config.ServerConfig, error) {
	settings, err := config.LoadServerConfig(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("host") {
		settings.Server.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		settings.Server.Port = cmd.Int("port")
	}
	if cmd.IsSet("log-level") {
		settings.Server.LogLevel = cmd.String("log-level")
	}
	if cmd.IsSet("store") {
		settings.Storage.Backend = cmd.String("store")
	}
	if cmd.IsSet("sessions-dir") {
		settings.Storage.SessionsDir = cmd.String("sessions-dir")
	}
	if cmd.IsSet("redis-url") {
		settings.Storage.RedisURL = cmd.String("redis-url")
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

func newLogger(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		Prefix:          "seabattle",
	}), nil
}

// app holds the wired services shared by both commands
type app struct {
	logger   *log.Logger
	registry *prometheus.Registry
	configs  *config.Manager
	sessions *session.Manager
	service  service.GameService
	hub      *websocket.Hub
	closers  []func() error
}

// initializeServices wires presets, the session store, the game service and
// the websocket hub. The hub still has to be started with Run.
func initializeServices(ctx context.Context, settings *config.ServerConfig, configDir string, logger *log.Logger) (*app, error) {
	configManager, err := config.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	a := &app{
		logger:   logger,
		configs:  configManager,
		registry: prometheus.NewRegistry(),
	}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var persistence session.SessionPersistence
	switch settings.Storage.Backend {
	case config.BackendRedis:
		store, err := session.NewRedisPersistenceFromURL(ctx, settings.Storage.RedisURL, settings.StorageTTL())
		if err != nil {
			return nil, fmt.Errorf("failed to connect session store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		persistence = store
	default:
		store, err := session.NewFilePersistence(settings.Storage.SessionsDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create session persistence: %w", err)
		}
		persistence = store
	}

	a.sessions = session.NewManagerWithPersistence(persistence, session.WithLogger(logger))
	if err := a.sessions.LoadPersistedSessions(); err != nil {
		logger.Warn("failed to load persisted sessions", "err", err)
	}

	a.hub = websocket.NewHub(logger)
	a.service = service.NewGameService(a.sessions, configManager,
		service.WithLogger(logger),
		service.WithMetrics(service.NewMetrics(a.registry)),
		service.WithPublisher(a.hub),
	)

	logger.Info("services ready",
		"store", settings.Storage.Backend,
		"matches", a.sessions.Count(),
		"default_preset", configManager.GetDefault().Name)
	return a, nil
}

// Close saves every match and releases the session store
func (a *app) Close() {
	if err := a.sessions.SaveAllSessions(); err != nil {
		a.logger.Warn("failed to save sessions on shutdown", "err", err)
	}
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.logger.Warn("failed to close resource", "err", err)
		}
	}
}

// handler mounts the API at the root and, when mcpBaseURL is set, an /mcp
// endpoint proxying to it
func (a *app) handler(mcpBaseURL string) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", api.NewServer(a.service, a.hub,
		api.WithLogger(a.logger),
		api.WithGatherer(a.registry),
	))

	if mcpBaseURL == "" {
		return mainRouter
	}

	mcpClient := mcp.NewClient(mcpBaseURL)
	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			a.logger.Error("failed to write MCP response", "err", err)
		}
	})
	return mainRouter
}

// localURL is the URL this process serves the API on
func localURL(settings *config.ServerConfig) string {
	host := settings.Server.Host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s", net.JoinHostPort(host, fmt.Sprint(settings.Server.Port)))
}

// cleanupRoutine removes matches idle for longer than maxAge every interval
func cleanupRoutine(ctx context.Context, clock quartz.Clock, manager *session.Manager, maxAge, interval time.Duration) {
	if maxAge <= 0 || interval <= 0 {
		return
	}

	ticker := clock.NewTicker(interval, "cleanup")
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			manager.CleanupExpiredSessions(maxAge)
		}
	}
}

// runServer starts the HTTP server and, if enabled, an ngrok tunnel. It
// returns after SIGINT/SIGTERM once connections are drained and matches saved.
func runServer(ctx context.Context, cmd *cli.Command) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stderr, settings.Server.LogLevel)
	if err != nil {
		return err
	}
	logger.Info("starting", "app", AppName, "version", Version)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := initializeServices(ctx, settings, cmd.String("config-dir"), logger)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := settings.Address()
	handler := a.handler(localURL(settings))
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		cleanupRoutine(gctx, quartz.NewReal(), a.sessions, settings.MaxAge(), settings.CleanupInterval())
		return nil
	})

	g.Go(func() error {
		base := localURL(settings)
		logger.Info("HTTP server listening", "addr", addr)
		logger.Info("endpoints", "api", base+"/api", "ws", base+"/ws?match=<id>", "mcp", base+"/mcp", "metrics", base+"/metrics")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	if cmd.Bool("ngrok") {
		g.Go(func() error {
			serveNgrok(gctx, cmd.String("ngrok-auth"), cmd.String("ngrok-domain"), handler, logger)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown: %w", err)
		}
		return nil
	})

	err = g.Wait()
	logger.Info("server stopped")
	return err
}

// serveNgrok serves handler through an ngrok tunnel until ctx is done.
// Tunnel failures are logged and leave the local server running.
func serveNgrok(ctx context.Context, authToken, domain string, handler http.Handler, logger *log.Logger) {
	if authToken == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN or NGROK_AUTH_TOKEN)")
		return
	}

	logger.Info("starting ngrok tunnel")

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		logger.Info("using custom ngrok domain", "domain", domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", "err", err)
		return
	}

	ngrokURL := tun.URL()
	logger.Info("ngrok tunnel established", "url", ngrokURL, "api", ngrokURL+"/api", "mcp", ngrokURL+"/mcp")

	tunnelServer := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		tunnelServer.Close()
	}()

	if err := tunnelServer.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("ngrok server error", "err", err)
	}
	logger.Info("ngrok tunnel closed")
}

// apiAvailable reports whether a Sea Battle API answers at baseURL
func apiAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCP runs an MCP stdio server. It reuses an API already listening on
// the configured address, otherwise it serves one on a random loopback port.
// Logs go to stderr because stdout carries the protocol.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stderr, settings.Server.LogLevel)
	if err != nil {
		return err
	}

	baseURL := localURL(settings)
	logger.Info("checking for external API server", "url", baseURL)

	if apiAvailable(baseURL) {
		logger.Info("external API server found, using it for MCP")
	} else {
		logger.Info("no external API server found, starting internal HTTP server")

		a, err := initializeServices(ctx, settings, cmd.String("config-dir"), logger)
		if err != nil {
			return err
		}
		defer a.Close()

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		hubCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go a.hub.Run(hubCtx)

		httpServer := &http.Server{Handler: a.handler("")}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("internal HTTP server error", "err", err)
			}
		}()
		defer httpServer.Close()

		baseURL = "http://" + listener.Addr().String()
		logger.Info("internal HTTP server started", "url", baseURL)
	}

	mcpClient := mcp.NewClient(baseURL)
	logger.Info("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
