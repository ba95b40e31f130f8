package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/david-YJ-Kim/notesvc/internal/api"
	"github.com/david-YJ-Kim/notesvc/internal/api/handlers"
	"github.com/david-YJ-Kim/notesvc/internal/logger"
	"github.com/david-YJ-Kim/notesvc/internal/metrics"
	"github.com/david-YJ-Kim/notesvc/internal/telemetry"
	"github.com/david-YJ-Kim/notesvc/pkg/config"
	"github.com/spf13/cobra"
)

var (
	foreground bool
	pidFile    string
	logFile    string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the notesvc server",
	Long: `Start the notesvc server with the specified configuration.

By default, the server runs in the background (daemon mode). Use --foreground
to run in the foreground for debugging or when managed by a process supervisor.

On startup the server reconciles the metadata database and the search index
against the note repository, so out-of-band edits and interrupted saves are
repaired before the first request is served.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/notesvc/notesvc.yaml.

Examples:
  # Start in background (default)
  notesvc start

  # Start in foreground
  notesvc start --foreground

  # Start with custom config file
  notesvc start --config /etc/notesvc/notesvc.yaml

  # Start with environment variable overrides
  NOTESVC_LOGGING_LEVEL=DEBUG notesvc start --foreground`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVarP(&foreground, "foreground", "f", false, "Run in foreground (default: background/daemon mode)")
	startCmd.Flags().StringVar(&pidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/notesvc/notesvc.pid)")
	startCmd.Flags().StringVar(&logFile, "log-file", "", "Path to log file for daemon mode (default: $XDG_STATE_HOME/notesvc/notesvc.log)")
}

func runStart(cmd *cobra.Command, args []string) error {
	// Handle daemon mode (background)
	if !foreground {
		return startDaemon()
	}

	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	// Initialize the structured logger
	if err := InitLogger(cfg); err != nil {
		return err
	}

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry (if enabled)
	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "notesvc",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	// Initialize Pyroscope profiling (if enabled)
	profilingCfg := telemetry.ProfilingConfig{
		Enabled:        cfg.Profiling.Enabled,
		ServiceName:    "notesvc",
		ServiceVersion: Version,
		Endpoint:       cfg.Profiling.Endpoint,
		ProfileTypes:   cfg.Profiling.ProfileTypes,
	}
	profilingShutdown, err := telemetry.InitProfiling(profilingCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	fmt.Println("notesvc - Collaborative note service")
	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("Telemetry disabled")
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Profiling.Endpoint, "profile_types", cfg.Profiling.ProfileTypes)
	} else {
		logger.Info("Profiling disabled")
	}

	// The HTTP API is the only surface this server has; refusing to start
	// beats silently running a server nobody can reach.
	if !cfg.API.IsEnabled() {
		return fmt.Errorf("api.enabled is false: the server has nothing to serve")
	}

	// Initialize metrics FIRST (before creating stores that use metrics)
	// This ensures metrics.IsEnabled() returns true when the sinks are created
	if cfg.Metrics.IsEnabled() {
		metrics.InitRegistry()
		logger.Info("Metrics enabled", "endpoint", "/metrics")
	} else {
		logger.Info("Metrics collection disabled")
	}

	// Open the content repository, the metadata database and the search
	// index, and wire the note coordinator on top of them.
	rt, err := config.InitializeRuntime(ctx, cfg, config.RuntimeMetrics{
		Save:    metrics.NewSaveMetrics(),
		Indexer: metrics.NewIndexerMetrics(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize runtime: %w", err)
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Error("Failed to close stores", "error", err)
		}
	}()
	// Deferred after Close registration so it runs first: the indexer must
	// drain before the index underneath it closes.
	defer rt.Indexer.Stop(cfg.ShutdownTimeout)

	// Reconcile metadata and index against the repository before serving.
	reconcileMetrics := metrics.NewReconcileMetrics()
	reconcileStart := time.Now()
	stats, err := rt.Service.Reconcile(ctx)
	reconcileMetrics.RecordRun(err, time.Since(reconcileStart))
	if err != nil {
		return fmt.Errorf("startup reconciliation failed: %w", err)
	}
	logger.Info("Startup reconciliation complete",
		"files", stats.Files,
		"inserted", stats.Inserted,
		"updated", stats.Updated,
		"disabled", stats.Disabled,
		"indexed", stats.Indexed)

	// Start the background index writer
	rt.Indexer.Start(ctx)

	// Build the API server
	deps := api.Deps{
		Notes: rt.Service,
		Health: map[string]handlers.Checker{
			"metadata": rt.Metadata,
			"index":    rt.Index,
		},
		HTTPMetrics: metrics.NewHTTPMetrics(),
	}
	if cfg.Metrics.IsEnabled() {
		deps.Metrics = metrics.Handler()
	}
	apiServer := api.NewServer(cfg.API, deps)
	logger.Info("API server configured", "port", apiServer.Port())

	// Write PID file if specified
	if pidFile != "" {
		if err := os.WriteFile(pidFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0644); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	// Start server in background
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- apiServer.Start(ctx)
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()

		// Wait for server to shut down gracefully
		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error", "error", err)
			return err
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("Server error", "error", err)
			return err
		}
		logger.Info("Server stopped")
	}

	return nil
}
