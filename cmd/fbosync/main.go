package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/ozonms/fbosync/internal/control"
	"github.com/ozonms/fbosync/internal/core/config"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	isDebug := flag.Bool("debug", false, "Enable debug logging")
	dryRun := flag.Bool("dry-run", false, "Log document creation instead of performing it")
	once := flag.Bool("once", false, "Run a single reconciliation pass and exit")
	flag.Parse()

	// A missing .env file is fine; deployments may set variables directly.
	_ = godotenv.Load()

	// Load Configuration first (before setting up logger)
	cfg, err := config.Load(*configPath)
	if err != nil {
		// Fall back to the default logger for config load errors
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if *dryRun {
		cfg.Sync.DryRun = true
	}

	// Simplified logging logic (debug < info)
	slogLevel := slog.LevelInfo
	if *isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	}))
	slog.SetDefault(logger)
	slog.Info("Logger initialized", "level", slogLevel.String(), "dry_run", cfg.Sync.DryRun)

	// Initialize Runner
	app, err := control.NewRunner(cfg, logger)
	if err != nil {
		slog.Error("Failed to initialize runner", "error", err)
		os.Exit(1)
	}

	// Setup Context with Cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle OS Signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		slog.Info("Received signal, shutting down...", "signal", sig)
		cancel()
	}()

	// Run until cancelled (or for a single pass with --once)
	var runErr error
	if *once {
		runErr = app.RunOnce(ctx)
	} else {
		runErr = app.Run(ctx)
	}

	// Graceful Shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
		os.Exit(1)
	}

	if runErr != nil {
		slog.Error("Run failed", "error", runErr)
		os.Exit(1)
	}
	slog.Info("Runner stopped gracefully")
}
