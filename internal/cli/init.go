// Package cli provides the initialization shared by cmd/myeconomy and
// cmd/myeconomy-worker.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"myeconomy/internal/config"
	applog "myeconomy/internal/log"

	"github.com/joho/godotenv"
)

// SetupLogger builds the component logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func SetupLogger(w io.Writer, level, format, component string) *applog.Logger {
	if w == nil {
		w = os.Stdout
	}
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(level),
		Format:    format,
		Component: component,
		Output:    w,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile(filenames ...string) {
	_ = godotenv.Load(filenames...)
}

// LoadAndValidateConfig loads the API server configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig() *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	generated, err := cfg.EnsureJWTSecret()
	if err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if generated {
		slog.Warn("JWT_SECRET not set, using a random secret; tokens will not survive a restart",
			"backend", cfg.DataBackend)
	}
	return cfg
}

// LoadAndValidateWorkerConfig is LoadAndValidateConfig for the ledger worker,
// which needs neither a store nor token signing.
func LoadAndValidateWorkerConfig() *config.Config {
	cfg := config.Load()
	if err := cfg.ValidateWorker(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		if parent.Err() == nil {
			slog.Info("Shutdown signal received")
		}
	}()
	return ctx, stop
}
