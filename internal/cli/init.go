// Package cli provides common startup helpers shared by cmd/credittracker and
// cmd/tracker-worker.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/incari/credit-tractor-app-sub000/internal/backend"
	"github.com/incari/credit-tractor-app-sub000/internal/config"
	"github.com/incari/credit-tractor-app-sub000/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger at the configured level and sets it as
// the default. An unparseable level falls back to info; Validate reports it.
func SetupLogger(cfg *config.Config, component string, out io.Writer) *log.Logger {
	level, _ := config.ParseLogLevel(cfg.LogLevel)
	if out == nil {
		out = os.Stdout
	}
	logger := log.New(log.Config{Level: level, Component: component, Output: out})
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(component string) (*config.Config, *log.Logger) {
	cfg := config.Load()
	logger := SetupLogger(cfg, component, nil)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// OpenBackend creates the store selected by DATA_BACKEND.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *log.Logger) (*backend.BackendResult, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
}

// MustOpenBackend is OpenBackend that exits the process on failure.
func MustOpenBackend(ctx context.Context, cfg *config.Config, logger *log.Logger) *backend.BackendResult {
	result, err := OpenBackend(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err,
			"backend", cfg.DataBackend,
			"supported", backend.GetBackendTypeStrings())
		os.Exit(1)
	}
	return result
}

// ShutdownContext returns a context cancelled on SIGINT or SIGTERM.
func ShutdownContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
