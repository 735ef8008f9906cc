// Package cli provides the process bootstrap helpers used by cmd/ledger.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"ledger/internal/backend"
	"ledger/internal/config"
	applog "ledger/internal/log"
)

// SetupLogger builds the application logger on stderr at the given level
// and installs it as the slog default. An unknown level falls back to warn.
func SetupLogger(level string) *applog.Logger {
	cfg := applog.DefaultConfig()
	if lvl, err := applog.ParseLevel(level); err == nil {
		cfg.Level = lvl
	}
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// ValidateConfig validates cfg and exits the process on failure.
func ValidateConfig(logger *applog.Logger, cfg *config.Config) *config.Config {
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitBackend creates the account store and optional notifier selected by
// cfg. It exits the process when the store cannot be opened.
func InitBackend(ctx context.Context, logger *applog.Logger, cfg *config.Config) *backend.BackendResult {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}

	factory := backend.NewFactory(logger.Logger.With(applog.FieldComponent, applog.ComponentBackend))
	result, err := factory.CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend",
			applog.FieldError, err,
			applog.FieldBackend, backendCfg.Type.String())
		os.Exit(1)
	}
	return result
}

// ErrShutdownSignal is returned by WaitForSignal when SIGINT or SIGTERM
// arrives, so that an errgroup cancels its other members.
var ErrShutdownSignal = errors.New("shutdown signal received")

// WaitForSignal blocks until SIGINT or SIGTERM arrives or ctx is done. It
// returns ErrShutdownSignal for a signal and nil when ctx ends first.
func WaitForSignal(ctx context.Context, logger *applog.Logger) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	return waitForSignal(ctx, logger, sigChan)
}

func waitForSignal(ctx context.Context, logger *applog.Logger, sigChan <-chan os.Signal) error {
	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
		return ErrShutdownSignal
	case <-ctx.Done():
		return nil
	}
}
