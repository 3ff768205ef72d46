package cmd

import (
	"fmt"

	"github.com/Iron-Ham/triad/internal/config"
	"github.com/Iron-Ham/triad/internal/logging"
	"github.com/Iron-Ham/triad/internal/store"
)

// loadConfig loads and validates the effective configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openStore opens the session store at the configured location.
func openStore(cfg *config.Config) (*store.Store, error) {
	st, err := store.New(cfg.StorageDir())
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return st, nil
}

// openLogger creates the diagnostic logger for a session directory. When
// logging is disabled the no-op logger is returned and close is a no-op.
func openLogger(cfg *config.Config, sessionDir string) (*logging.Logger, func(), error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), func() {}, nil
	}
	logger, err := logging.NewLogger(sessionDir, cfg.Logging.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return logger, func() { _ = logger.Close() }, nil
}
